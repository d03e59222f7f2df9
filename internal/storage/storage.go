package storage

import (
	"context"
	"io"

	"rateapp/internal/config"
)

// Storage persists photo files under keys of the form
// "<userID>/<fileName>". Implementations must tolerate Delete on a
// missing key.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// New selects a backend: MinIO when an endpoint is configured, AWS S3
// when credentials are, local disk otherwise.
func New(cfg *config.Config) (Storage, error) {
	if cfg.MinIOEndpoint != "" {
		return newMinIOStorage(cfg)
	}
	if cfg.AWSAccessKeyID != "" {
		return newS3Storage(cfg)
	}
	return newLocalStorage(cfg.UploadsDir)
}
