package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/config"
	"rateapp/internal/models"
	"rateapp/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PhotoService struct {
	db      *gorm.DB
	storage storage.Storage
	cfg     *config.Config
}

type PhotoDTO struct {
	ID           uuid.UUID `json:"id"`
	URL          string    `json:"url"`
	DisplayOrder int       `json:"displayOrder"`
}

var allowedPhotoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func NewPhotoService(db *gorm.DB, store storage.Storage, cfg *config.Config) *PhotoService {
	return &PhotoService{db: db, storage: store, cfg: cfg}
}

func (s *PhotoService) ListPhotos(userID uuid.UUID) ([]PhotoDTO, error) {
	var photos []models.Photo
	err := s.db.Where("user_id = ?", userID).
		Order("display_order ASC, created_at ASC").
		Find(&photos).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := make([]PhotoDTO, 0, len(photos))
	for _, p := range photos {
		result = append(result, s.toDTO(p))
	}
	return result, nil
}

func (s *PhotoService) UploadPhoto(ctx context.Context, userID uuid.UUID, fileName string, size int64, contentType string, r io.Reader) (*PhotoDTO, error) {
	ext := strings.ToLower(path.Ext(fileName))
	if !allowedPhotoExts[ext] {
		return nil, apperrors.InvalidState("Only JPG, PNG, or WebP images are allowed.")
	}
	if size > s.cfg.MaxPhotoBytes {
		return nil, apperrors.InvalidState("File must be under %d MB.", s.cfg.MaxPhotoBytes/(1024*1024))
	}

	var count int64
	if err := s.db.Model(&models.Photo{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if count >= int64(s.cfg.MaxPhotosPerUser) {
		return nil, apperrors.InvalidState("Maximum of %d photos allowed.", s.cfg.MaxPhotosPerUser)
	}

	stored := uuid.New().String() + ext
	key := userID.String() + "/" + stored
	if err := s.storage.Save(ctx, key, r, size, contentType); err != nil {
		return nil, apperrors.Internal(err)
	}

	photo := models.Photo{
		ID:           uuid.New(),
		UserID:       userID,
		FileName:     stored,
		DisplayOrder: int(count),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.Create(&photo).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	dto := s.toDTO(photo)
	return &dto, nil
}

// DeletePhoto refuses to drop a user's last photo; the refusal leaves
// both the row and the stored file untouched.
func (s *PhotoService) DeletePhoto(ctx context.Context, userID, photoID uuid.UUID) error {
	var photo models.Photo
	err := s.db.Where("id = ? AND user_id = ?", photoID, userID).First(&photo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Photo not found.")
		}
		return apperrors.Internal(err)
	}

	var count int64
	if err := s.db.Model(&models.Photo{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return apperrors.Internal(err)
	}
	if count <= 1 {
		return apperrors.InvalidState("You must keep at least 1 photo.")
	}

	if err := s.storage.Delete(ctx, userID.String()+"/"+photo.FileName); err != nil {
		return apperrors.Internal(err)
	}
	return s.db.Delete(&photo).Error
}

// BuildURL forms the public URL for a stored photo.
func (s *PhotoService) BuildURL(userID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/uploads/%s/%s", s.cfg.BaseURL, userID, fileName)
}

func (s *PhotoService) toDTO(p models.Photo) PhotoDTO {
	return PhotoDTO{ID: p.ID, URL: s.BuildURL(p.UserID, p.FileName), DisplayOrder: p.DisplayOrder}
}
