package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rateapp/internal/apperrors"
	"rateapp/internal/models"
	"rateapp/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPhotoService(t *testing.T, db *gorm.DB) *PhotoService {
	t.Helper()

	cfg := testConfig()
	cfg.UploadsDir = t.TempDir()
	store, err := storage.New(cfg)
	require.NoError(t, err)
	return NewPhotoService(db, store, cfg)
}

func upload(t *testing.T, svc *PhotoService, userID uuid.UUID, name, content string) *PhotoDTO {
	t.Helper()

	photo, err := svc.UploadPhoto(context.Background(), userID, name, int64(len(content)), "image/jpeg", strings.NewReader(content))
	require.NoError(t, err)
	return photo
}

func TestUploadPhotoStoresFileAndRow(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	user := createUser(t, db, "user", models.GenderWoman, 27, 0, 0)

	photo := upload(t, svc, user.ID, "selfie.jpg", "fake image bytes")
	assert.Equal(t, 0, photo.DisplayOrder)
	assert.Contains(t, photo.URL, "/uploads/"+user.ID.String()+"/")

	files, err := os.ReadDir(filepath.Join(svc.cfg.UploadsDir, user.ID.String()))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestUploadPhotoDisplayOrderIncrements(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	user := createUser(t, db, "user", models.GenderWoman, 27, 0, 0)

	upload(t, svc, user.ID, "a.jpg", "x")
	second := upload(t, svc, user.ID, "b.png", "y")
	assert.Equal(t, 1, second.DisplayOrder)
}

func TestUploadPhotoRejectsBadExtension(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	user := createUser(t, db, "user", models.GenderWoman, 27, 0, 0)

	_, err := svc.UploadPhoto(context.Background(), user.ID, "document.pdf", 10, "application/pdf", strings.NewReader("0123456789"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestUploadPhotoRejectsOversizedFile(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	user := createUser(t, db, "user", models.GenderWoman, 27, 0, 0)

	_, err := svc.UploadPhoto(context.Background(), user.ID, "huge.jpg", 6*1024*1024, "image/jpeg", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestUploadPhotoRejectsSeventh(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	user := createUser(t, db, "user", models.GenderWoman, 27, 0, 0)

	for i := 0; i < 6; i++ {
		upload(t, svc, user.ID, "photo.jpg", "x")
	}

	_, err := svc.UploadPhoto(context.Background(), user.ID, "seventh.jpg", 1, "image/jpeg", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestDeletePhotoKeepsLastOne(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	user := createUser(t, db, "user", models.GenderWoman, 27, 0, 0)

	only := upload(t, svc, user.ID, "only.jpg", "x")

	err := svc.DeletePhoto(context.Background(), user.ID, only.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	// Refusal leaves both the row and the file alone.
	var count int64
	require.NoError(t, db.Model(&models.Photo{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	files, err := os.ReadDir(filepath.Join(svc.cfg.UploadsDir, user.ID.String()))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDeletePhotoRemovesFileAndRow(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	user := createUser(t, db, "user", models.GenderWoman, 27, 0, 0)

	first := upload(t, svc, user.ID, "a.jpg", "x")
	upload(t, svc, user.ID, "b.jpg", "y")

	require.NoError(t, svc.DeletePhoto(context.Background(), user.ID, first.ID))

	var count int64
	require.NoError(t, db.Model(&models.Photo{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	files, err := os.ReadDir(filepath.Join(svc.cfg.UploadsDir, user.ID.String()))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDeletePhotoOtherUsersPhoto(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	owner := createUser(t, db, "owner", models.GenderWoman, 27, 0, 0)
	thief := createUser(t, db, "thief", models.GenderMan, 28, 0, 0)

	photo := upload(t, svc, owner.ID, "a.jpg", "x")
	upload(t, svc, owner.ID, "b.jpg", "y")

	err := svc.DeletePhoto(context.Background(), thief.ID, photo.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestListPhotosOrdered(t *testing.T) {
	db := setupTestDB(t)
	svc := newPhotoService(t, db)
	user := createUser(t, db, "user", models.GenderWoman, 27, 0, 0)

	upload(t, svc, user.ID, "a.jpg", "x")
	upload(t, svc, user.ID, "b.jpg", "y")
	upload(t, svc, user.ID, "c.jpg", "z")

	photos, err := svc.ListPhotos(user.ID)
	require.NoError(t, err)
	require.Len(t, photos, 3)
	for i, p := range photos {
		assert.Equal(t, i, p.DisplayOrder)
	}
}
