package services

import (
	"testing"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/models"
	"rateapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Email:       email,
		Password:    "correct-horse",
		DisplayName: "Test User",
		Gender:      models.GenderMan,
		Birthdate:   time.Date(1996, 4, 12, 0, 0, 0, 0, time.UTC),
		Latitude:    40.0,
		Longitude:   -74.0,
	}
}

func TestRegisterCreatesUserWithDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig())

	result, err := svc.Register(registerInput("New.User@Example.COM"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "new.user@example.com", result.Email)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", result.UserID).Error)
	assert.Equal(t, "new.user@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	// A man gets opposite-gender defaults: women, 18-35, 25 miles.
	var pref models.Preference
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&pref).Error)
	assert.Equal(t, models.GenderWoman, pref.PreferredGender)
	assert.Equal(t, 18, pref.MinAge)
	assert.Equal(t, 35, pref.MaxAge)
	assert.InDelta(t, 25.0, pref.MaxDistanceMiles, 0.001)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig())

	_, err := svc.Register(registerInput("taken@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(registerInput("TAKEN@example.com"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLoginRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, cfg)

	registered, err := svc.Register(registerInput("login@example.com"))
	require.NoError(t, err)

	result, err := svc.Login("login@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, result.UserID)

	claims, err := utils.ValidateToken(cfg.JWTSecret, result.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig())

	_, err := svc.Register(registerInput("user@example.com"))
	require.NoError(t, err)

	_, err = svc.Login("user@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}

func TestLoginUnknownEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, testConfig())

	_, err := svc.Login("nobody@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}

func TestUpsertPreferences(t *testing.T) {
	db := setupTestDB(t)
	auth := NewAuthService(db, testConfig())
	users := NewUserService(db, NewPhotoService(db, nil, testConfig()))

	registered, err := auth.Register(registerInput("prefs@example.com"))
	require.NoError(t, err)

	updated, err := users.UpsertPreferences(registered.UserID, PreferenceDTO{
		PreferredGender:  models.GenderMan,
		MinAge:           25,
		MaxAge:           40,
		MaxDistanceMiles: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.MinAge)

	fetched, err := users.GetPreferences(registered.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.GenderMan, fetched.PreferredGender)
	assert.Equal(t, 40, fetched.MaxAge)
	assert.InDelta(t, 50.0, fetched.MaxDistanceMiles, 0.001)

	var count int64
	require.NoError(t, db.Model(&models.Preference{}).Where("user_id = ?", registered.UserID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUserAgeComputation(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	beforeBirthday := models.User{Birthdate: time.Date(1996, 8, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 29, beforeBirthday.Age(now))

	afterBirthday := models.User{Birthdate: time.Date(1996, 4, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 30, afterBirthday.Age(now))

	onBirthday := models.User{Birthdate: time.Date(1996, 6, 15, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 30, onBirthday.Age(now))
}
