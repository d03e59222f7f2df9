package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"rateapp/internal/config"
	"rateapp/internal/database"
	"rateapp/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedCriteria(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		JWTExpiry:         time.Hour,
		BaseURL:           "http://localhost:8080",
		MaxPhotoBytes:     5 * 1024 * 1024,
		MaxPhotosPerUser:  6,
		SummaryCacheTTL:   10 * time.Minute,
		DefaultPageSize:   10,
		CandidateOverscan: 5,
	}
}

func createUser(t *testing.T, db *gorm.DB, name string, gender int, age int, lat, lon float64) models.User {
	t.Helper()

	user := models.User{
		ID:           uuid.New(),
		Email:        name + "@example.com",
		DisplayName:  name,
		Gender:       gender,
		Birthdate:    time.Now().UTC().AddDate(-age, 0, -1),
		Latitude:     lat,
		Longitude:    lon,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createPreference(t *testing.T, db *gorm.DB, userID uuid.UUID, gender, minAge, maxAge int, miles float64) {
	t.Helper()

	pref := models.Preference{
		ID:               uuid.New(),
		UserID:           userID,
		PreferredGender:  gender,
		MinAge:           minAge,
		MaxAge:           maxAge,
		MaxDistanceMiles: miles,
	}
	require.NoError(t, db.Create(&pref).Error)
}

func addPhoto(t *testing.T, db *gorm.DB, userID uuid.UUID) {
	t.Helper()

	photo := models.Photo{
		ID:        uuid.New(),
		UserID:    userID,
		FileName:  uuid.New().String() + ".jpg",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&photo).Error)
}

func activeCriteria(t *testing.T, db *gorm.DB) map[string]models.RatingCriterion {
	t.Helper()

	var criteria []models.RatingCriterion
	require.NoError(t, db.Where("is_active = ?", true).Find(&criteria).Error)
	byName := make(map[string]models.RatingCriterion, len(criteria))
	for _, c := range criteria {
		byName[c.Name] = c
	}
	return byName
}

// fakePublisher records published events for assertions.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Topic   string
	Event   string
	Payload interface{}
}

func (p *fakePublisher) Publish(_ context.Context, topic, event string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Event: event, Payload: payload})
	return nil
}

func (p *fakePublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}
