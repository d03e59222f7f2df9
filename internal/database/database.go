package database

import (
	"fmt"

	"rateapp/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Duplicate-insert races are resolved by catching
		// gorm.ErrDuplicatedKey and fetching the existing row.
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(databaseURL), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Info("database connected and migrated")
	return db, nil
}

// Migrate creates or updates the schema for every entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Preference{},
		&models.Photo{},
		&models.RatingCriterion{},
		&models.Rating{},
		&models.RatingDetail{},
		&models.Match{},
		&models.Chat{},
		&models.Message{},
		&models.RatingSession{},
		&models.SessionParticipantRating{},
		&models.SessionMessage{},
	)
}

// SeedCriteria installs the default rating criteria when none exist.
func SeedCriteria(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.RatingCriterion{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	criteria := []models.RatingCriterion{
		{ID: uuid.New(), Name: "Skill", Weight: 0.40, IsRequired: true, IsActive: true},
		{ID: uuid.New(), Name: "Communication", Weight: 0.35, IsRequired: true, IsActive: true},
		{ID: uuid.New(), Name: "Culture", Weight: 0.25, IsRequired: false, IsActive: true},
	}
	if err := db.Create(&criteria).Error; err != nil {
		return fmt.Errorf("failed to seed criteria: %w", err)
	}

	logrus.WithField("count", len(criteria)).Info("rating criteria seeded")
	return nil
}
