package services

import (
	"errors"
	"strings"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/config"
	"rateapp/internal/models"
	"rateapp/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Preference defaults applied at registration.
const (
	defaultMinAge      = 18
	defaultMaxAge      = 35
	defaultMaxDistance = 25.0
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Gender      int
	Birthdate   time.Time
	Latitude    float64
	Longitude   float64
}

type AuthResult struct {
	Token       string    `json:"token"`
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  input.DisplayName,
		Gender:       input.Gender,
		Birthdate:    input.Birthdate,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	preferredGender := models.GenderWoman
	if input.Gender == models.GenderWoman {
		preferredGender = models.GenderMan
	}
	pref := models.Preference{
		ID:               uuid.New(),
		UserID:           user.ID,
		PreferredGender:  preferredGender,
		MinAge:           defaultMinAge,
		MaxAge:           defaultMaxAge,
		MaxDistanceMiles: defaultMaxDistance,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&pref).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Email already registered.")
		}
		return nil, apperrors.Internal(err)
	}

	logrus.WithField("email", user.Email).Info("user registered")

	token, err := utils.GenerateToken(s.cfg.JWTSecret, s.cfg.JWTExpiry, user.ID, user.Email, user.DisplayName)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResult{Token: token, UserID: user.ID, DisplayName: user.DisplayName, Email: user.Email}, nil
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthenticated("Invalid credentials.")
		}
		return nil, apperrors.Internal(err)
	}

	if !utils.VerifyPassword(password, user.PasswordHash) {
		return nil, apperrors.Unauthenticated("Invalid credentials.")
	}

	token, err := utils.GenerateToken(s.cfg.JWTSecret, s.cfg.JWTExpiry, user.ID, user.Email, user.DisplayName)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResult{Token: token, UserID: user.ID, DisplayName: user.DisplayName, Email: user.Email}, nil
}
