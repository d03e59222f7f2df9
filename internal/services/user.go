package services

import (
	"errors"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db     *gorm.DB
	photos *PhotoService
}

type ProfileDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Gender      int        `json:"gender"`
	Birthdate   time.Time  `json:"birthdate"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Age         int        `json:"age"`
	Photos      []PhotoDTO `json:"photos"`
}

type PreferenceDTO struct {
	PreferredGender  int     `json:"preferredGender"`
	MinAge           int     `json:"minAge"`
	MaxAge           int     `json:"maxAge"`
	MaxDistanceMiles float64 `json:"maxDistanceMiles"`
}

func NewUserService(db *gorm.DB, photos *PhotoService) *UserService {
	return &UserService{db: db, photos: photos}
}

func (s *UserService) GetProfile(userID uuid.UUID) (*ProfileDTO, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, apperrors.Internal(err)
	}
	return s.toProfile(user)
}

func (s *UserService) UpdateProfile(userID uuid.UUID, displayName string, latitude, longitude float64) (*ProfileDTO, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, apperrors.Internal(err)
	}

	user.DisplayName = displayName
	user.Latitude = latitude
	user.Longitude = longitude
	if err := s.db.Save(&user).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.toProfile(user)
}

func (s *UserService) GetPreferences(userID uuid.UUID) (*PreferenceDTO, error) {
	var pref models.Preference
	if err := s.db.Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Preferences not found.")
		}
		return nil, apperrors.Internal(err)
	}
	return &PreferenceDTO{
		PreferredGender:  pref.PreferredGender,
		MinAge:           pref.MinAge,
		MaxAge:           pref.MaxAge,
		MaxDistanceMiles: pref.MaxDistanceMiles,
	}, nil
}

func (s *UserService) UpsertPreferences(userID uuid.UUID, input PreferenceDTO) (*PreferenceDTO, error) {
	var pref models.Preference
	err := s.db.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.Preference{ID: uuid.New(), UserID: userID}
	} else if err != nil {
		return nil, apperrors.Internal(err)
	}

	pref.PreferredGender = input.PreferredGender
	pref.MinAge = input.MinAge
	pref.MaxAge = input.MaxAge
	pref.MaxDistanceMiles = input.MaxDistanceMiles

	if err := s.db.Save(&pref).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &input, nil
}

func (s *UserService) toProfile(user models.User) (*ProfileDTO, error) {
	photos, err := s.photos.ListPhotos(user.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Gender:      user.Gender,
		Birthdate:   user.Birthdate,
		Latitude:    user.Latitude,
		Longitude:   user.Longitude,
		Age:         user.Age(time.Now()),
		Photos:      photos,
	}, nil
}
