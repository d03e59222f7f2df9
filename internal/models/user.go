package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender values match the wire representation used by clients.
const (
	GenderMan   = 0
	GenderWoman = 1
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	DisplayName  string    `json:"display_name" gorm:"not null"`
	Gender       int       `json:"gender" gorm:"not null"`
	Birthdate    time.Time `json:"birthdate" gorm:"not null"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// Age computes full years as of the given instant (UTC), leap-aware:
// the year difference is decremented when the birthday has not yet
// occurred this year.
func (u User) Age(now time.Time) int {
	today := now.UTC()
	age := today.Year() - u.Birthdate.Year()
	if u.Birthdate.AddDate(age, 0, 0).After(today) {
		age--
	}
	return age
}

type Preference struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	PreferredGender  int       `json:"preferred_gender"`
	MinAge           int       `json:"min_age"`
	MaxAge           int       `json:"max_age"`
	MaxDistanceMiles float64   `json:"max_distance_miles"`
}

type Photo struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	FileName     string    `json:"file_name" gorm:"not null"`
	DisplayOrder int       `json:"display_order" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
}
