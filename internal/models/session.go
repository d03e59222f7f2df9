package models

import (
	"time"

	"github.com/google/uuid"
)

// Session lifecycle. Transitions only move forward:
// active -> locked -> finalized, or active -> finalized.
const (
	SessionActive    = "active"
	SessionLocked    = "locked"
	SessionFinalized = "finalized"
)

type RatingSession struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	CandidateID uuid.UUID  `json:"candidate_id" gorm:"type:uuid;not null"`
	CreatorID   uuid.UUID  `json:"creator_id" gorm:"type:uuid;not null"`
	Title       *string    `json:"title,omitempty"`
	Status      string     `json:"status" gorm:"not null;default:active"`
	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

type SessionParticipantRating struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID   uuid.UUID `json:"session_id" gorm:"type:uuid;not null;uniqueIndex:idx_session_participant"`
	RaterUserID uuid.UUID `json:"rater_user_id" gorm:"type:uuid;not null;uniqueIndex:idx_session_participant"`
	Score       *int      `json:"score,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SessionMessage struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID    uuid.UUID `json:"session_id" gorm:"type:uuid;index;not null"`
	SenderUserID uuid.UUID `json:"sender_user_id" gorm:"type:uuid;not null"`
	Content      string    `json:"content" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}
