package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type RatingCriterion struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string    `json:"name" gorm:"uniqueIndex;not null"`
	Weight     float64   `json:"weight" gorm:"not null"`
	IsRequired bool      `json:"is_required" gorm:"default:false"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
}

type Rating struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RaterUserID uuid.UUID `json:"rater_user_id" gorm:"type:uuid;not null;uniqueIndex:idx_rating_pair"`
	RatedUserID uuid.UUID `json:"rated_user_id" gorm:"type:uuid;not null;uniqueIndex:idx_rating_pair;index"`
	Score       int       `json:"score" gorm:"not null"`
	Comment     *string   `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RatingDetail struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RatingID    uuid.UUID `json:"rating_id" gorm:"type:uuid;index;not null"`
	CriterionID uuid.UUID `json:"criterion_id" gorm:"type:uuid;not null"`
	Score       int       `json:"score" gorm:"not null"`
}

type Match struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserAID   uuid.UUID `json:"user_a_id" gorm:"type:uuid;not null;uniqueIndex:idx_match_pair"`
	UserBID   uuid.UUID `json:"user_b_id" gorm:"type:uuid;not null;uniqueIndex:idx_match_pair"`
	CreatedAt time.Time `json:"created_at"`
}

type Chat struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	MatchID   uuid.UUID `json:"match_id" gorm:"type:uuid;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ChatID       uuid.UUID `json:"chat_id" gorm:"type:uuid;index;not null"`
	SenderUserID uuid.UUID `json:"sender_user_id" gorm:"type:uuid;not null"`
	Content      string    `json:"content" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderPair returns the two user IDs in canonical order (byte-wise
// smaller first) so match lookups and inserts are idempotent.
func OrderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}
