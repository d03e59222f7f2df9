package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/models"
	"rateapp/internal/realtime"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SessionService struct {
	db        *gorm.DB
	publisher realtime.Publisher
}

type SessionDTO struct {
	ID          uuid.UUID  `json:"id"`
	CandidateID uuid.UUID  `json:"candidateId"`
	CreatorID   uuid.UUID  `json:"creatorId"`
	Title       *string    `json:"title,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

type SessionParticipantDTO struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	HasScored   bool      `json:"hasScored"`
	Score       *int      `json:"score,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

type SessionStateDTO struct {
	Session      SessionDTO              `json:"session"`
	Candidate    string                  `json:"candidateDisplayName"`
	Participants []SessionParticipantDTO `json:"participants"`
	AverageScore *float64                `json:"averageScore,omitempty"`
}

type SessionMessageDTO struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"sessionId"`
	SenderUserID uuid.UUID `json:"senderUserId"`
	Content      string    `json:"content"`
	SentAt       time.Time `json:"sentAt"`
}

func NewSessionService(db *gorm.DB, publisher realtime.Publisher) *SessionService {
	return &SessionService{db: db, publisher: publisher}
}

// Create opens a session about the candidate and enrolls the creator as
// its first, not-yet-scored participant.
func (s *SessionService) Create(creatorID, candidateID uuid.UUID, title *string) (*SessionDTO, error) {
	if creatorID == candidateID {
		return nil, apperrors.InvalidState("You cannot open a session about yourself.")
	}

	var creator models.User
	if err := s.db.First(&creator, "id = ?", creatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, apperrors.Internal(err)
	}

	var candidate models.User
	if err := s.db.First(&candidate, "id = ?", candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Candidate not found.")
		}
		return nil, apperrors.Internal(err)
	}

	session := models.RatingSession{
		ID:          uuid.New(),
		CandidateID: candidateID,
		CreatorID:   creatorID,
		Title:       title,
		Status:      models.SessionActive,
		CreatedAt:   time.Now().UTC(),
	}
	participant := models.SessionParticipantRating{
		ID:          uuid.New(),
		SessionID:   session.ID,
		RaterUserID: creatorID,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id":   session.ID,
		"candidate_id": candidateID,
	}).Info("rating session created")

	dto := toSessionDTO(session)
	return &dto, nil
}

// GetState returns the full session view. Only participants may look.
func (s *SessionService) GetState(userID, sessionID uuid.UUID) (*SessionStateDTO, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireParticipant(sessionID, userID); err != nil {
		return nil, err
	}

	var candidate models.User
	if err := s.db.First(&candidate, "id = ?", session.CandidateID).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	var rows []models.SessionParticipantRating
	err = s.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	state := &SessionStateDTO{
		Session:      toSessionDTO(*session),
		Candidate:    candidate.DisplayName,
		Participants: make([]SessionParticipantDTO, 0, len(rows)),
	}

	var sum, scored int
	for _, row := range rows {
		var rater models.User
		if err := s.db.First(&rater, "id = ?", row.RaterUserID).Error; err != nil {
			return nil, apperrors.Internal(err)
		}
		state.Participants = append(state.Participants, SessionParticipantDTO{
			UserID:      row.RaterUserID,
			DisplayName: rater.DisplayName,
			HasScored:   row.Score != nil,
			Score:       row.Score,
			Notes:       row.Notes,
		})
		if row.Score != nil {
			sum += *row.Score
			scored++
		}
	}
	if scored > 0 {
		avg := math.Round(float64(sum)/float64(scored)*100) / 100
		state.AverageScore = &avg
	}
	return state, nil
}

// Join enrolls the user while the session is still active. Joining a
// session you already belong to is a no-op.
func (s *SessionService) Join(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionActive {
		return apperrors.InvalidState("Session is no longer accepting participants.")
	}
	if userID == session.CandidateID {
		return apperrors.Forbidden("The candidate cannot join their own session.")
	}

	participant := models.SessionParticipantRating{
		ID:          uuid.New(),
		SessionID:   sessionID,
		RaterUserID: userID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.Create(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return apperrors.Internal(err)
	}

	s.publish(ctx, sessionID, "UserJoined", map[string]interface{}{
		"sessionId": sessionID,
		"userId":    userID,
	})
	return nil
}

// Leave removes the user's enrollment. A participant who has already
// scored is part of the record: their row stays and leave is a no-op.
func (s *SessionService) Leave(ctx context.Context, userID, sessionID uuid.UUID) error {
	if _, err := s.loadSession(sessionID); err != nil {
		return err
	}
	row, err := s.requireParticipant(sessionID, userID)
	if err != nil {
		return err
	}
	if row.Score != nil {
		return nil
	}

	if err := s.db.Delete(row).Error; err != nil {
		return apperrors.Internal(err)
	}

	s.publish(ctx, sessionID, "UserLeft", map[string]interface{}{
		"sessionId": sessionID,
		"userId":    userID,
	})
	return nil
}

// SubmitScore records a participant's first score for the candidate.
func (s *SessionService) SubmitScore(ctx context.Context, userID, sessionID uuid.UUID, score int, notes *string) error {
	if score < 1 || score > 10 {
		return apperrors.InvalidArgument("Score must be between 1 and 10.")
	}
	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionActive {
		return apperrors.InvalidState("Session is not accepting new scores.")
	}
	row, err := s.requireParticipant(sessionID, userID)
	if err != nil {
		return err
	}
	if row.Score != nil {
		return apperrors.InvalidState("You have already scored in this session.")
	}

	row.Score = &score
	row.Notes = notes
	if err := s.db.Save(row).Error; err != nil {
		return apperrors.Internal(err)
	}

	s.publish(ctx, sessionID, "RatingSubmitted", map[string]interface{}{
		"sessionId": sessionID,
		"userId":    userID,
		"score":     score,
	})
	return nil
}

// UpdateScore revises an existing score. Allowed until finalization.
func (s *SessionService) UpdateScore(ctx context.Context, userID, sessionID uuid.UUID, score int, notes *string) error {
	if score < 1 || score > 10 {
		return apperrors.InvalidArgument("Score must be between 1 and 10.")
	}
	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	if session.Status == models.SessionFinalized {
		return apperrors.InvalidState("Session has been finalized.")
	}
	row, err := s.requireParticipant(sessionID, userID)
	if err != nil {
		return err
	}
	if row.Score == nil {
		return apperrors.InvalidState("No score to update; submit one first.")
	}

	row.Score = &score
	row.Notes = notes
	if err := s.db.Save(row).Error; err != nil {
		return apperrors.Internal(err)
	}

	s.publish(ctx, sessionID, "RatingUpdated", map[string]interface{}{
		"sessionId": sessionID,
		"userId":    userID,
		"score":     score,
	})
	return nil
}

// SendMessage posts to the session's discussion thread.
func (s *SessionService) SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*SessionMessageDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.InvalidArgument("Message content cannot be empty.")
	}
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionFinalized {
		return nil, apperrors.InvalidState("Session has been finalized.")
	}
	if _, err := s.requireParticipant(sessionID, userID); err != nil {
		return nil, err
	}

	message := models.SessionMessage{
		ID:           uuid.New(),
		SessionID:    sessionID,
		SenderUserID: userID,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	dto := SessionMessageDTO{
		ID:           message.ID,
		SessionID:    sessionID,
		SenderUserID: userID,
		Content:      content,
		SentAt:       message.CreatedAt,
	}
	s.publish(ctx, sessionID, "ChatMessage", dto)
	return &dto, nil
}

// GetMessages returns the session's discussion, oldest first.
func (s *SessionService) GetMessages(userID, sessionID uuid.UUID) ([]SessionMessageDTO, error) {
	if _, err := s.loadSession(sessionID); err != nil {
		return nil, err
	}
	if _, err := s.requireParticipant(sessionID, userID); err != nil {
		return nil, err
	}

	var messages []models.SessionMessage
	err := s.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&messages).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := make([]SessionMessageDTO, 0, len(messages))
	for _, m := range messages {
		result = append(result, SessionMessageDTO{
			ID:           m.ID,
			SessionID:    m.SessionID,
			SenderUserID: m.SenderUserID,
			Content:      m.Content,
			SentAt:       m.CreatedAt,
		})
	}
	return result, nil
}

// Lock stops new scores. Creator only, from active only.
func (s *SessionService) Lock(userID, sessionID uuid.UUID) error {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	if session.CreatorID != userID {
		return apperrors.Forbidden("Only the session creator can lock it.")
	}
	if session.Status != models.SessionActive {
		return apperrors.InvalidState("Only an active session can be locked.")
	}

	session.Status = models.SessionLocked
	if err := s.db.Save(session).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Finalize closes the session and writes the averaged verdict into the
// creator's rating of the candidate. A session with no scores closes
// without touching the ledger.
func (s *SessionService) Finalize(userID, sessionID uuid.UUID) error {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	if session.CreatorID != userID {
		return apperrors.Forbidden("Only the session creator can finalize it.")
	}
	if session.Status == models.SessionFinalized {
		return apperrors.InvalidState("Session has already been finalized.")
	}

	var rows []models.SessionParticipantRating
	err = s.db.Where("session_id = ? AND score IS NOT NULL", sessionID).Find(&rows).Error
	if err != nil {
		return apperrors.Internal(err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		session.Status = models.SessionFinalized
		session.FinalizedAt = &now
		if err := tx.Save(session).Error; err != nil {
			return apperrors.Internal(err)
		}

		if len(rows) == 0 {
			return nil
		}

		var sum int
		for _, row := range rows {
			sum += *row.Score
		}
		verdict := int(math.Round(float64(sum) / float64(len(rows))))

		var rating models.Rating
		err := tx.Where("rater_user_id = ? AND rated_user_id = ?", session.CreatorID, session.CandidateID).
			First(&rating).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rating = models.Rating{
				ID:          uuid.New(),
				RaterUserID: session.CreatorID,
				RatedUserID: session.CandidateID,
				Score:       verdict,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&rating).Error; err != nil {
				return apperrors.Internal(err)
			}
			return nil
		}
		if err != nil {
			return apperrors.Internal(err)
		}

		rating.Score = verdict
		rating.UpdatedAt = now
		if err := tx.Save(&rating).Error; err != nil {
			return apperrors.Internal(err)
		}
		return nil
	})
}

func (s *SessionService) loadSession(sessionID uuid.UUID) (*models.RatingSession, error) {
	var session models.RatingSession
	if err := s.db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Session not found.")
		}
		return nil, apperrors.Internal(err)
	}
	return &session, nil
}

func (s *SessionService) requireParticipant(sessionID, userID uuid.UUID) (*models.SessionParticipantRating, error) {
	var row models.SessionParticipantRating
	err := s.db.Where("session_id = ? AND rater_user_id = ?", sessionID, userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Forbidden("You are not a participant in this session.")
		}
		return nil, apperrors.Internal(err)
	}
	return &row, nil
}

func (s *SessionService) publish(ctx context.Context, sessionID uuid.UUID, event string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.SessionTopic(sessionID), event, payload); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("session event publish failed")
	}
}

func toSessionDTO(s models.RatingSession) SessionDTO {
	return SessionDTO{
		ID:          s.ID,
		CandidateID: s.CandidateID,
		CreatorID:   s.CreatorID,
		Title:       s.Title,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		FinalizedAt: s.FinalizedAt,
	}
}
