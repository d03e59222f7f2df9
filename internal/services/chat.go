package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/models"
	"rateapp/internal/realtime"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const snippetLimit = 50
const messagePageSize = 50

type ChatService struct {
	db        *gorm.DB
	publisher realtime.Publisher
}

type ChatDTO struct {
	ID               uuid.UUID  `json:"id"`
	MatchID          uuid.UUID  `json:"matchId"`
	OtherUserID      uuid.UUID  `json:"otherUserId"`
	OtherDisplayName string     `json:"otherDisplayName"`
	LastMessage      string     `json:"lastMessage"`
	LastMessageAt    *time.Time `json:"lastMessageAt,omitempty"`
	MatchedAt        time.Time  `json:"matchedAt"`
}

type MessageDTO struct {
	ID           uuid.UUID `json:"id"`
	ChatID       uuid.UUID `json:"chatId"`
	SenderUserID uuid.UUID `json:"senderUserId"`
	Content      string    `json:"content"`
	SentAt       time.Time `json:"sentAt"`
}

func NewChatService(db *gorm.DB, publisher realtime.Publisher) *ChatService {
	return &ChatService{db: db, publisher: publisher}
}

// ListChats returns the user's chats, newest match first, each with a
// snippet of the latest message.
func (s *ChatService) ListChats(userID uuid.UUID) ([]ChatDTO, error) {
	var matches []models.Match
	err := s.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := make([]ChatDTO, 0, len(matches))
	for _, m := range matches {
		var chat models.Chat
		if err := s.db.Where("match_id = ?", m.ID).First(&chat).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, apperrors.Internal(err)
		}

		otherID := m.UserAID
		if otherID == userID {
			otherID = m.UserBID
		}
		var other models.User
		if err := s.db.First(&other, "id = ?", otherID).Error; err != nil {
			return nil, apperrors.Internal(err)
		}

		dto := ChatDTO{
			ID:               chat.ID,
			MatchID:          m.ID,
			OtherUserID:      other.ID,
			OtherDisplayName: other.DisplayName,
			MatchedAt:        m.CreatedAt,
		}

		var last models.Message
		err := s.db.Where("chat_id = ?", chat.ID).Order("created_at DESC").First(&last).Error
		if err == nil {
			dto.LastMessage = snippet(last.Content)
			dto.LastMessageAt = &last.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Internal(err)
		}

		result = append(result, dto)
	}
	return result, nil
}

// GetMessages returns the 50 most recent messages, oldest first.
func (s *ChatService) GetMessages(userID, chatID uuid.UUID) ([]MessageDTO, error) {
	if _, err := s.authorizeChat(userID, chatID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := s.db.Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(messagePageSize).
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := make([]MessageDTO, len(messages))
	for i, m := range messages {
		result[len(messages)-1-i] = toMessageDTO(m)
	}
	return result, nil
}

func (s *ChatService) SendMessage(ctx context.Context, userID, chatID uuid.UUID, content string) (*MessageDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.InvalidArgument("Message content cannot be empty.")
	}

	if _, err := s.authorizeChat(userID, chatID); err != nil {
		return nil, err
	}

	message := models.Message{
		ID:           uuid.New(),
		ChatID:       chatID,
		SenderUserID: userID,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	dto := toMessageDTO(message)
	if err := s.publisher.Publish(ctx, realtime.ChatTopic(chatID), "ReceiveMessage", dto); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("message publish failed")
	}
	return &dto, nil
}

// authorizeChat loads the chat and verifies the user belongs to its match.
func (s *ChatService) authorizeChat(userID, chatID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Chat not found.")
		}
		return nil, apperrors.Internal(err)
	}

	var match models.Match
	if err := s.db.First(&match, "id = ?", chat.MatchID).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if match.UserAID != userID && match.UserBID != userID {
		return nil, apperrors.Forbidden("You are not a participant in this chat.")
	}
	return &chat, nil
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLimit {
		return content
	}
	return string(runes[:snippetLimit]) + "..."
}

func toMessageDTO(m models.Message) MessageDTO {
	return MessageDTO{
		ID:           m.ID,
		ChatID:       m.ChatID,
		SenderUserID: m.SenderUserID,
		Content:      m.Content,
		SentAt:       m.CreatedAt,
	}
}
