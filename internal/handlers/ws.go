package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"rateapp/internal/middleware"
	"rateapp/internal/realtime"
	"rateapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WSHandler bridges websocket action frames to the domain services.
// Subscribe/unsubscribe frames never reach it; the hub handles those.
type WSHandler struct {
	hub      *realtime.Hub
	sessions *services.SessionService
	chats    *services.ChatService
}

type sessionFrame struct {
	SessionID uuid.UUID `json:"sessionId"`
	Score     int       `json:"score"`
	Notes     *string   `json:"notes"`
	Content   string    `json:"content"`
}

type chatFrame struct {
	ChatID  uuid.UUID `json:"chatId"`
	Content string    `json:"content"`
}

func NewWSHandler(hub *realtime.Hub, sessions *services.SessionService, chats *services.ChatService) *WSHandler {
	return &WSHandler{hub: hub, sessions: sessions, chats: chats}
}

func (h *WSHandler) Serve(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	realtime.HandleWebSocket(h.hub, c, userID, h.dispatch)
}

func (h *WSHandler) dispatch(ctx context.Context, userID uuid.UUID, action string, raw json.RawMessage) (interface{}, error) {
	switch action {
	case "join_session":
		var frame sessionFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, err
		}
		return nil, h.sessions.Join(ctx, userID, frame.SessionID)

	case "leave_session":
		var frame sessionFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, err
		}
		return nil, h.sessions.Leave(ctx, userID, frame.SessionID)

	case "submit_rating":
		var frame sessionFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, err
		}
		return nil, h.sessions.SubmitScore(ctx, userID, frame.SessionID, frame.Score, frame.Notes)

	case "update_rating":
		var frame sessionFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, err
		}
		return nil, h.sessions.UpdateScore(ctx, userID, frame.SessionID, frame.Score, frame.Notes)

	case "session_state":
		var frame sessionFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, err
		}
		return h.sessions.GetState(userID, frame.SessionID)

	case "send_session_message":
		var frame sessionFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, err
		}
		return h.sessions.SendMessage(ctx, userID, frame.SessionID, frame.Content)

	case "send_message":
		var frame chatFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, err
		}
		return h.chats.SendMessage(ctx, userID, frame.ChatID, frame.Content)

	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}
