package handlers

import (
	"net/http"

	"rateapp/internal/apperrors"
	"rateapp/internal/middleware"
	"rateapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SessionHandler struct {
	sessions *services.SessionService
}

type createSessionRequest struct {
	CandidateID uuid.UUID `json:"candidateId" binding:"required"`
	Title       *string   `json:"title" binding:"omitempty,max=200"`
}

type sessionScoreRequest struct {
	Score int     `json:"score" binding:"required,min=1,max=10"`
	Notes *string `json:"notes" binding:"omitempty,max=1000"`
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	session, err := h.sessions.Create(userID, req.CandidateID, req.Title)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) GetState(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	state, err := h.sessions.GetState(userID, sessionID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) Join(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.Join(c.Request.Context(), userID, sessionID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Leave(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.Leave(c.Request.Context(), userID, sessionID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) SubmitScore(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req sessionScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	if err := h.sessions.SubmitScore(c.Request.Context(), userID, sessionID, req.Score, req.Notes); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) UpdateScore(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req sessionScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	if err := h.sessions.UpdateScore(c.Request.Context(), userID, sessionID, req.Score, req.Notes); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) GetMessages(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	messages, err := h.sessions.GetMessages(userID, sessionID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *SessionHandler) SendMessage(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	message, err := h.sessions.SendMessage(c.Request.Context(), userID, sessionID, req.Content)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *SessionHandler) Lock(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.Lock(userID, sessionID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Finalize(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.Finalize(userID, sessionID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid session id."))
		return uuid.Nil, false
	}
	return id, true
}
