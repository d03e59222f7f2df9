package handlers

import (
	"net/http"

	"rateapp/internal/apperrors"
	"rateapp/internal/middleware"
	"rateapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	chats *services.ChatService
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required,notblank,max=2000"`
}

func NewChatHandler(chats *services.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

func (h *ChatHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	chats, err := h.chats.ListChats(userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid chat id."))
		return
	}

	messages, err := h.chats.GetMessages(userID, chatID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid chat id."))
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	message, err := h.chats.SendMessage(c.Request.Context(), userID, chatID, req.Content)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}
