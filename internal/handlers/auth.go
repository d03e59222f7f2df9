package handlers

import (
	"net/http"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *services.AuthService
}

type registerRequest struct {
	Email       string    `json:"email" binding:"required,email"`
	Password    string    `json:"password" binding:"required,min=8"`
	DisplayName string    `json:"displayName" binding:"required,notblank,max=100"`
	Gender      int       `json:"gender" binding:"min=0,max=1"`
	Birthdate   time.Time `json:"birthdate" binding:"required"`
	Latitude    float64   `json:"latitude" binding:"min=-90,max=90"`
	Longitude   float64   `json:"longitude" binding:"min=-180,max=180"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	result, err := h.auth.Register(services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Gender:      req.Gender,
		Birthdate:   req.Birthdate,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	result, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
