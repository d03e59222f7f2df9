package handlers

import (
	"net/http"

	"rateapp/internal/apperrors"
	"rateapp/internal/middleware"
	"rateapp/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
}

type updateProfileRequest struct {
	DisplayName string  `json:"displayName" binding:"required,min=1,max=100"`
	Latitude    float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" binding:"min=-180,max=180"`
}

type preferencesRequest struct {
	PreferredGender  int     `json:"preferredGender" binding:"min=0,max=1"`
	MinAge           int     `json:"minAge" binding:"required,min=18,max=100"`
	MaxAge           int     `json:"maxAge" binding:"required,min=18,max=100,gtefield=MinAge"`
	MaxDistanceMiles float64 `json:"maxDistanceMiles" binding:"required,gt=0,max=500"`
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	profile, err := h.users.GetProfile(userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	profile, err := h.users.UpdateProfile(userID, req.DisplayName, req.Latitude, req.Longitude)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) GetPreferences(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	prefs, err := h.users.GetPreferences(userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	prefs, err := h.users.UpsertPreferences(userID, services.PreferenceDTO{
		PreferredGender:  req.PreferredGender,
		MinAge:           req.MinAge,
		MaxAge:           req.MaxAge,
		MaxDistanceMiles: req.MaxDistanceMiles,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
