package handlers

import (
	"net/http"
	"strconv"

	"rateapp/internal/apperrors"
	"rateapp/internal/middleware"
	"rateapp/internal/services"

	"github.com/gin-gonic/gin"
)

type CandidateHandler struct {
	candidates      *services.CandidateService
	defaultPageSize int
}

func NewCandidateHandler(candidates *services.CandidateService, defaultPageSize int) *CandidateHandler {
	return &CandidateHandler{candidates: candidates, defaultPageSize: defaultPageSize}
}

func (h *CandidateHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	pageSize := h.defaultPageSize
	if raw := c.Query("pageSize"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			apperrors.Respond(c, apperrors.InvalidArgument("pageSize must be a number."))
			return
		}
		pageSize = parsed
	}

	candidates, err := h.candidates.GetCandidates(userID, pageSize)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}
