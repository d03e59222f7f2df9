package handlers

import (
	"net/http"

	"rateapp/internal/apperrors"
	"rateapp/internal/middleware"
	"rateapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RatingHandler struct {
	ratings *services.RatingService
}

type criterionScoreRequest struct {
	CriterionID uuid.UUID `json:"criterionId" binding:"required"`
	Score       int       `json:"score" binding:"required,min=1,max=10"`
}

type submitRatingRequest struct {
	RatedUserID uuid.UUID               `json:"ratedUserId" binding:"required"`
	Scores      []criterionScoreRequest `json:"scores" binding:"required,min=1,dive"`
	Comment     *string                 `json:"comment" binding:"omitempty,max=500"`
}

func NewRatingHandler(ratings *services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

func (h *RatingHandler) GetCriteria(c *gin.Context) {
	criteria, err := h.ratings.GetCriteria()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, criteria)
}

func (h *RatingHandler) Submit(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req submitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid request body: %v", err))
		return
	}

	scores := make([]services.CriterionScoreInput, 0, len(req.Scores))
	seen := make(map[uuid.UUID]bool, len(req.Scores))
	for _, s := range req.Scores {
		if seen[s.CriterionID] {
			apperrors.Respond(c, apperrors.InvalidArgument("Duplicate criterion in submission."))
			return
		}
		seen[s.CriterionID] = true
		scores = append(scores, services.CriterionScoreInput{CriterionID: s.CriterionID, Score: s.Score})
	}

	result, err := h.ratings.SubmitRating(c.Request.Context(), userID, services.SubmitRatingInput{
		RatedUserID: req.RatedUserID,
		Scores:      scores,
		Comment:     req.Comment,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RatingHandler) GetSummary(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid user id."))
		return
	}

	summary, err := h.ratings.GetSummary(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *RatingHandler) GetAggregatedScores(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidArgument("Invalid user id."))
		return
	}

	scores, err := h.ratings.GetAggregatedScores(userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}
