package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/config"
	"rateapp/internal/models"
	"rateapp/internal/redis"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const matchThreshold = 7

// percentileBuckets are the advertised "Top N%" tiers, best first.
var percentileBuckets = []int{1, 5, 10, 15, 20, 25, 50}

type RatingService struct {
	db    *gorm.DB
	cache *redis.Client
	cfg   *config.Config
}

type CriterionScoreInput struct {
	CriterionID uuid.UUID `json:"criterionId"`
	Score       int       `json:"score"`
}

type SubmitRatingInput struct {
	RatedUserID uuid.UUID
	Scores      []CriterionScoreInput
	Comment     *string
}

type SubmitRatingResult struct {
	RatingID     uuid.UUID  `json:"ratingId"`
	Score        int        `json:"score"`
	MatchCreated bool       `json:"matchCreated"`
	MatchID      *uuid.UUID `json:"matchId,omitempty"`
}

type CriterionDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Weight     float64   `json:"weight"`
	IsRequired bool      `json:"isRequired"`
}

type RatingSummary struct {
	AverageScore    float64 `json:"averageScore"`
	TotalRatings    int64   `json:"totalRatings"`
	MatchCount      int64   `json:"matchCount"`
	PercentileLabel string  `json:"percentileLabel"`
}

type CriterionAverage struct {
	CriterionID uuid.UUID `json:"criterionId"`
	Name        string    `json:"name"`
	Average     float64   `json:"average"`
	Count       int64     `json:"count"`
}

type AggregatedScores struct {
	Criteria      []CriterionAverage `json:"criteria"`
	WeightedScore float64            `json:"weightedScore"`
	TotalRatings  int64              `json:"totalRatings"`
}

func NewRatingService(db *gorm.DB, cache *redis.Client, cfg *config.Config) *RatingService {
	return &RatingService{db: db, cache: cache, cfg: cfg}
}

// GetCriteria lists the active rating criteria, heaviest first.
func (s *RatingService) GetCriteria() ([]CriterionDTO, error) {
	var criteria []models.RatingCriterion
	err := s.db.Where("is_active = ?", true).Order("weight DESC").Find(&criteria).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := make([]CriterionDTO, 0, len(criteria))
	for _, c := range criteria {
		result = append(result, CriterionDTO{ID: c.ID, Name: c.Name, Weight: c.Weight, IsRequired: c.IsRequired})
	}
	return result, nil
}

// SubmitRating records (or replaces) the rater's scores for the rated
// user and creates a match when both directions reach the threshold.
func (s *RatingService) SubmitRating(ctx context.Context, raterID uuid.UUID, input SubmitRatingInput) (*SubmitRatingResult, error) {
	if raterID == input.RatedUserID {
		return nil, apperrors.InvalidState("You cannot rate yourself.")
	}

	var rated models.User
	if err := s.db.First(&rated, "id = ?", input.RatedUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, apperrors.Internal(err)
	}

	overall, err := s.computeOverall(input.Scores)
	if err != nil {
		return nil, err
	}

	var result SubmitRatingResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		rating := models.Rating{
			ID:          uuid.New(),
			RaterUserID: raterID,
			RatedUserID: input.RatedUserID,
			Score:       overall,
			Comment:     input.Comment,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := tx.Create(&rating).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			// Resubmission replaces the existing row in place.
			var existing models.Rating
			if err := tx.Where("rater_user_id = ? AND rated_user_id = ?", raterID, input.RatedUserID).
				First(&existing).Error; err != nil {
				return err
			}
			existing.Score = overall
			existing.Comment = input.Comment
			existing.UpdatedAt = time.Now().UTC()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			if err := tx.Where("rating_id = ?", existing.ID).Delete(&models.RatingDetail{}).Error; err != nil {
				return err
			}
			rating = existing
		}

		for _, sc := range input.Scores {
			detail := models.RatingDetail{
				ID:          uuid.New(),
				RatingID:    rating.ID,
				CriterionID: sc.CriterionID,
				Score:       sc.Score,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
		}

		result = SubmitRatingResult{RatingID: rating.ID, Score: overall}

		if overall < matchThreshold {
			return nil
		}
		var reciprocal models.Rating
		err := tx.Where("rater_user_id = ? AND rated_user_id = ? AND score >= ?",
			input.RatedUserID, raterID, matchThreshold).First(&reciprocal).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		matchID, created, err := ensureMatch(tx, raterID, input.RatedUserID)
		if err != nil {
			return err
		}
		result.MatchCreated = true
		result.MatchID = &matchID
		if created {
			logrus.WithFields(logrus.Fields{
				"match_id": matchID,
				"user_a":   raterID,
				"user_b":   input.RatedUserID,
			}).Info("match created")
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Internal(err)
	}

	s.invalidateSummary(ctx, input.RatedUserID)
	return &result, nil
}

// computeOverall validates the submitted criterion scores and collapses
// them to a single 1..10 value by weighted mean, rounded half to even.
func (s *RatingService) computeOverall(scores []CriterionScoreInput) (int, error) {
	if len(scores) == 0 {
		return 0, apperrors.InvalidState("At least one criterion score is required.")
	}

	var criteria []models.RatingCriterion
	if err := s.db.Where("is_active = ?", true).Find(&criteria).Error; err != nil {
		return 0, apperrors.Internal(err)
	}
	byID := make(map[uuid.UUID]models.RatingCriterion, len(criteria))
	for _, c := range criteria {
		byID[c.ID] = c
	}

	seen := make(map[uuid.UUID]bool, len(scores))
	var weightedSum, weightTotal float64
	for _, sc := range scores {
		c, ok := byID[sc.CriterionID]
		if !ok {
			return 0, apperrors.InvalidArgument("Unknown rating criterion.")
		}
		if seen[sc.CriterionID] {
			return 0, apperrors.InvalidArgument("Duplicate score for criterion %q.", c.Name)
		}
		seen[sc.CriterionID] = true
		if sc.Score < 1 || sc.Score > 10 {
			return 0, apperrors.InvalidArgument("Scores must be between 1 and 10.")
		}
		weightedSum += float64(sc.Score) * c.Weight
		weightTotal += c.Weight
	}

	for _, c := range criteria {
		if c.IsRequired && !seen[c.ID] {
			return 0, apperrors.InvalidState("Criterion %q is required.", c.Name)
		}
	}

	return int(math.RoundToEven(weightedSum / weightTotal)), nil
}

// ensureMatch inserts the canonical (userA, userB) pair, absorbing the
// race where the other direction's submit got there first.
func ensureMatch(tx *gorm.DB, a, b uuid.UUID) (uuid.UUID, bool, error) {
	userA, userB := models.OrderPair(a, b)

	match := models.Match{
		ID:        uuid.New(),
		UserAID:   userA,
		UserBID:   userB,
		CreatedAt: time.Now().UTC(),
	}
	err := tx.Create(&match).Error
	if err == nil {
		chat := models.Chat{ID: uuid.New(), MatchID: match.ID, CreatedAt: time.Now().UTC()}
		if err := tx.Create(&chat).Error; err != nil {
			return uuid.Nil, false, err
		}
		return match.ID, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return uuid.Nil, false, err
	}

	var existing models.Match
	if err := tx.Where("user_a_id = ? AND user_b_id = ?", userA, userB).First(&existing).Error; err != nil {
		return uuid.Nil, false, err
	}
	return existing.ID, false, nil
}

// GetSummary returns the rated user's headline numbers, served from the
// cache when fresh.
func (s *RatingService) GetSummary(ctx context.Context, userID uuid.UUID) (*RatingSummary, error) {
	key := summaryCacheKey(userID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached RatingSummary
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		} else if !redis.IsNil(err) {
			logrus.WithError(err).Warn("rating summary cache read failed")
		}
	}

	summary, err := s.buildSummary(userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cfg.SummaryCacheTTL); err != nil {
				logrus.WithError(err).Warn("rating summary cache write failed")
			}
		}
	}
	return summary, nil
}

func (s *RatingService) buildSummary(userID uuid.UUID) (*RatingSummary, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	err := s.db.Model(&models.Rating{}).
		Select("COALESCE(AVG(score), 0) AS avg, COUNT(*) AS count").
		Where("rated_user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var matches int64
	err = s.db.Model(&models.Match{}).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Count(&matches).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	summary := &RatingSummary{
		AverageScore: math.Round(row.Avg*100) / 100,
		TotalRatings: row.Count,
		MatchCount:   matches,
	}
	if row.Count == 0 {
		return summary, nil
	}

	label, err := s.percentileLabel(userID, row.Avg)
	if err != nil {
		return nil, err
	}
	summary.PercentileLabel = label
	return summary, nil
}

// percentileLabel places the user among all rated users by average
// score and snaps the share above them to the nearest advertised tier.
func (s *RatingService) percentileLabel(userID uuid.UUID, avg float64) (string, error) {
	var totalRated int64
	err := s.db.Model(&models.Rating{}).
		Distinct("rated_user_id").
		Count(&totalRated).Error
	if err != nil {
		return "", apperrors.Internal(err)
	}
	if totalRated == 0 {
		return "", nil
	}

	var higher int64
	err = s.db.Raw(`SELECT COUNT(*) FROM (
		SELECT rated_user_id FROM ratings
		WHERE rated_user_id != ?
		GROUP BY rated_user_id
		HAVING AVG(score) > ?
	) ranked`, userID, avg).Scan(&higher).Error
	if err != nil {
		return "", apperrors.Internal(err)
	}

	topPercent := float64(higher+1) / float64(totalRated) * 100
	best := percentileBuckets[len(percentileBuckets)-1]
	bestDiff := math.MaxFloat64
	for _, b := range percentileBuckets {
		diff := math.Abs(topPercent - float64(b))
		if diff < bestDiff {
			bestDiff = diff
			best = b
		}
	}
	return fmt.Sprintf("Top %d%%", best), nil
}

// GetAggregatedScores breaks the user's ratings down per criterion and
// recombines them with weights renormalized over the criteria that
// actually received scores.
func (s *RatingService) GetAggregatedScores(userID uuid.UUID) (*AggregatedScores, error) {
	var criteria []models.RatingCriterion
	if err := s.db.Where("is_active = ?", true).Order("weight DESC").Find(&criteria).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	var totalRatings int64
	err := s.db.Model(&models.Rating{}).Where("rated_user_id = ?", userID).Count(&totalRatings).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := &AggregatedScores{Criteria: make([]CriterionAverage, 0, len(criteria)), TotalRatings: totalRatings}

	var weightedSum, weightTotal float64
	for _, c := range criteria {
		var row struct {
			Avg   float64
			Count int64
		}
		err := s.db.Model(&models.RatingDetail{}).
			Select("COALESCE(AVG(rating_details.score), 0) AS avg, COUNT(*) AS count").
			Joins("JOIN ratings ON ratings.id = rating_details.rating_id").
			Where("ratings.rated_user_id = ? AND rating_details.criterion_id = ?", userID, c.ID).
			Scan(&row).Error
		if err != nil {
			return nil, apperrors.Internal(err)
		}

		avg := 0.0
		if row.Count > 0 {
			avg = math.Round(row.Avg*100) / 100
			weightedSum += row.Avg * c.Weight
			weightTotal += c.Weight
		}
		result.Criteria = append(result.Criteria, CriterionAverage{
			CriterionID: c.ID,
			Name:        c.Name,
			Average:     avg,
			Count:       row.Count,
		})
	}

	if weightTotal > 0 {
		result.WeightedScore = math.Round(weightedSum/weightTotal*100) / 100
	}
	return result, nil
}

func (s *RatingService) invalidateSummary(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey(userID)); err != nil {
		logrus.WithError(err).Warn("rating summary cache invalidation failed")
	}
}

func summaryCacheKey(userID uuid.UUID) string {
	return "rating:summary:" + userID.String()
}
