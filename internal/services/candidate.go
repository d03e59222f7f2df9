package services

import (
	"errors"
	"math"
	"sort"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	earthRadiusMiles = 3958.8
	milesPerDegree   = 69.0
)

type CandidateService struct {
	db       *gorm.DB
	photos   *PhotoService
	overscan int
}

type CandidateDTO struct {
	ID            uuid.UUID `json:"id"`
	DisplayName   string    `json:"displayName"`
	Age           int       `json:"age"`
	Gender        int       `json:"gender"`
	DistanceMiles float64   `json:"distanceMiles"`
	PhotoURLs     []string  `json:"photoUrls"`
}

func NewCandidateService(db *gorm.DB, photos *PhotoService, overscan int) *CandidateService {
	if overscan < 1 {
		overscan = 5
	}
	return &CandidateService{db: db, photos: photos, overscan: overscan}
}

// GetCandidates returns unrated, photo-bearing, age/gender-compatible
// users within the requester's max distance, nearest first.
func (s *CandidateService) GetCandidates(userID uuid.UUID, pageSize int) ([]CandidateDTO, error) {
	if pageSize < 1 || pageSize > 50 {
		return nil, apperrors.InvalidArgument("pageSize must be between 1 and 50.")
	}

	var me models.User
	if err := s.db.First(&me, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, apperrors.Internal(err)
	}

	var pref models.Preference
	if err := s.db.Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidState("Preferences not configured.")
		}
		return nil, apperrors.Internal(err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	minDob := today.AddDate(-pref.MaxAge-1, 0, 1)
	maxDob := today.AddDate(-pref.MinAge, 0, 0)

	// Cheap bounding box before the exact great-circle pass. Longitude
	// degrees shrink by cos(latitude).
	latDelta := pref.MaxDistanceMiles / milesPerDegree
	lonDelta := pref.MaxDistanceMiles / (milesPerDegree * math.Cos(me.Latitude*math.Pi/180.0))

	var candidates []models.User
	err := s.db.
		Where("id != ?", userID).
		Where("gender = ?", pref.PreferredGender).
		Where("birthdate >= ? AND birthdate <= ?", minDob, maxDob).
		Where("id NOT IN (SELECT rated_user_id FROM ratings WHERE rater_user_id = ?)", userID).
		Where("id IN (SELECT DISTINCT user_id FROM photos)").
		Where("latitude >= ? AND latitude <= ?", me.Latitude-latDelta, me.Latitude+latDelta).
		Where("longitude >= ? AND longitude <= ?", me.Longitude-lonDelta, me.Longitude+lonDelta).
		Limit(pageSize * s.overscan).
		Find(&candidates).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	type scored struct {
		user     models.User
		distance float64
	}
	within := make([]scored, 0, len(candidates))
	for _, u := range candidates {
		d := haversineMiles(me.Latitude, me.Longitude, u.Latitude, u.Longitude)
		if d <= pref.MaxDistanceMiles {
			within = append(within, scored{user: u, distance: d})
		}
	}

	sort.Slice(within, func(i, j int) bool { return within[i].distance < within[j].distance })
	if len(within) > pageSize {
		within = within[:pageSize]
	}

	now := time.Now()
	result := make([]CandidateDTO, 0, len(within))
	for _, c := range within {
		photos, err := s.photos.ListPhotos(c.user.ID)
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(photos))
		for _, p := range photos {
			urls = append(urls, p.URL)
		}

		result = append(result, CandidateDTO{
			ID:            c.user.ID,
			DisplayName:   c.user.DisplayName,
			Age:           c.user.Age(now),
			Gender:        c.user.Gender,
			DistanceMiles: math.Round(c.distance*10) / 10,
			PhotoURLs:     urls,
		})
	}
	return result, nil
}

// haversineMiles computes the great-circle distance between two points
// using the mean Earth radius in miles.
func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Pow(math.Sin(dLon/2), 2)
	return earthRadiusMiles * 2 * math.Asin(math.Sqrt(a))
}

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }
