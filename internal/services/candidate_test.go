package services

import (
	"testing"
	"time"

	"rateapp/internal/apperrors"
	"rateapp/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCandidateService(t *testing.T, db *gorm.DB) *CandidateService {
	t.Helper()
	photos := NewPhotoService(db, nil, testConfig())
	return NewCandidateService(db, photos, 5)
}

func TestGetCandidatesFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	svc := newCandidateService(t, db)

	me := createUser(t, db, "me", models.GenderMan, 28, 40.0, -74.0)
	createPreference(t, db, me.ID, models.GenderWoman, 18, 35, 25.0)

	near := createUser(t, db, "near", models.GenderWoman, 27, 40.1, -74.0)
	addPhoto(t, db, near.ID)
	nearer := createUser(t, db, "nearer", models.GenderWoman, 30, 40.05, -74.0)
	addPhoto(t, db, nearer.ID)

	// Excluded: ~69 miles away, beyond the 25-mile preference.
	far := createUser(t, db, "far", models.GenderWoman, 27, 41.0, -74.0)
	addPhoto(t, db, far.ID)

	// Excluded: wrong gender.
	guy := createUser(t, db, "guy", models.GenderMan, 27, 40.1, -74.0)
	addPhoto(t, db, guy.ID)

	// Excluded: no photos.
	createUser(t, db, "photoless", models.GenderWoman, 27, 40.1, -74.0)

	// Excluded: outside the age window.
	older := createUser(t, db, "older", models.GenderWoman, 40, 40.1, -74.0)
	addPhoto(t, db, older.ID)

	result, err := svc.GetCandidates(me.ID, 10)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "nearer", result[0].DisplayName)
	assert.Equal(t, "near", result[1].DisplayName)
	assert.Less(t, result[0].DistanceMiles, result[1].DistanceMiles)
	assert.NotEmpty(t, result[0].PhotoURLs)
}

func TestGetCandidatesExcludesAlreadyRated(t *testing.T) {
	db := setupTestDB(t)
	svc := newCandidateService(t, db)

	me := createUser(t, db, "me", models.GenderMan, 28, 40.0, -74.0)
	createPreference(t, db, me.ID, models.GenderWoman, 18, 35, 25.0)

	rated := createUser(t, db, "rated", models.GenderWoman, 27, 40.05, -74.0)
	addPhoto(t, db, rated.ID)
	fresh := createUser(t, db, "fresh", models.GenderWoman, 27, 40.1, -74.0)
	addPhoto(t, db, fresh.ID)

	require.NoError(t, db.Create(&models.Rating{
		ID:          uuid.New(),
		RaterUserID: me.ID,
		RatedUserID: rated.ID,
		Score:       5,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}).Error)

	result, err := svc.GetCandidates(me.ID, 10)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "fresh", result[0].DisplayName)
}

func TestGetCandidatesDistanceRounding(t *testing.T) {
	db := setupTestDB(t)
	svc := newCandidateService(t, db)

	me := createUser(t, db, "me", models.GenderMan, 28, 40.0, -74.0)
	createPreference(t, db, me.ID, models.GenderWoman, 18, 35, 25.0)

	other := createUser(t, db, "other", models.GenderWoman, 27, 40.1, -74.0)
	addPhoto(t, db, other.ID)

	result, err := svc.GetCandidates(me.ID, 10)
	require.NoError(t, err)
	require.Len(t, result, 1)

	// One decimal place; 0.1 degrees of latitude is about 6.9 miles.
	assert.InDelta(t, 6.9, result[0].DistanceMiles, 0.2)
	assert.Equal(t, result[0].DistanceMiles, float64(int(result[0].DistanceMiles*10))/10)
}

func TestGetCandidatesCapsAtPageSize(t *testing.T) {
	db := setupTestDB(t)
	svc := newCandidateService(t, db)

	me := createUser(t, db, "me", models.GenderMan, 28, 40.0, -74.0)
	createPreference(t, db, me.ID, models.GenderWoman, 18, 35, 25.0)

	for i := 0; i < 5; i++ {
		u := createUser(t, db, "candidate"+string(rune('a'+i)), models.GenderWoman, 27, 40.0+float64(i)*0.01, -74.0)
		addPhoto(t, db, u.ID)
	}

	result, err := svc.GetCandidates(me.ID, 3)
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestGetCandidatesPageSizeValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newCandidateService(t, db)
	me := createUser(t, db, "me", models.GenderMan, 28, 40.0, -74.0)
	createPreference(t, db, me.ID, models.GenderWoman, 18, 35, 25.0)

	_, err := svc.GetCandidates(me.ID, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))

	_, err = svc.GetCandidates(me.ID, 51)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))
}

func TestHaversineKnownDistance(t *testing.T) {
	// New York to Los Angeles, roughly 2445 miles.
	d := haversineMiles(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 2445, d, 10)

	assert.Zero(t, haversineMiles(40.0, -74.0, 40.0, -74.0))
}

func TestGetCandidatesMatchedUserStillListed(t *testing.T) {
	// A match alone does not remove someone from the feed; only a
	// rating by the requester does.
	db := setupTestDB(t)
	svc := newCandidateService(t, db)

	me := createUser(t, db, "me", models.GenderMan, 28, 40.0, -74.0)
	createPreference(t, db, me.ID, models.GenderWoman, 18, 35, 25.0)

	other := createUser(t, db, "other", models.GenderWoman, 27, 40.05, -74.0)
	addPhoto(t, db, other.ID)

	a, b := models.OrderPair(me.ID, other.ID)
	require.NoError(t, db.Create(&models.Match{ID: uuid.New(), UserAID: a, UserBID: b, CreatedAt: time.Now().UTC()}).Error)

	result, err := svc.GetCandidates(me.ID, 10)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}
