package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondWith(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	Respond(c, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondStatusByKind(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"invalid state", InvalidState("bad"), http.StatusBadRequest},
		{"invalid argument", InvalidArgument("bad"), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("who"), http.StatusUnauthorized},
		{"conflict", Conflict("taken"), http.StatusConflict},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := respondWith(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRespondMessageBody(t *testing.T) {
	_, body := respondWith(t, NotFound("Photo not found."))
	assert.Equal(t, "Photo not found.", body["message"])
}

func TestRespondInternalHidesDetail(t *testing.T) {
	w, body := respondWith(t, Internal(errors.New("pq: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, body["message"], "connection refused")
}

func TestRespondWrapsUnknownError(t *testing.T) {
	w, _ := respondWith(t, errors.New("surprise"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestIsKind(t *testing.T) {
	err := NotFound("x")
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
}
