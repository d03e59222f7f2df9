package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken("secret", time.Hour, userID, "a@example.com", "Alice")
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.DisplayName)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, uuid.New(), "a@example.com", "Alice")
	require.NoError(t, err)

	_, err = ValidateToken("other", token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", -time.Minute, uuid.New(), "a@example.com", "Alice")
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	assert.Error(t, err)
}

func TestStripBearer(t *testing.T) {
	token, ok := StripBearer("Bearer abc123")
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)

	_, ok = StripBearer("abc123")
	assert.False(t, ok)

	_, ok = StripBearer("Bearer ")
	assert.False(t, ok)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hash)

	assert.True(t, VerifyPassword("hunter2!", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}
