package middleware

import (
	"rateapp/internal/apperrors"
	"rateapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperrors.Respond(c, apperrors.Unauthenticated("Authorization header required."))
			c.Abort()
			return
		}

		tokenString, ok := utils.StripBearer(authHeader)
		if !ok {
			apperrors.Respond(c, apperrors.Unauthenticated("Bearer token required."))
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			apperrors.Respond(c, apperrors.Unauthenticated("Invalid token."))
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID reads the authenticated user from the request context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
