package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/pkg/models"
)

const (
	ContextUserID   = "user_id"
	ContextUserTier = "user_tier"
	ContextAPIKey   = "api_key"
)

// TokenValidator is implemented by services.AuthService.
type TokenValidator interface {
	ValidateAPIKey(apiKey string) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
}

// Auth accepts either a signed token or a raw API key as a Bearer credential. API key
// callers may act for one user by sending X-User-ID; without it they are not bound
// to a user.
func Auth(authService TokenValidator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "MISSING_AUTHORIZATION", "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortUnauthorized(c, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		tokenString := tokenParts[1]

		// API keys never contain dots, signed tokens always do
		if !strings.Contains(tokenString, ".") {
			userTier, err := authService.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				abortUnauthorized(c, "INVALID_API_KEY", "Invalid API key")
				return
			}

			c.Set(ContextUserID, strings.TrimSpace(c.GetHeader("X-User-ID")))
			c.Set(ContextUserTier, userTier)
			c.Set(ContextAPIKey, tokenString)
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserTier, claims.UserTier)
		c.Set(ContextAPIKey, claims.APIKey)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// GetUserFromContext returns the authenticated user id and tier. The id is empty for
// API key callers that did not name a user.
func GetUserFromContext(c *gin.Context) (string, string) {
	return c.GetString(ContextUserID), c.GetString(ContextUserTier)
}
