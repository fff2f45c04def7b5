package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/pkg/models"
)

// Limiter is implemented by services.RateLimitService.
type Limiter interface {
	IsAllowed(ctx context.Context, userID, userTier string) (bool, *models.RateLimitInfo, error)
}

// RateLimit must run after Auth. Callers without a user are limited by client IP.
func RateLimit(limiter Limiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, userTier := GetUserFromContext(c)
		if userTier == "" {
			userTier = "free"
		}
		subject := userID
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}

		allowed, info, err := limiter.IsAllowed(c.Request.Context(), subject, userTier)
		if err != nil {
			// Requests pass while the limiter is unavailable
			logger.WithError(err).Error("Failed to check rate limit")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			logger.WithFields(logrus.Fields{
				"subject":   subject,
				"user_tier": userTier,
				"limit":     info.Limit,
			}).Warn("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded. Please try again later.",
				},
				"rate_limit": info,
			})
			return
		}

		c.Next()
	}
}
