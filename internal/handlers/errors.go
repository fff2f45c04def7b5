package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/middleware"
	"github.com/temcen/fitpair/internal/services"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidationError(c *gin.Context, code, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": err.Error(),
		},
	})
}

// respondServiceError maps service sentinels to HTTP statuses. Anything unknown is
// logged and reported as a 500.
func respondServiceError(c *gin.Context, logger *logrus.Logger, err error, action string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, services.ErrConnectionExists):
		respondError(c, http.StatusConflict, "CONNECTION_EXISTS", "Connection already exists")
	case errors.Is(err, services.ErrConnectionNotFound):
		respondError(c, http.StatusNotFound, "CONNECTION_NOT_FOUND", "Connection request not found")
	case errors.Is(err, services.ErrInvalidResponse):
		respondError(c, http.StatusBadRequest, "INVALID_RESPONSE", "Response must be accepted or declined")
	case errors.Is(err, services.ErrInvalidInteraction):
		respondError(c, http.StatusBadRequest, "INVALID_INTERACTION", "Invalid interaction type")
	case errors.Is(err, context.DeadlineExceeded):
		logger.WithError(err).Warnf("Timed out while trying to %s", action)
		respondError(c, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out")
	default:
		logger.WithError(err).Errorf("Failed to %s", action)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action)
	}
}

// authorizeUser rejects requests made on behalf of another user. Callers that are not
// bound to a user may act for anyone.
func authorizeUser(c *gin.Context, userID string) bool {
	authenticated, _ := middleware.GetUserFromContext(c)
	if authenticated == "" || authenticated == userID {
		return true
	}
	respondError(c, http.StatusForbidden, "FORBIDDEN", "Cannot act on behalf of another user")
	return false
}
