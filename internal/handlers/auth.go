package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/services"
	"github.com/temcen/fitpair/pkg/models"
)

// TokenIssuer is implemented by services.AuthService.
type TokenIssuer interface {
	IssueToken(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error)
}

type AuthHandler struct {
	logger    *logrus.Logger
	issuer    TokenIssuer
	validator *validator.Validate
}

func NewAuthHandler(logger *logrus.Logger, issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		issuer:    issuer,
		validator: validator.New(),
	}
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "INVALID_REQUEST", "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondValidationError(c, "VALIDATION_FAILED", "Request validation failed", err)
		return
	}

	resp, err := h.issuer.IssueToken(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			respondError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
			return
		}
		respondServiceError(c, h.logger, err, "issue token")
		return
	}

	c.JSON(http.StatusOK, resp)
}
