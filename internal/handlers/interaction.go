package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/services"
	"github.com/temcen/fitpair/pkg/models"
)

type InteractionHandler struct {
	logger       *logrus.Logger
	interactions services.InteractionServiceInterface
	validator    *validator.Validate
}

func NewInteractionHandler(logger *logrus.Logger, interactions services.InteractionServiceInterface) *InteractionHandler {
	return &InteractionHandler{
		logger:       logger,
		interactions: interactions,
		validator:    validator.New(),
	}
}

// Record handles POST /interactions
func (h *InteractionHandler) Record(c *gin.Context) {
	var req models.InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Debug("Failed to bind interaction request")
		respondValidationError(c, "INVALID_REQUEST", "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		respondValidationError(c, "VALIDATION_FAILED", "Request validation failed", err)
		return
	}

	if !authorizeUser(c, req.UserID) {
		return
	}

	record, id, err := h.interactions.Record(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err, "record interaction")
		return
	}

	c.JSON(http.StatusCreated, InteractionResponse{
		Success:       true,
		InteractionID: id,
		Interaction:   *record,
	})
}
