package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/internal/services"
	"github.com/temcen/fitpair/pkg/models"
)

// PartnerHandler serves recommendations, search and the connection workflow.
type PartnerHandler struct {
	logger          *logrus.Logger
	recommendations services.RecommendationServiceInterface
	connections     services.ConnectionServiceInterface
	validator       *validator.Validate
	defaultLimit    int
}

func NewPartnerHandler(
	logger *logrus.Logger,
	recommendations services.RecommendationServiceInterface,
	connections services.ConnectionServiceInterface,
	defaultLimit int,
) *PartnerHandler {
	if defaultLimit <= 0 {
		defaultLimit = matching.DefaultLimit
	}
	return &PartnerHandler{
		logger:          logger,
		recommendations: recommendations,
		connections:     connections,
		validator:       validator.New(),
		defaultLimit:    defaultLimit,
	}
}

// Recommendations handles GET /partners/recommendations/:userId?limit=
func (h *PartnerHandler) Recommendations(c *gin.Context) {
	userID := c.Param("userId")
	if !authorizeUser(c, userID) {
		return
	}

	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondValidationError(c, "INVALID_LIMIT", "Limit must be an integer", err)
			return
		}
		limit = parsed
	}

	recs, cacheHit, err := h.recommendations.GetRecommendations(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, h.logger, err, "get recommendations")
		return
	}

	c.JSON(http.StatusOK, RecommendationsResponse{
		Success:         true,
		Recommendations: nonNilRecommendations(recs),
		Total:           len(recs),
		CacheHit:        cacheHit,
	})
}

// Search handles POST /partners/search
func (h *PartnerHandler) Search(c *gin.Context) {
	var req models.SearchRequest
	if !h.bind(c, &req) || !authorizeUser(c, req.UserID) {
		return
	}

	results, err := h.recommendations.SearchPartners(c.Request.Context(), req.UserID, req.Filters)
	if err != nil {
		respondServiceError(c, h.logger, err, "search partners")
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Success:  true,
		Partners: nonNilRecommendations(results),
		Total:    len(results),
	})
}

// Connect handles POST /partners/connect
func (h *PartnerHandler) Connect(c *gin.Context) {
	var req models.ConnectRequest
	if !h.bind(c, &req) || !authorizeUser(c, req.UserID) {
		return
	}

	if err := h.connections.Connect(c.Request.Context(), &req); err != nil {
		respondServiceError(c, h.logger, err, "send connection request")
		return
	}

	c.JSON(http.StatusCreated, models.MessageResponse{
		Success: true,
		Message: "Connection request sent",
	})
}

// Respond handles POST /partners/respond
func (h *PartnerHandler) Respond(c *gin.Context) {
	var req models.RespondRequest
	if !h.bind(c, &req) || !authorizeUser(c, req.UserID) {
		return
	}

	if err := h.connections.Respond(c.Request.Context(), &req); err != nil {
		respondServiceError(c, h.logger, err, "respond to connection request")
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Connection " + req.Response,
	})
}

// Matches handles GET /partners/matches/:userId
func (h *PartnerHandler) Matches(c *gin.Context) {
	userID := c.Param("userId")
	if !authorizeUser(c, userID) {
		return
	}

	matches, err := h.connections.Matches(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "list matches")
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}

	c.JSON(http.StatusOK, models.MatchesResponse{
		Success: true,
		Matches: matches,
		Total:   len(matches),
	})
}

func (h *PartnerHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.WithError(err).Debug("Failed to bind partner request")
		respondValidationError(c, "INVALID_REQUEST", "Invalid request format", err)
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		respondValidationError(c, "VALIDATION_FAILED", "Request validation failed", err)
		return false
	}
	return true
}

func nonNilRecommendations(recs []matching.RankedRecommendation) []matching.RankedRecommendation {
	if recs == nil {
		return []matching.RankedRecommendation{}
	}
	return recs
}
