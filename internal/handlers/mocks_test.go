package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/internal/middleware"
	"github.com/temcen/fitpair/internal/services"
	"github.com/temcen/fitpair/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// asUser simulates the auth middleware for userID.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserTier, "free")
	}
}

type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) GetRecommendations(ctx context.Context, userID string, limit int) ([]matching.RankedRecommendation, bool, error) {
	args := m.Called(ctx, userID, limit)
	recs, _ := args.Get(0).([]matching.RankedRecommendation)
	return recs, args.Bool(1), args.Error(2)
}

func (m *MockRecommendationService) SearchPartners(ctx context.Context, userID string, filters models.SearchFilters) ([]matching.RankedRecommendation, error) {
	args := m.Called(ctx, userID, filters)
	recs, _ := args.Get(0).([]matching.RankedRecommendation)
	return recs, args.Error(1)
}

func (m *MockRecommendationService) InvalidateUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockConnectionService struct {
	mock.Mock
}

func (m *MockConnectionService) Connect(ctx context.Context, req *models.ConnectRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockConnectionService) Respond(ctx context.Context, req *models.RespondRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockConnectionService) Matches(ctx context.Context, userID string) ([]models.Match, error) {
	args := m.Called(ctx, userID)
	matches, _ := args.Get(0).([]models.Match)
	return matches, args.Error(1)
}

type MockInteractionService struct {
	mock.Mock
}

func (m *MockInteractionService) Record(ctx context.Context, req *models.InteractionRequest) (*matching.InteractionRecord, string, error) {
	args := m.Called(ctx, req)
	rec, _ := args.Get(0).(*matching.InteractionRecord)
	return rec, args.String(1), args.Error(2)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) *services.HealthStatus {
	args := m.Called(ctx)
	return args.Get(0).(*services.HealthStatus)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueToken(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}
