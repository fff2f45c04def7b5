package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/temcen/fitpair/internal/graph"
	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/pkg/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrConnectionExists   = errors.New("connection already exists")
	ErrConnectionNotFound = errors.New("connection request not found")
	ErrInvalidResponse    = errors.New("response must be accepted or declined")
	ErrInvalidInteraction = errors.New("invalid interaction type")
)

// DatabaseQuerier is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EventPublisher publishes interaction events to the stream.
type EventPublisher interface {
	PublishInteraction(ctx context.Context, event models.InteractionEvent) error
}

// ConnectionMirror keeps the partner graph in sync with stored connections.
type ConnectionMirror interface {
	MergeConnection(ctx context.Context, edge graph.Edge) error
}

// RecommendationServiceInterface defines partner recommendation and search operations
type RecommendationServiceInterface interface {
	GetRecommendations(ctx context.Context, userID string, limit int) ([]matching.RankedRecommendation, bool, error)
	SearchPartners(ctx context.Context, userID string, filters models.SearchFilters) ([]matching.RankedRecommendation, error)
	InvalidateUser(ctx context.Context, userID string) error
}

// ConnectionServiceInterface defines partner connection operations
type ConnectionServiceInterface interface {
	Connect(ctx context.Context, req *models.ConnectRequest) error
	Respond(ctx context.Context, req *models.RespondRequest) error
	Matches(ctx context.Context, userID string) ([]models.Match, error)
}

// InteractionServiceInterface defines interaction recording
type InteractionServiceInterface interface {
	Record(ctx context.Context, req *models.InteractionRequest) (*matching.InteractionRecord, string, error)
}
