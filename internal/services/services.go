package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/config"
	"github.com/temcen/fitpair/internal/database"
	"github.com/temcen/fitpair/internal/graph"
	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/internal/messaging"
)

type Services struct {
	Auth            *AuthService
	Health          *HealthService
	RateLimit       *RateLimitService
	EventBus        *messaging.EventBus
	Store           *PartnerStore
	Recommendations *RecommendationService
	Connections     *ConnectionService
	Interactions    *InteractionService
	Metrics         *MatchingMetrics
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	scoring, err := cfg.Matching.ScoringConfig()
	if err != nil {
		return nil, err
	}

	authService := NewAuthService(cfg.Auth, logger, db.Redis.Hot)
	rateLimitService := NewRateLimitService(cfg.Auth.RateLimit, logger, db.Redis.Hot)

	eventBus := messaging.NewEventBus(cfg, logger)
	healthService := NewHealthService(logger, db, eventBus)

	pipeline := matching.NewPipeline(scoring, matching.WithWorkers(cfg.Matching.Workers))
	store := NewPartnerStore(db.PG, logger)
	metrics := NewMatchingMetrics(prometheus.DefaultRegisterer)
	connectionGraph := graph.NewConnectionGraph(db.Neo4j, cfg.Neo4j.Database, logger)

	recommendations := NewRecommendationService(
		store, pipeline, NewRedisRecommendationCache(db.Redis.Warm), metrics, cfg.Matching, logger,
	)
	connections := NewConnectionService(store, pipeline, eventBus, connectionGraph, recommendations, metrics, logger)
	interactions := NewInteractionService(store, eventBus, connectionGraph, recommendations, metrics, logger)

	return &Services{
		Auth:            authService,
		Health:          healthService,
		RateLimit:       rateLimitService,
		EventBus:        eventBus,
		Store:           store,
		Recommendations: recommendations,
		Connections:     connections,
		Interactions:    interactions,
		Metrics:         metrics,
	}, nil
}

// Close releases the Kafka connections.
func (s *Services) Close() error {
	return s.EventBus.Close()
}
