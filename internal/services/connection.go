package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/graph"
	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/pkg/models"
)

// ConnectionService handles partner requests, responses and accepted matches.
type ConnectionService struct {
	store    *PartnerStore
	pipeline *matching.Pipeline
	metrics  *MatchingMetrics
	fanout   *fanout
	logger   *logrus.Logger
	now      func() time.Time
}

func NewConnectionService(
	store *PartnerStore,
	pipeline *matching.Pipeline,
	events EventPublisher,
	mirror ConnectionMirror,
	cache CacheInvalidator,
	metrics *MatchingMetrics,
	logger *logrus.Logger,
) *ConnectionService {
	return &ConnectionService{
		store:    store,
		pipeline: pipeline,
		metrics:  metrics,
		fanout:   &fanout{events: events, graph: mirror, cache: cache, logger: logger},
		logger:   logger,
		now:      time.Now,
	}
}

// Connect sends a partner request from req.UserID to req.PartnerID. The pair's
// compatibility at request time is stored on the pending connection.
func (s *ConnectionService) Connect(ctx context.Context, req *models.ConnectRequest) error {
	status, err := s.store.GetConnectionStatus(ctx, req.UserID, req.PartnerID)
	if err != nil {
		return err
	}
	if status != "" {
		return fmt.Errorf("%w with status: %s", ErrConnectionExists, status)
	}

	user, err := s.store.GetProfile(ctx, req.UserID)
	if err != nil {
		return err
	}
	partner, err := s.store.GetProfile(ctx, req.PartnerID)
	if err != nil {
		return err
	}

	result, err := s.pipeline.Score(user, partner)
	if err != nil {
		return err
	}

	if err := s.store.CreateConnection(ctx, models.NewConnection{
		UserID:       req.UserID,
		PartnerID:    req.PartnerID,
		Message:      req.Message,
		Score:        result.OverallScore,
		MatchFactors: result.MatchFactors,
	}); err != nil {
		return err
	}

	now := s.now()
	s.metrics.RecordConnection("requested")
	s.fanout.publish(ctx, matching.InteractionRecord{
		ActorID:   req.UserID,
		TargetID:  req.PartnerID,
		Kind:      matching.InteractionConnectionRequest,
		Weight:    1.0,
		Timestamp: now,
	})
	s.fanout.mirror(ctx, graph.Edge{
		From:      req.UserID,
		To:        req.PartnerID,
		Status:    models.StatusPending,
		Score:     result.OverallScore,
		UpdatedAt: now,
	})
	s.fanout.invalidate(ctx, req.UserID, req.PartnerID)

	s.logger.WithFields(logrus.Fields{
		"user_id":             req.UserID,
		"partner_id":          req.PartnerID,
		"compatibility_score": result.OverallScore,
	}).Info("Partner connection requested")

	return nil
}

// Respond accepts or declines the request req.PartnerID sent to req.UserID.
func (s *ConnectionService) Respond(ctx context.Context, req *models.RespondRequest) error {
	var kind matching.InteractionKind
	weight := 0.0
	switch req.Response {
	case models.StatusAccepted:
		kind, weight = matching.InteractionAccepted, 2.0
	case models.StatusDeclined:
		kind, weight = matching.InteractionDeclined, -1.0
	default:
		return ErrInvalidResponse
	}

	score, err := s.store.RespondToConnection(ctx, req.UserID, req.PartnerID, req.Response)
	if err != nil {
		return err
	}

	now := s.now()
	s.metrics.RecordConnection(req.Response)
	s.fanout.publish(ctx, matching.InteractionRecord{
		ActorID:   req.UserID,
		TargetID:  req.PartnerID,
		Kind:      kind,
		Weight:    weight,
		Timestamp: now,
	})

	edges := []graph.Edge{{From: req.PartnerID, To: req.UserID, Status: req.Response, Score: score, UpdatedAt: now}}
	if req.Response == models.StatusAccepted {
		edges = append(edges, graph.Edge{From: req.UserID, To: req.PartnerID, Status: req.Response, Score: score, UpdatedAt: now})
	}
	s.fanout.mirror(ctx, edges...)
	s.fanout.invalidate(ctx, req.UserID, req.PartnerID)

	s.logger.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"partner_id": req.PartnerID,
		"response":   req.Response,
	}).Info("Partner connection answered")

	return nil
}

// Matches lists the accepted partners of userID.
func (s *ConnectionService) Matches(ctx context.Context, userID string) ([]models.Match, error) {
	return s.store.ListMatches(ctx, userID)
}
