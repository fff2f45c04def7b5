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

// InteractionService records explicit user-to-user interactions.
type InteractionService struct {
	store   *PartnerStore
	metrics *MatchingMetrics
	fanout  *fanout
	logger  *logrus.Logger
	now     func() time.Time
}

func NewInteractionService(
	store *PartnerStore,
	events EventPublisher,
	mirror ConnectionMirror,
	cache CacheInvalidator,
	metrics *MatchingMetrics,
	logger *logrus.Logger,
) *InteractionService {
	return &InteractionService{
		store:   store,
		metrics: metrics,
		fanout:  &fanout{events: events, graph: mirror, cache: cache, logger: logger},
		logger:  logger,
		now:     time.Now,
	}
}

// Record stores the interaction and returns it with its id. The value defaults to 1.0.
func (s *InteractionService) Record(ctx context.Context, req *models.InteractionRequest) (*matching.InteractionRecord, string, error) {
	kind := matching.InteractionKind(req.InteractionType)
	if !kind.Valid() {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidInteraction, req.InteractionType)
	}

	weight := 1.0
	if req.InteractionValue != nil {
		weight = *req.InteractionValue
	}

	rec := matching.InteractionRecord{
		ActorID:   req.UserID,
		TargetID:  req.TargetUserID,
		Kind:      kind,
		Weight:    weight,
		Timestamp: s.now(),
	}

	id, err := s.store.RecordInteraction(ctx, rec)
	if err != nil {
		return nil, "", err
	}

	s.metrics.RecordInteraction(string(kind))
	s.fanout.publish(ctx, rec)
	if kind == matching.InteractionBlock {
		s.fanout.mirror(ctx, graph.Edge{
			From:      rec.ActorID,
			To:        rec.TargetID,
			Status:    models.StatusBlocked,
			UpdatedAt: rec.Timestamp,
		})
	}
	s.fanout.invalidate(ctx, rec.ActorID)

	s.logger.WithFields(logrus.Fields{
		"user_id":          rec.ActorID,
		"target_user_id":   rec.TargetID,
		"interaction_type": kind,
		"value":            weight,
	}).Info("Recorded partner interaction")

	return &rec, id, nil
}
