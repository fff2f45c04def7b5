package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/graph"
	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/pkg/models"
)

// CacheInvalidator drops cached recommendation lists of one user.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// fanout propagates a stored write to the event stream, the partner graph and the
// recommendation cache. Failures are logged and never surface to the caller; any of
// the three targets may be nil.
type fanout struct {
	events EventPublisher
	graph  ConnectionMirror
	cache  CacheInvalidator
	logger *logrus.Logger
}

func (f *fanout) publish(ctx context.Context, rec matching.InteractionRecord) {
	if f.events == nil {
		return
	}
	err := f.events.PublishInteraction(ctx, models.InteractionEvent{
		ActorID:   rec.ActorID,
		TargetID:  rec.TargetID,
		Kind:      string(rec.Kind),
		Weight:    rec.Weight,
		Timestamp: rec.Timestamp,
	})
	if err != nil {
		f.logger.WithError(err).WithFields(logrus.Fields{
			"actor_id":         rec.ActorID,
			"target_id":        rec.TargetID,
			"interaction_type": rec.Kind,
		}).Warn("Failed to publish interaction event")
	}
}

func (f *fanout) mirror(ctx context.Context, edges ...graph.Edge) {
	if f.graph == nil {
		return
	}
	for _, edge := range edges {
		if err := f.graph.MergeConnection(ctx, edge); err != nil {
			f.logger.WithError(err).WithFields(logrus.Fields{
				"from":   edge.From,
				"to":     edge.To,
				"status": edge.Status,
			}).Warn("Failed to mirror connection into graph")
		}
	}
}

func (f *fanout) invalidate(ctx context.Context, userIDs ...string) {
	if f.cache == nil {
		return
	}
	for _, userID := range userIDs {
		if err := f.cache.InvalidateUser(ctx, userID); err != nil {
			f.logger.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached recommendations")
		}
	}
}
