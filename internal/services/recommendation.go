package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/config"
	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/pkg/models"
)

// RecommendationService loads engine inputs from the store, runs the matching
// pipeline and caches the ranked lists.
type RecommendationService struct {
	store    *PartnerStore
	pipeline *matching.Pipeline
	cache    RecommendationCache
	metrics  *MatchingMetrics
	config   config.MatchingConfig
	logger   *logrus.Logger
	now      func() time.Time
}

// NewRecommendationService wires the service. cache may be nil to disable caching.
func NewRecommendationService(
	store *PartnerStore,
	pipeline *matching.Pipeline,
	cache RecommendationCache,
	metrics *MatchingMetrics,
	cfg config.MatchingConfig,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		store:    store,
		pipeline: pipeline,
		cache:    cache,
		metrics:  metrics,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// GetRecommendations returns up to limit ranked partners for userID and whether the
// list came from the cache. A negative limit is treated as zero.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID string, limit int) ([]matching.RankedRecommendation, bool, error) {
	start := s.now()
	if limit <= 0 {
		return []matching.RankedRecommendation{}, false, nil
	}

	if cached, ok := s.getCached(ctx, userID, limit); ok {
		s.metrics.ObserveRecommendation(true, len(cached), s.now().Sub(start))
		s.logger.WithField("user_id", userID).Debug("Partner recommendations cache hit")
		return cached, true, nil
	}

	requester, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	activeSince := start.Add(-s.config.ActiveWindow)
	candidates, err := s.store.ListCandidates(ctx, userID, s.config.CandidatePoolSize, activeSince)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load candidates: %w", err)
	}

	history, err := s.store.ListInteractions(ctx, userID, s.config.HistoryLimit)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load interaction history: %w", err)
	}

	recs, err := s.pipeline.Run(ctx, matching.Request{
		Requester:    requester,
		Candidates:   candidates,
		Interactions: history,
		Limit:        limit,
		Now:          start,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to rank candidates: %w", err)
	}

	s.cacheResults(ctx, userID, limit, recs)
	s.metrics.ObserveRecommendation(false, len(candidates), s.now().Sub(start))

	s.logger.WithFields(logrus.Fields{
		"user_id":         userID,
		"candidates":      len(candidates),
		"interactions":    len(history),
		"recommendations": len(recs),
	}).Info("Generated partner recommendations")

	return recs, false, nil
}

// SearchPartners ranks users matching filters by plain compatibility, without
// interaction or recency adjustment.
func (s *RecommendationService) SearchPartners(ctx context.Context, userID string, filters models.SearchFilters) ([]matching.RankedRecommendation, error) {
	requester, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.SearchCandidates(ctx, userID, filters, s.config.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search candidates: %w", err)
	}

	results, err := s.pipeline.ScoreAll(ctx, requester, candidates, s.config.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to score candidates: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"results": len(results),
	}).Debug("Partner search completed")

	return results, nil
}

// InvalidateUser drops every cached list of userID.
func (s *RecommendationService) InvalidateUser(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate recommendations for %s: %w", userID, err)
	}
	return nil
}

// HandleInteractionEvent invalidates the lists of both users of a streamed event.
func (s *RecommendationService) HandleInteractionEvent(ctx context.Context, event models.InteractionEvent) error {
	for _, userID := range []string{event.ActorID, event.TargetID} {
		if userID == "" {
			continue
		}
		if err := s.InvalidateUser(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecommendationService) getCached(ctx context.Context, userID string, limit int) ([]matching.RankedRecommendation, bool) {
	if s.cache == nil {
		return nil, false
	}

	recs, err := s.cache.Get(ctx, userID, limit)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to read cached recommendations")
		}
		return nil, false
	}
	return recs, true
}

func (s *RecommendationService) cacheResults(ctx context.Context, userID string, limit int, recs []matching.RankedRecommendation) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, userID, limit, recs, s.config.CacheTTL); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to cache recommendations")
	}
}
