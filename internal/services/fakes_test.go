package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/fitpair/internal/graph"
	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/pkg/models"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishInteraction(ctx context.Context, event models.InteractionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockConnectionMirror struct {
	mock.Mock
}

func (m *MockConnectionMirror) MergeConnection(ctx context.Context, edge graph.Edge) error {
	args := m.Called(ctx, edge)
	return args.Error(0)
}

// memoryCache is an in-process RecommendationCache.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]matching.RankedRecommendation
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]matching.RankedRecommendation{}}
}

func (c *memoryCache) Get(_ context.Context, userID string, limit int) ([]matching.RankedRecommendation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	recs, ok := c.entries[recommendationKey(userID, limit)]
	if !ok {
		return nil, redis.Nil
	}
	return recs, nil
}

func (c *memoryCache) Set(_ context.Context, userID string, limit int, recs []matching.RankedRecommendation, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[recommendationKey(userID, limit)] = recs
	return nil
}

func (c *memoryCache) DeleteUser(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, userID)
	for key := range c.entries {
		if strings.HasPrefix(key, recommendationKeyPrefix+":"+userID+":") {
			delete(c.entries, key)
		}
	}
	return nil
}

// invalidationRecorder is a CacheInvalidator that remembers which users were dropped.
type invalidationRecorder struct {
	mu    sync.Mutex
	users []string
}

func (r *invalidationRecorder) InvalidateUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return nil
}
