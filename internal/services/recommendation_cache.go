package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/temcen/fitpair/internal/matching"
)

const recommendationKeyPrefix = "partner_recs"

// RecommendationCache stores ranked lists per (user, limit).
type RecommendationCache interface {
	Get(ctx context.Context, userID string, limit int) ([]matching.RankedRecommendation, error)
	Set(ctx context.Context, userID string, limit int, recs []matching.RankedRecommendation, ttl time.Duration) error
	DeleteUser(ctx context.Context, userID string) error
}

func recommendationKey(userID string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", recommendationKeyPrefix, userID, limit)
}

// RedisRecommendationCache keeps ranked lists as JSON strings in the warm Redis instance.
type RedisRecommendationCache struct {
	client *redis.Client
}

func NewRedisRecommendationCache(client *redis.Client) *RedisRecommendationCache {
	return &RedisRecommendationCache{client: client}
}

// Get returns redis.Nil on a miss.
func (c *RedisRecommendationCache) Get(ctx context.Context, userID string, limit int) ([]matching.RankedRecommendation, error) {
	cached, err := c.client.Get(ctx, recommendationKey(userID, limit)).Bytes()
	if err != nil {
		return nil, err
	}

	var recs []matching.RankedRecommendation
	if err := json.Unmarshal(cached, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode cached recommendations: %w", err)
	}
	return recs, nil
}

func (c *RedisRecommendationCache) Set(ctx context.Context, userID string, limit int, recs []matching.RankedRecommendation, ttl time.Duration) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, recommendationKey(userID, limit), data, ttl).Err()
}

// DeleteUser drops every cached list of userID, whatever the limit.
func (c *RedisRecommendationCache) DeleteUser(ctx context.Context, userID string) error {
	pattern := fmt.Sprintf("%s:%s:*", recommendationKeyPrefix, userID)

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached recommendations: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
