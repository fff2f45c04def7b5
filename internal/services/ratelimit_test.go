package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/fitpair/internal/config"
)

func TestRateLimitService_LimitForTier(t *testing.T) {
	svc := NewRateLimitService(config.RateLimitConfig{Default: 100, Premium: 1000, Window: time.Hour}, testLogger(), nil)

	assert.Equal(t, 100, svc.LimitForTier("free"))
	assert.Equal(t, 100, svc.LimitForTier(""))
	assert.Equal(t, 1000, svc.LimitForTier("premium"))
	assert.Equal(t, 10000, svc.LimitForTier("enterprise"))
}

func TestRateLimitService_FailsOpenWithoutRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewRateLimitService(config.RateLimitConfig{Default: 100, Premium: 1000, Window: time.Hour}, testLogger(), client)

	allowed, info, err := svc.IsAllowed(context.Background(), "u1", "free")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 100, info.Limit)
	assert.Equal(t, 99, info.Remaining)
}
