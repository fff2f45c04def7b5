package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/config"
	"github.com/temcen/fitpair/pkg/models"
)

const rateLimitTimeout = 5 * time.Second

// RateLimitService enforces a per-user sliding window kept in a Redis sorted set.
type RateLimitService struct {
	config      config.RateLimitConfig
	logger      *logrus.Logger
	redisClient *redis.Client
	now         func() time.Time
}

func NewRateLimitService(cfg config.RateLimitConfig, logger *logrus.Logger, redisClient *redis.Client) *RateLimitService {
	return &RateLimitService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		now:         time.Now,
	}
}

// CheckLimit records the request and reports the window state. It fails open when
// Redis is unavailable.
func (s *RateLimitService) CheckLimit(ctx context.Context, userID, userTier string) (*models.RateLimitInfo, error) {
	limit := s.LimitForTier(userTier)
	window := s.config.Window

	key := fmt.Sprintf("rate_limit:user:%s", userID)

	now := s.now()
	windowStart := now.Add(-window)
	resetTime := now.Add(window).Unix()

	ctx, cancel := context.WithTimeout(ctx, rateLimitTimeout)
	defer cancel()

	pipe := s.redisClient.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to execute rate limit pipeline")
		return &models.RateLimitInfo{
			Limit:     limit,
			Remaining: limit - 1,
			ResetTime: resetTime,
		}, nil
	}

	remaining := limit - int(countCmd.Val())
	if remaining < 0 {
		remaining = 0
	}

	return &models.RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}, nil
}

func (s *RateLimitService) IsAllowed(ctx context.Context, userID, userTier string) (bool, *models.RateLimitInfo, error) {
	info, err := s.CheckLimit(ctx, userID, userTier)
	if err != nil {
		return false, nil, err
	}

	return info.Remaining > 0, info, nil
}

func (s *RateLimitService) LimitForTier(userTier string) int {
	switch userTier {
	case "premium":
		return s.config.Premium
	case "enterprise":
		return s.config.Premium * 10
	default:
		return s.config.Default
	}
}
