package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/config"
	"github.com/temcen/fitpair/pkg/models"
)

const tokenIssuer = "github.com/temcen/fitpair"

var (
	ErrInvalidAPIKey   = errors.New("invalid API key")
	ErrSessionNotFound = errors.New("session not found or expired")
)

type AuthService struct {
	config      config.AuthConfig
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
	now         func() time.Time
}

func NewAuthService(cfg config.AuthConfig, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.JWTSecret),
		now:         time.Now,
	}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}

// IssueToken exchanges an API key for a signed token bound to userID.
func (s *AuthService) IssueToken(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error) {
	tier, err := s.ValidateAPIKey(req.APIKey)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.GenerateToken(ctx, req.UserID, req.APIKey, tier)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserTier:  tier,
	}, nil
}

func (s *AuthService) GenerateToken(ctx context.Context, userID, apiKey, userTier string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.TokenTTL)
	claims := &models.JWTClaims{
		UserID:   userID,
		APIKey:   apiKey,
		UserTier: userTier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	if s.redisClient != nil {
		if err := s.redisClient.Set(ctx, sessionKey(userID), tokenString, s.config.TokenTTL).Err(); err != nil {
			// Token generation does not depend on Redis
			s.logger.WithError(err).Warn("Failed to store session in Redis")
		}
	}

	return tokenString, expiresAt, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	if s.redisClient == nil {
		return claims, nil
	}

	exists, err := s.redisClient.Exists(ctx, sessionKey(claims.UserID)).Result()
	if err != nil {
		// Validation continues while Redis is down
		s.logger.WithError(err).Warn("Failed to check session in Redis")
	} else if exists == 0 {
		return nil, ErrSessionNotFound
	}

	return claims, nil
}

func (s *AuthService) RevokeToken(ctx context.Context, userID string) error {
	if err := s.redisClient.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// ValidateAPIKey maps a demo API key to its rate-limit tier.
func (s *AuthService) ValidateAPIKey(apiKey string) (string, error) {
	apiKeyToTier := map[string]string{
		"demo-free-key":       "free",
		"demo-premium-key":    "premium",
		"demo-enterprise-key": "enterprise",
	}

	if tier, exists := apiKeyToTier[apiKey]; exists {
		return tier, nil
	}

	return "", ErrInvalidAPIKey
}
