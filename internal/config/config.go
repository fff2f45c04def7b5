package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temcen/fitpair/internal/matching"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Matching MatchingConfig `mapstructure:"matching"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig splits traffic between a hot instance (sessions, rate limits) and a
// warm instance (cached recommendation lists).
type RedisConfig struct {
	Hot  RedisInstanceConfig `mapstructure:"hot"`
	Warm RedisInstanceConfig `mapstructure:"warm"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Neo4jConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		PartnerInteractions string `mapstructure:"partner_interactions"`
		DeadLetter          string `mapstructure:"dead_letter"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string          `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration   `mapstructure:"token_ttl"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Default int           `mapstructure:"default"`
	Premium int           `mapstructure:"premium"`
	Window  time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MatchingConfig tunes the compatibility engine and the recommendation service around it.
type MatchingConfig struct {
	Weights           WeightsConfig `mapstructure:"weights"`
	CandidatePoolSize int           `mapstructure:"candidate_pool_size"`
	ActiveWindow      time.Duration `mapstructure:"active_window"`
	HistoryLimit      int           `mapstructure:"history_limit"`
	SearchLimit       int           `mapstructure:"search_limit"`
	DefaultLimit      int           `mapstructure:"default_limit"`
	Workers           int           `mapstructure:"workers"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

type WeightsConfig struct {
	Age          float64 `mapstructure:"age"`
	FitnessLevel float64 `mapstructure:"fitness_level"`
	Goals        float64 `mapstructure:"goals"`
	Schedule     float64 `mapstructure:"schedule"`
	Location     float64 `mapstructure:"location"`
}

// ScoringConfig returns the engine configuration with the configured weights applied.
func (m MatchingConfig) ScoringConfig() (matching.ScoringConfig, error) {
	cfg := matching.DefaultScoringConfig().WithWeights(map[matching.Dimension]float64{
		matching.DimensionAge:          m.Weights.Age,
		matching.DimensionFitnessLevel: m.Weights.FitnessLevel,
		matching.DimensionGoals:        m.Weights.Goals,
		matching.DimensionSchedule:     m.Weights.Schedule,
		matching.DimensionLocation:     m.Weights.Location,
	})
	if err := cfg.Validate(); err != nil {
		return matching.ScoringConfig{}, fmt.Errorf("invalid matching weights: %w", err)
	}
	return cfg, nil
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	// Environment variable overrides
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.hot.max_retries", 3)
	viper.SetDefault("redis.hot.pool_size", 10)
	viper.SetDefault("redis.hot.timeout", "5s")
	viper.SetDefault("redis.warm.max_retries", 3)
	viper.SetDefault("redis.warm.pool_size", 5)
	viper.SetDefault("redis.warm.timeout", "10s")

	// Neo4j defaults
	viper.SetDefault("neo4j.database", "neo4j")

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topics.partner_interactions", "partner-interactions")
	viper.SetDefault("kafka.topics.dead_letter", "partner-interactions-dlq")

	// Auth defaults
	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("auth.rate_limit.default", 1000)
	viper.SetDefault("auth.rate_limit.premium", 10000)
	viper.SetDefault("auth.rate_limit.window", "1h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Matching defaults
	viper.SetDefault("matching.weights.age", 0.20)
	viper.SetDefault("matching.weights.fitness_level", 0.25)
	viper.SetDefault("matching.weights.goals", 0.30)
	viper.SetDefault("matching.weights.schedule", 0.15)
	viper.SetDefault("matching.weights.location", 0.10)
	viper.SetDefault("matching.candidate_pool_size", 50)
	viper.SetDefault("matching.active_window", "720h")
	viper.SetDefault("matching.history_limit", 100)
	viper.SetDefault("matching.search_limit", 20)
	viper.SetDefault("matching.default_limit", matching.DefaultLimit)
	viper.SetDefault("matching.workers", 8)
	viper.SetDefault("matching.cache_ttl", "15m")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
