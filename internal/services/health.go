package services

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/database"
)

const healthCheckTimeout = 5 * time.Second

// StatsProvider exposes runtime statistics of a component, such as the Kafka consumer.
type StatsProvider interface {
	Stats() map[string]interface{}
}

type dependencyCheck struct {
	name     string
	critical bool
	check    func(ctx context.Context) error
}

type HealthService struct {
	logger *logrus.Logger
	db     *database.Database
	checks []dependencyCheck
	stats  map[string]StatsProvider

	// Prometheus metrics
	healthCheckStatus   *prometheus.GaugeVec
	lastHealthCheck     *prometheus.GaugeVec
	systemMetrics       *prometheus.GaugeVec
	dbConnectionMetrics *prometheus.GaugeVec
}

type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]string      `json:"services"`
	Critical    []string               `json:"critical_failures,omitempty"`
	NonCritical []string               `json:"non_critical_failures,omitempty"`
	Latency     time.Duration          `json:"latency,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// NewHealthService checks PostgreSQL and hot Redis as critical dependencies, Neo4j and
// warm Redis as non-critical ones, and reports events' consumer statistics.
func NewHealthService(logger *logrus.Logger, db *database.Database, events StatsProvider) *HealthService {
	checks := []dependencyCheck{
		{name: "postgresql", critical: true, check: func(ctx context.Context) error { return db.PG.Ping(ctx) }},
		{name: "redis_hot", critical: true, check: func(ctx context.Context) error { return db.Redis.Hot.Ping(ctx).Err() }},
		{name: "neo4j", check: func(ctx context.Context) error { return db.Neo4j.VerifyConnectivity(ctx) }},
		{name: "redis_warm", check: func(ctx context.Context) error { return db.Redis.Warm.Ping(ctx).Err() }},
	}

	stats := map[string]StatsProvider{}
	if events != nil {
		stats["kafka_consumer"] = events
	}

	hs := newHealthService(logger, checks, stats, prometheus.DefaultRegisterer)
	hs.db = db

	// Start background metrics collection
	go hs.collectSystemMetrics()
	go hs.collectDatabaseMetrics()

	return hs
}

func newHealthService(logger *logrus.Logger, checks []dependencyCheck, stats map[string]StatsProvider, reg prometheus.Registerer) *HealthService {
	hs := &HealthService{
		logger: logger,
		checks: checks,
		stats:  stats,
	}

	hs.healthCheckStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_status",
		Help: "Health check status (1 = healthy, 0 = unhealthy)",
	}, []string{"service"})

	hs.lastHealthCheck = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_timestamp",
		Help: "Timestamp of last health check",
	}, []string{"service"})

	hs.systemMetrics = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "system_info",
		Help: "System information metrics",
	}, []string{"metric_type"})

	hs.dbConnectionMetrics = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "database_connection_pool_usage",
		Help: "Database connection pool usage percentage",
	}, []string{"database", "state"})

	// Register metrics, ignoring the ones already registered
	for name, collector := range map[string]prometheus.Collector{
		"health_check_status":            hs.healthCheckStatus,
		"health_check_timestamp":         hs.lastHealthCheck,
		"system_info":                    hs.systemMetrics,
		"database_connection_pool_usage": hs.dbConnectionMetrics,
	} {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				logger.WithError(err).Warnf("Failed to register %s metric", name)
			}
		}
	}

	return hs
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Timestamp: start,
		Services:  make(map[string]string),
	}

	allCriticalHealthy := true
	for _, dep := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := dep.check(checkCtx)
		cancel()

		if err == nil {
			status.Services[dep.name] = "healthy"
			s.UpdateHealthMetrics(dep.name, true)
			continue
		}

		status.Services[dep.name] = "unhealthy"
		s.UpdateHealthMetrics(dep.name, false)
		if dep.critical {
			status.Critical = append(status.Critical, dep.name)
			allCriticalHealthy = false
			s.logger.WithError(err).Errorf("Critical service %s is unhealthy", dep.name)
		} else {
			status.NonCritical = append(status.NonCritical, dep.name)
			s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", dep.name)
		}
	}

	if len(s.stats) > 0 {
		status.Details = make(map[string]interface{}, len(s.stats))
		for name, provider := range s.stats {
			status.Details[name] = provider.Stats()
		}
	}

	// Overall status
	switch {
	case !allCriticalHealthy:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	status.Latency = time.Since(start)
	return status
}

// collectSystemMetrics collects system-level metrics
func (s *HealthService) collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	var memStats runtime.MemStats

	for range ticker.C {
		runtime.ReadMemStats(&memStats)

		s.systemMetrics.WithLabelValues("memory_alloc_bytes").Set(float64(memStats.Alloc))
		s.systemMetrics.WithLabelValues("memory_sys_bytes").Set(float64(memStats.Sys))
		s.systemMetrics.WithLabelValues("goroutines_count").Set(float64(runtime.NumGoroutine()))
		s.systemMetrics.WithLabelValues("gc_runs_total").Set(float64(memStats.NumGC))

		lastPause := memStats.PauseNs[(memStats.NumGC+255)%256]
		s.systemMetrics.WithLabelValues("gc_pause_ns").Set(float64(lastPause))
	}
}

// collectDatabaseMetrics collects PostgreSQL pool metrics
func (s *HealthService) collectDatabaseMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if s.db == nil || s.db.PG == nil {
			continue
		}
		stats := s.db.PG.Stat()

		s.dbConnectionMetrics.WithLabelValues("postgresql", "acquired_conns").Set(float64(stats.AcquiredConns()))
		s.dbConnectionMetrics.WithLabelValues("postgresql", "idle_conns").Set(float64(stats.IdleConns()))
		s.dbConnectionMetrics.WithLabelValues("postgresql", "max_conns").Set(float64(stats.MaxConns()))
		s.dbConnectionMetrics.WithLabelValues("postgresql", "total_conns").Set(float64(stats.TotalConns()))

		if stats.MaxConns() > 0 {
			usage := float64(stats.AcquiredConns()) / float64(stats.MaxConns()) * 100
			s.dbConnectionMetrics.WithLabelValues("postgresql", "usage_percent").Set(usage)
		}
	}
}

// UpdateHealthMetrics updates health check metrics
func (s *HealthService) UpdateHealthMetrics(serviceName string, healthy bool) {
	if healthy {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(1)
	} else {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(0)
	}
	s.lastHealthCheck.WithLabelValues(serviceName).Set(float64(time.Now().Unix()))
}
