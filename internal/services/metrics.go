package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MatchingMetrics holds the Prometheus instruments of the partner matching flow.
type MatchingMetrics struct {
	recommendationRequests *prometheus.CounterVec
	recommendationLatency  prometheus.Histogram
	candidatesScored       prometheus.Histogram
	interactions           *prometheus.CounterVec
	connections            *prometheus.CounterVec
}

// NewMatchingMetrics registers the instruments with reg. Pass prometheus.NewRegistry()
// in tests so repeated construction does not collide.
func NewMatchingMetrics(reg prometheus.Registerer) *MatchingMetrics {
	factory := promauto.With(reg)

	return &MatchingMetrics{
		recommendationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_recommendation_requests_total",
			Help: "Total number of partner recommendation requests by cache outcome",
		}, []string{"cache"}),

		recommendationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partner_recommendation_latency_seconds",
			Help:    "Partner recommendation latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
		}),

		candidatesScored: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partner_candidates_scored",
			Help:    "Number of candidates scored per recommendation request",
			Buckets: []float64{0, 5, 10, 25, 50, 100},
		}),

		interactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_interactions_total",
			Help: "Total number of recorded partner interactions by type",
		}, []string{"interaction_type"}),

		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_connections_total",
			Help: "Total number of partner connection events by outcome",
		}, []string{"outcome"}),
	}
}

func (m *MatchingMetrics) ObserveRecommendation(cacheHit bool, candidates int, elapsed time.Duration) {
	if cacheHit {
		m.recommendationRequests.WithLabelValues("hit").Inc()
	} else {
		m.recommendationRequests.WithLabelValues("miss").Inc()
		m.candidatesScored.Observe(float64(candidates))
	}
	m.recommendationLatency.Observe(elapsed.Seconds())
}

func (m *MatchingMetrics) RecordInteraction(interactionType string) {
	m.interactions.WithLabelValues(interactionType).Inc()
}

func (m *MatchingMetrics) RecordConnection(outcome string) {
	m.connections.WithLabelValues(outcome).Inc()
}
