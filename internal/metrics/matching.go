package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generator, ranking and matching Prometheus metrics.
var (
	GeneratorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GeneratorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_request_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"provider", "model"},
	)

	RankingOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_outcomes_total",
			Help:      "Phase 2 outcomes: oracle or fallback with the reason",
		},
		[]string{"outcome", "reason"},
	)

	RetrievalCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_candidates",
			Help:      "Number of candidates surviving Phase 1 per opportunity",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
	)

	MatchesPersistedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_persisted_total",
			Help:      "Total match records written",
		},
	)

	ImpressionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "impression_cache_total",
			Help:      "Impression cache hits and misses",
		},
		[]string{"result"},
	)

	ConnectionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_requests_total",
			Help:      "Connection requests by lifecycle event",
		},
		[]string{"event"},
	)
)

var matchingMetricsRegistered bool

// RegisterMatchingMetrics registers generator, ranking and matching metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchingMetricsRegistered {
		return
	}
	prometheus.MustRegister(GeneratorRequestsTotal)
	prometheus.MustRegister(GeneratorRequestDuration)
	prometheus.MustRegister(RankingOutcomesTotal)
	prometheus.MustRegister(RetrievalCandidates)
	prometheus.MustRegister(MatchesPersistedTotal)
	prometheus.MustRegister(ImpressionCacheTotal)
	prometheus.MustRegister(ConnectionRequestsTotal)
	matchingMetricsRegistered = true
}
