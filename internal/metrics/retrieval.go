package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	RoutingDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "routing_decisions_total",
			Help:      "Total routing decisions by strategy",
		},
		[]string{"decision"},
	)

	WebSearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "websearch_requests_total",
			Help:      "Total external search attempts by mode and status",
		},
		[]string{"mode", "status"}, // mode: instant/scrape/fetch, status: success/error
	)

	WebSearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kepler",
			Name:      "websearch_request_duration_seconds",
			Help:      "External search request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"mode"},
	)

	WebSearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "websearch_cache_total",
			Help:      "Web search cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	LowConfidenceTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "low_confidence_responses_total",
			Help:      "Resolutions whose best candidate fell below the result floor",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RoutingDecisionsTotal)
	prometheus.MustRegister(WebSearchRequestsTotal)
	prometheus.MustRegister(WebSearchRequestDuration)
	prometheus.MustRegister(WebSearchCacheTotal)
	prometheus.MustRegister(LowConfidenceTotal)
	retrievalMetricsRegistered = true
}
