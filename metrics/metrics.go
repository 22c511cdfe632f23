// Package metrics provides Prometheus metrics for the interaction service:
// HTTP request counters/latency plus pipeline-level counters (cache hits and
// misses, upstream failures, retries, fallbacks, rate-limit rejections).
// All metrics register with the default registry at package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	InteractionCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interaction_cache_hits_total",
			Help: "Interaction checks served from the pair cache",
		},
	)

	InteractionCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interaction_cache_misses_total",
			Help: "Interaction checks that required an upstream call",
		},
	)

	InteractionRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interaction_retries_total",
			Help: "Strict-prompt retry attempts after a parse failure",
		},
	)

	InteractionFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interaction_fallbacks_total",
			Help: "Results synthesized from raw text after both parse attempts failed",
		},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_upstream_errors_total",
			Help: "Upstream model API failures by kind",
		},
		[]string{"kind"},
	)

	RateLimitRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interaction_rate_limit_rejections_total",
			Help: "Requests rejected by the fixed-window rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(InteractionCacheHits)
	prometheus.MustRegister(InteractionCacheMisses)
	prometheus.MustRegister(InteractionRetries)
	prometheus.MustRegister(InteractionFallbacks)
	prometheus.MustRegister(UpstreamErrors)
	prometheus.MustRegister(RateLimitRejections)
}
