// Package metrics provides Prometheus metrics collection for the bundle service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestDuration is labelled by route template, never the raw path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	// QuotesTotal counts selection evaluations by outcome (valid, invalid, cached).
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_quotes_total",
			Help: "Total number of bundle quote evaluations",
		},
		[]string{"status"},
	)

	// QuoteDuration tracks how long a quote evaluation takes.
	QuoteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundle_quote_duration_seconds",
			Help:    "Bundle quote evaluation duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	// CartSubmissionsTotal counts cart submissions by result.
	CartSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_submissions_total",
			Help: "Total number of bundle cart submissions",
		},
		[]string{"result"},
	)

	// CartSubmissionDuration tracks end-to-end submission latency.
	CartSubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cart_submission_duration_seconds",
			Help:    "Cart submission duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	// ExternalCallsTotal counts calls to the storefront prepare and cart endpoints.
	ExternalCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_calls_total",
			Help: "Total number of calls to external storefront endpoints",
		},
		[]string{"endpoint", "result"},
	)

	// SessionEventsTotal counts selection sessions opened and closed. Sessions
	// that lapse through the store TTL are not counted as closed.
	SessionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_session_events_total",
			Help: "Selection session lifecycle events (opened, closed)",
		},
		[]string{"event"},
	)

	// AuditLogEntriesTotal counts entries through the log buffer.
	AuditLogEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_log_entries_total",
			Help: "Request and audit log entries by result (written, dropped, failed)",
		},
		[]string{"result"},
	)

	// CircuitBreakerState is 0 closed, 1 open, 2 half-open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker position (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	// PanicsRecoveredTotal counts handler panics turned into 500 responses.
	PanicsRecoveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Handler panics recovered, by route",
		},
		[]string{"route"},
	)

	// IdempotencyLookupsTotal counts Idempotency-Key lookups by result
	// (replayed, miss, stored).
	IdempotencyLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idempotency_lookups_total",
			Help: "Idempotency-Key lookups on cart routes",
		},
		[]string{"result"},
	)

	// CacheOperationsTotal tracks cache operations.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)

	// CacheSize tracks current cache size.
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Current cache size",
		},
	)

	// CacheCapacity tracks cache capacity.
	CacheCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_capacity",
			Help: "Cache capacity",
		},
	)
)

// UnmatchedRoute labels requests that matched no route.
const UnmatchedRoute = "unmatched"

// PrometheusMiddleware records request count, latency and concurrency.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordQuote records metrics for one quote evaluation.
func RecordQuote(duration time.Duration, status string) {
	QuoteDuration.Observe(duration.Seconds())
	QuotesTotal.WithLabelValues(status).Inc()
}

// RecordCartSubmission records metrics for one cart submission.
func RecordCartSubmission(duration time.Duration, result string) {
	CartSubmissionDuration.Observe(duration.Seconds())
	CartSubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordExternalCall records the outcome of a storefront endpoint call.
func RecordExternalCall(endpoint, result string) {
	ExternalCallsTotal.WithLabelValues(endpoint, result).Inc()
}

// RecordSessionEvent records a session being opened or closed.
func RecordSessionEvent(event string) {
	SessionEventsTotal.WithLabelValues(event).Inc()
}

// RecordCacheOperation records metrics for a cache operation.
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// UpdateCacheMetrics updates cache size and capacity metrics.
func UpdateCacheMetrics(size, capacity int) {
	CacheSize.Set(float64(size))
	CacheCapacity.Set(float64(capacity))
}

// SetCircuitBreakerState publishes a breaker position.
func SetCircuitBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}
