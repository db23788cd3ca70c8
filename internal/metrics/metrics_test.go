package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var inFlight float64
	router := gin.New()
	router.Use(PrometheusMiddleware())
	router.GET("/api/bundles/:id", func(c *gin.Context) {
		inFlight = testutil.ToFloat64(HTTPRequestsInFlight)
		c.Status(http.StatusOK)
	})
	router.POST("/api/bundles/:id/cart", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	tests := []struct {
		name   string
		method string
		path   string
		route  string
		status string
	}{
		{name: "route template", method: http.MethodGet, path: "/api/bundles/gift-box", route: "/api/bundles/:id", status: "200"},
		{name: "failed submission", method: http.MethodPost, path: "/api/bundles/gift-box/cart", route: "/api/bundles/:id/cart", status: "502"},
		{name: "unknown path", method: http.MethodGet, path: "/wp-login.php", route: UnmatchedRoute, status: "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := HTTPRequestTotal.WithLabelValues(tt.method, tt.route, tt.status)
			before := testutil.ToFloat64(counter)

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}

	assert.Equal(t, float64(1), inFlight)
	assert.Zero(t, testutil.ToFloat64(HTTPRequestsInFlight))
	assert.Zero(t, testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "/wp-login.php", "404")),
		"raw paths never become labels")
}

func TestRecorders(t *testing.T) {
	tests := []struct {
		name    string
		counter func() float64
		record  func()
	}{
		{
			name:    "quote",
			counter: func() float64 { return testutil.ToFloat64(QuotesTotal.WithLabelValues("invalid")) },
			record:  func() { RecordQuote(80*time.Microsecond, "invalid") },
		},
		{
			name:    "cart submission",
			counter: func() float64 { return testutil.ToFloat64(CartSubmissionsTotal.WithLabelValues("rejected")) },
			record:  func() { RecordCartSubmission(300*time.Millisecond, "rejected") },
		},
		{
			name:    "storefront call",
			counter: func() float64 { return testutil.ToFloat64(ExternalCallsTotal.WithLabelValues("cart", "circuit_open")) },
			record:  func() { RecordExternalCall("cart", "circuit_open") },
		},
		{
			name:    "session event",
			counter: func() float64 { return testutil.ToFloat64(SessionEventsTotal.WithLabelValues("opened")) },
			record:  func() { RecordSessionEvent("opened") },
		},
		{
			name:    "cache operation",
			counter: func() float64 { return testutil.ToFloat64(CacheOperationsTotal.WithLabelValues("get", "expired")) },
			record:  func() { RecordCacheOperation("get", "expired") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.counter()
			tt.record()
			tt.record()
			assert.Equal(t, before+2, tt.counter())
		})
	}
}

func TestGauges(t *testing.T) {
	UpdateCacheMetrics(12, 1000)
	assert.Equal(t, float64(12), testutil.ToFloat64(CacheSize))
	assert.Equal(t, float64(1000), testutil.ToFloat64(CacheCapacity))

	SetCircuitBreakerState("storefront-cart", 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("storefront-cart")))
	SetCircuitBreakerState("storefront-cart", 0)
	assert.Zero(t, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("storefront-cart")))
}

func TestHandler(t *testing.T) {
	RecordQuote(time.Millisecond, "valid")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, name := range []string{"bundle_quotes_total", "bundle_quote_duration_seconds", "http_requests_in_flight"} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
