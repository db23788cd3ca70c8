package http

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/bundle-service/internal/circuitbreaker"
	"github.com/guttosm/bundle-service/internal/logger"
)

// Readiness states.
const (
	StatusOK          = "ok"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

const defaultCheckTimeout = 2 * time.Second

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

// Check implements HealthChecker.
func (f HealthCheckFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ReadinessResponse is the /readyz body.
type ReadinessResponse struct {
	Status   string                 `json:"status"`
	Checks   map[string]CheckResult `json:"checks"`
	Circuits []circuitbreaker.Stats `json:"circuits"`
}

type namedChecker struct {
	name    string
	checker HealthChecker
}

// HealthHandler serves the liveness and readiness probes. A failing checker
// makes the service unavailable; an open circuit only degrades it, since the
// catalog and quotes keep working without the storefront.
type HealthHandler struct {
	checkers []namedChecker
	circuits []*circuitbreaker.CircuitBreaker
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{timeout: defaultCheckTimeout}
}

// RegisterChecker adds a dependency probe, such as MongoDB or Redis.
func (h *HealthHandler) RegisterChecker(name string, checker HealthChecker) {
	h.checkers = append(h.checkers, namedChecker{name: name, checker: checker})
}

// RegisterCircuitBreaker lists cb in the readiness report. Nil is ignored.
func (h *HealthHandler) RegisterCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	if cb != nil {
		h.circuits = append(h.circuits, cb)
	}
}

// Register registers health endpoints on the router.
func (h *HealthHandler) Register(router *gin.Engine) {
	router.GET("/healthz", h.Liveness)
	router.GET("/readyz", h.Readiness)
}

// Liveness handles the liveness probe endpoint.
// @Summary     Liveness probe
// @Description Returns OK if the process is serving requests.
// @Tags        Health
// @Produce     json
// @Success     200 {object} map[string]string "Service is alive"
// @Router      /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": StatusOK})
}

// Readiness handles the readiness probe endpoint.
// @Summary     Readiness probe
// @Description Probes MongoDB and Redis (if enabled) concurrently and lists every circuit breaker. Open circuits degrade the status without failing the probe.
// @Tags        Health
// @Produce     json
// @Success     200 {object} ReadinessResponse "Service is ready"
// @Failure     503 {object} ReadinessResponse "A dependency is down"
// @Router      /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	resp := h.check(c.Request.Context())

	status := http.StatusOK
	if resp.Status == StatusUnavailable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) check(ctx context.Context) ReadinessResponse {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]CheckResult, len(h.checkers))
	var g errgroup.Group
	for i, nc := range h.checkers {
		g.Go(func() error {
			started := time.Now()
			err := nc.checker.Check(ctx)
			results[i] = CheckResult{Status: StatusOK, LatencyMS: time.Since(started).Milliseconds()}
			if err != nil {
				results[i].Status = StatusUnavailable
				results[i].Error = err.Error()
				logger.Ctx(ctx).Warn().Err(err).Str("dependency", nc.name).Msg("Readiness check failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := ReadinessResponse{
		Status:   StatusOK,
		Checks:   make(map[string]CheckResult, len(results)),
		Circuits: make([]circuitbreaker.Stats, 0, len(h.circuits)),
	}
	for i, nc := range h.checkers {
		resp.Checks[nc.name] = results[i]
		if results[i].Status != StatusOK {
			resp.Status = StatusUnavailable
		}
	}
	for _, cb := range h.circuits {
		stats := cb.GetStats()
		resp.Circuits = append(resp.Circuits, stats)
		if !stats.IsHealthy && resp.Status == StatusOK {
			resp.Status = StatusDegraded
		}
	}
	slices.SortFunc(resp.Circuits, func(a, b circuitbreaker.Stats) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return resp
}
