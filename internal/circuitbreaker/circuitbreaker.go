// Package circuitbreaker guards calls to MongoDB and the storefront endpoints.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/metrics"
)

// ErrCircuitOpen is returned without calling the dependency while the
// circuit is open, or while a half-open probe is already running.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker position. Its numeric value is exported as the
// circuit_breaker_state gauge.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until Config.Timeout has passed.
	StateOpen
	// StateHalfOpen lets one probe through at a time.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config tunes a breaker.
type Config struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold consecutive half-open successes close it again.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before a probe is let through.
	Timeout time.Duration
	// Name labels logs, metrics and health output.
	Name string
}

// DefaultConfig returns the thresholds used for MongoDB.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		Name:             "circuit-breaker",
	}
}

// excluded marks an error that is an answer from the dependency, not a
// failure of it.
type excluded struct{ err error }

func (e excluded) Error() string { return e.err.Error() }
func (e excluded) Unwrap() error { return e.err }

// Exclude wraps err so the breaker returns it to the caller without
// counting it as a failure. Use it for outcomes such as "not found".
func Exclude(err error) error {
	if err == nil {
		return nil
	}
	return excluded{err: err}
}

// CircuitBreaker counts consecutive failures of a dependency and sheds calls
// while it is considered down. In half-open state a single probe runs at a
// time.
type CircuitBreaker struct {
	config Config
	now    func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	openedAt     time.Time
	lastFailure  time.Time
	probeRunning bool
}

// New returns a closed breaker.
func New(config Config) *CircuitBreaker {
	cb := &CircuitBreaker{config: config, now: time.Now}
	metrics.SetCircuitBreakerState(config.Name, float64(StateClosed))
	return cb
}

// Execute runs fn unless the circuit is open. A context that is already done
// is returned as is; an error caused by the caller's own cancellation does
// not count as a failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probe, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()

	var ex excluded
	switch {
	case errors.As(err, &ex):
		cb.record(probe, true)
		return ex.err
	case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
		cb.release(probe)
		return err
	default:
		cb.record(probe, err == nil)
		return err
	}
}

// Do runs fn through cb and returns its value.
func Do[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := cb.Execute(ctx, func() error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}

// admit decides whether a call may proceed and whether it is the half-open probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Timeout {
			return false, ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.probeRunning {
			return false, ErrCircuitOpen
		}
		cb.probeRunning = true
		return true, nil
	default:
		return false, nil
	}
}

func (cb *CircuitBreaker) release(probe bool) {
	if !probe {
		return
	}
	cb.mu.Lock()
	cb.probeRunning = false
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) record(probe, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe {
		cb.probeRunning = false
	} else if cb.state == StateHalfOpen {
		// A call admitted before the circuit opened says nothing about recovery.
		return
	}

	if ok {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.transition(StateClosed)
			}
		}
		return
	}

	cb.failures++
	cb.lastFailure = cb.now()
	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.transition(StateOpen)
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.successes = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	metrics.SetCircuitBreakerState(cb.config.Name, float64(to))

	log := logger.Logger()
	event := log.Info()
	if to == StateOpen {
		event = log.Warn().Int("failures", cb.failures)
	}
	event.Str("circuit_breaker", cb.config.Name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Circuit breaker state changed")
}

// Name returns the configured name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// State returns the current position. An open circuit whose timeout has
// elapsed still reports open until the next call probes it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// IsOpen reports whether calls are currently being shed.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// Stats is the breaker snapshot reported by the readiness endpoint.
type Stats struct {
	Name         string    `json:"name"`
	State        string    `json:"state"`
	FailureCount int       `json:"failure_count"`
	SuccessCount int       `json:"success_count"`
	LastFailure  time.Time `json:"last_failure,omitzero"`
	IsHealthy    bool      `json:"is_healthy"`
}

// GetStats returns a snapshot of the breaker.
func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Stats{
		Name:         cb.config.Name,
		State:        cb.state.String(),
		FailureCount: cb.failures,
		SuccessCount: cb.successes,
		LastFailure:  cb.lastFailure,
		IsHealthy:    cb.state == StateClosed,
	}
}
