// Package storefront provides clients for the storefront prepare and cart endpoints.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guttosm/bundle-service/internal/circuitbreaker"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/metrics"
)

const (
	// EndpointPrepare labels calls to the prepare endpoint.
	EndpointPrepare = "prepare"
	// EndpointCart labels calls to the cart endpoint.
	EndpointCart = "cart"

	userAgent = "bundle-service/1.0"
	// maxBodyBytes caps how much of an endpoint response is read.
	maxBodyBytes = 1 << 20
)

// ErrNotConfigured is returned when an endpoint URL is empty.
var ErrNotConfigured = errors.New("storefront endpoint not configured")

// APIError is a response from a storefront endpoint that reports failure,
// either through a non-2xx status or through an error payload.
type APIError struct {
	Endpoint   string
	StatusCode int
	// Description is the human-readable text the endpoint supplied, if any.
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s endpoint returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s endpoint returned status %d: %s", e.Endpoint, e.StatusCode, e.Description)
}

// errorBody lists the fields endpoints use to describe a failure.
type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func (b errorBody) text() string {
	switch {
	case b.Description != "":
		return b.Description
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}

// Option configures a storefront client.
type Option func(*endpoint)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *endpoint) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// WithCircuitBreaker guards the endpoint with a circuit breaker. Transport
// failures and 5xx responses count as failures; 4xx answers do not.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(e *endpoint) {
		e.circuitBreaker = cb
	}
}

// WithHeader adds a static header to every request, such as a shop token.
func WithHeader(key, value string) Option {
	return func(e *endpoint) {
		if key != "" && value != "" {
			e.headers.Set(key, value)
		}
	}
}

// endpoint is one JSON POST target shared by the prepare and cart clients.
type endpoint struct {
	name           string
	url            string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	headers        http.Header
}

func newEndpoint(name, url string, timeout time.Duration, opts []Option) *endpoint {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	e := &endpoint{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// post sends body as JSON and returns the response status and payload.
// A 4xx response is returned as data, not as an error, so callers decide
// how to surface it without tripping the circuit breaker.
func (e *endpoint) post(ctx context.Context, body interface{}) (int, []byte, error) {
	if e.url == "" {
		return 0, nil, ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling %s request: %w", e.name, err)
	}

	var status int
	var respBody []byte
	call := func() error {
		status, respBody, err = e.do(ctx, payload)
		if err != nil {
			return err
		}
		if status >= http.StatusInternalServerError {
			return &APIError{Endpoint: e.name, StatusCode: status, Description: parseErrorBody(respBody)}
		}
		return nil
	}

	if e.circuitBreaker != nil {
		err = e.circuitBreaker.Execute(ctx, call)
	} else {
		err = call()
	}

	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		metrics.RecordExternalCall(e.name, "circuit_open")
	case err != nil:
		metrics.RecordExternalCall(e.name, "error")
	case status >= http.StatusBadRequest:
		metrics.RecordExternalCall(e.name, "rejected")
	default:
		metrics.RecordExternalCall(e.name, "success")
	}
	return status, respBody, err
}

func (e *endpoint) do(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("creating %s request: %w", e.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	for key, values := range e.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling %s endpoint: %w", e.name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading %s response: %w", e.name, err)
	}
	return resp.StatusCode, body, nil
}

// parseErrorBody extracts a description from an error payload. Anything
// unparseable yields the empty string.
func parseErrorBody(body []byte) string {
	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil {
		return ""
	}
	return eb.text()
}
