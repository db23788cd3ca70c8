package dto

import (
	"net/http"
	"time"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

const (
	// ErrCodeInvalidRequest indicates an invalid request.
	ErrCodeInvalidRequest = "invalid_request"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
	// ErrCodeUnauthorized indicates missing or invalid authentication.
	ErrCodeUnauthorized = "unauthorized"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound = "not_found"
	// ErrCodeRateLimit indicates rate limit exceeded.
	ErrCodeRateLimit = "rate_limit_exceeded"
	// ErrCodeConflict indicates a conflict with current state.
	ErrCodeConflict = "conflict"
	// ErrCodeTimeout indicates a request timeout.
	ErrCodeTimeout = "timeout"
	// ErrCodeUnprocessable indicates a well-formed request the bundle rules reject.
	ErrCodeUnprocessable = "unprocessable"
	// ErrCodeBadGateway indicates a storefront endpoint failure.
	ErrCodeBadGateway = "bad_gateway"
	// ErrCodeUnavailable indicates a dependency is temporarily unavailable.
	ErrCodeUnavailable = "service_unavailable"
)

// SuccessResponse wraps successful API responses with metadata.
// @Description Successful API response wrapper
type SuccessResponse struct {
	// Data contains the actual response data
	Data interface{} `json:"data" swaggertype:"object"`
	// Message is an optional localized confirmation
	Message string `json:"message,omitempty" example:"Bundle added to cart"`
	// RequestID is the unique request identifier
	RequestID string `json:"request_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	// Timestamp is when the response was generated
	Timestamp time.Time `json:"timestamp" example:"2025-01-28T10:00:00Z"`
} // @name SuccessResponse

// ErrorResponse represents a standardized error response for the API.
// @Description Standardized error response
type ErrorResponse struct {
	// Error is a stable machine-readable code
	Error string `json:"error" example:"unprocessable"`
	// Message is localized from Accept-Language
	Message string `json:"message,omitempty" example:"The selection does not meet the bundle rules"`
	// Violations lists the broken bundle rules, if any
	Violations []ViolationDetail `json:"violations,omitempty"`
	RequestID  string            `json:"request_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp  time.Time         `json:"timestamp" example:"2025-01-28T10:00:00Z"`
} // @name ErrorResponse

// ViolationDetail is a violation code with its localized message.
type ViolationDetail struct {
	Code    model.Violation `json:"code" example:"WRAP_REQUIRED"`
	Message string          `json:"message" example:"Please choose a gift wrap"`
} // @name ViolationDetail

// QuoteResponse is an evaluated selection.
// @Description Selection with its price and validity
type QuoteResponse struct {
	Selection  model.Selection   `json:"selection"`
	Quote      model.Quote       `json:"quote"`
	Violations []ViolationDetail `json:"violations"`
} // @name QuoteResponse

// SessionResponse is a session with its current quote.
// @Description Selection session with its price and validity
type SessionResponse struct {
	Session    model.Session     `json:"session"`
	Quote      model.Quote       `json:"quote"`
	Violations []ViolationDetail `json:"violations"`
} // @name SessionResponse

// BundleListResponse lists the catalog.
type BundleListResponse struct {
	Bundles []model.Bundle `json:"bundles"`
	Count   int            `json:"count" example:"1"`
} // @name BundleListResponse

// NewError creates a new ErrorResponse with the given code and message.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithRequestID adds a request ID to the error response.
func (e ErrorResponse) WithRequestID(requestID string) ErrorResponse {
	e.RequestID = requestID
	return e
}

// WithViolations attaches violation details to the error response.
func (e ErrorResponse) WithViolations(v []ViolationDetail) ErrorResponse {
	e.Violations = v
	return e
}

// ErrCodeFromStatus returns the appropriate error code for an HTTP status.
func ErrCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusUnprocessableEntity:
		return ErrCodeUnprocessable
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusBadGateway:
		return ErrCodeBadGateway
	case http.StatusServiceUnavailable:
		return ErrCodeUnavailable
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ErrCodeTimeout
	default:
		return ErrCodeInternal
	}
}
