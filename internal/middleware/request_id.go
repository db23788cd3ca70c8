// Package middleware provides the gin middleware of the bundle service.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/guttosm/bundle-service/internal/logger"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
	// ContextKeyRequestID holds the request id in the gin context.
	ContextKeyRequestID = "request_id"

	maxRequestIDLength = 128
)

// RequestID tags each request with an id. A well-formed X-Request-ID from the
// caller is reused; anything else is replaced by a fresh UUID. The id is echoed
// back, stored on the gin context and attached to the request context so
// downstream calls and logs carry it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// validRequestID accepts short printable ASCII ids.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the id set by RequestID, or "" outside of it.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
