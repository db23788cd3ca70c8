package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/service"
)

// RequestLogger writes one access line per request and, when loggingService
// is set, stores it as a log entry. Successful requests to quietPaths (probes,
// scrapes) are logged at debug and not stored.
func RequestLogger(loggingService service.LoggingService, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		level := levelForStatus(status)
		_, isQuiet := quiet[c.Request.URL.Path]
		if isQuiet && level == zerolog.InfoLevel {
			level = zerolog.DebugLevel
		}

		logger.Ctx(c.Request.Context()).WithLevel(level).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status_code", status).
			Dur("duration", elapsed).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("bundle_id", c.GetString(ContextKeyBundleID)).
			Str("session_id", c.GetString(ContextKeySessionID)).
			Msg("HTTP request")

		if loggingService == nil || level == zerolog.DebugLevel {
			return
		}
		entry := newEntry(c, level.String(), "HTTP request")
		entry.StatusCode = status
		entry.Duration = elapsed.Milliseconds()
		store(c, loggingService, entry)
	}
}

func levelForStatus(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
