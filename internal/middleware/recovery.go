package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/i18n"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/metrics"
)

// Recovery turns a handler panic into a 500 and logs it with its stack.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.PanicsRecoveredTotal.WithLabelValues(route).Inc()

			logger.Ctx(c.Request.Context()).Error().
				Str("route", route).
				Str("bundle_id", c.GetString(ContextKeyBundleID)).
				Str("session_id", c.GetString(ContextKeySessionID)).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Handler panicked")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			message := i18n.GetTranslator().Translate(i18n.ErrKeyInternalError, i18n.GetLocale(c))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewError(dto.ErrCodeInternal, message).WithRequestID(GetRequestID(c)))
		}()
		c.Next()
	}
}
