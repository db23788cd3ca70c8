package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/i18n"
	"github.com/guttosm/bundle-service/internal/logger"
)

// ErrorHandler logs the errors handlers attach with c.Error and answers for
// handlers that recorded an error without writing a response: binding errors
// become 400, anything else 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		if !c.Writer.Written() {
			status, code, key := http.StatusInternalServerError, dto.ErrCodeInternal, i18n.ErrKeyInternalError
			if c.Errors.Last().IsType(gin.ErrorTypeBind) {
				status, code, key = http.StatusBadRequest, dto.ErrCodeInvalidRequest, i18n.ErrKeyInvalidRequestBody
			}
			msg := i18n.GetTranslator().Translate(key, i18n.GetLocale(c))
			c.JSON(status, dto.NewError(code, msg).WithRequestID(GetRequestID(c)))
		}

		level := zerolog.WarnLevel
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = zerolog.ErrorLevel
		}
		log := logger.Ctx(c.Request.Context())
		for _, err := range c.Errors {
			log.WithLevel(level).
				Err(err.Err).
				Str("method", c.Request.Method).
				Str("path", c.FullPath()).
				Int("status", c.Writer.Status()).
				Msg("Request error")
		}
	}
}
