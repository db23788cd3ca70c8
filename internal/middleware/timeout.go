package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/i18n"
)

// Timeout gives the rest of the chain a context that expires after d.
//
// The chain runs on the serving goroutine: handlers are expected to pass the
// request context to storefront and storage calls and map
// context.DeadlineExceeded themselves. When the deadline passes and nothing
// has been written, Timeout answers 504 on their behalf.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() != context.DeadlineExceeded || c.Writer.Written() {
			return
		}
		msg := i18n.GetTranslator().Translate(i18n.ErrKeyTimeout, i18n.GetLocale(c))
		c.AbortWithStatusJSON(http.StatusGatewayTimeout,
			dto.NewError(dto.ErrCodeTimeout, msg).WithRequestID(GetRequestID(c)))
	}
}
