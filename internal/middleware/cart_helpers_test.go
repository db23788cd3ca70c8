package middleware

import (
	"net/http/httptest"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

const cartPath = "/api/sessions/s-1/cart"

// cartRouter counts handler calls and answers with status.
func cartRouter(cfg IdempotencyConfig, status int, calls *atomic.Int32) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), func(c *gin.Context) {
		if s := c.GetHeader("X-Test-Subject"); s != "" {
			c.Set(ContextKeySubject, s)
		}
		c.Next()
	}, Idempotency(cfg))
	handler := func(c *gin.Context) {
		c.JSON(status, gin.H{"submission": calls.Add(1)})
	}
	router.POST("/api/sessions/:id/cart", handler)
	router.PUT("/api/sessions/:id/cart", handler)
	return router
}

func submit(router *gin.Engine, method, path, key, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
