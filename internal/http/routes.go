package http

import (
	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/middleware"
)

// RouteGroup is a set of API routes mounted under /api.
type RouteGroup interface {
	RegisterRoutes(rg *gin.RouterGroup, cfg *RouterConfig)
}

// BundleRoutes registers the catalog, quote and stateless cart routes.
type BundleRoutes struct {
	handler *Handler
}

// NewBundleRoutes creates a new BundleRoutes instance.
func NewBundleRoutes(handler *Handler) *BundleRoutes {
	return &BundleRoutes{handler: handler}
}

// RegisterRoutes implements RouteGroup.
func (r *BundleRoutes) RegisterRoutes(rg *gin.RouterGroup, cfg *RouterConfig) {
	bundles := rg.Group("/bundles")
	bundles.GET("", r.handler.ListBundles)
	bundles.GET("/:id", r.handler.GetBundle)
	bundles.POST("/:id/quote", r.handler.Quote)
	bundles.POST("/:id/cart", append(cartMiddleware(cfg), r.handler.SubmitCart)...)
}

// SessionRoutes registers the selection session routes.
type SessionRoutes struct {
	handler *SessionHandler
}

// NewSessionRoutes creates a new SessionRoutes instance.
func NewSessionRoutes(handler *SessionHandler) *SessionRoutes {
	return &SessionRoutes{handler: handler}
}

// RegisterRoutes implements RouteGroup.
func (r *SessionRoutes) RegisterRoutes(rg *gin.RouterGroup, cfg *RouterConfig) {
	rg.POST("/bundles/:id/sessions", r.handler.OpenSession)

	sessions := rg.Group("/sessions")
	sessions.GET("/:id", r.handler.GetSession)
	sessions.POST("/:id/actions", r.handler.ApplyActions)
	sessions.POST("/:id/cart", append(cartMiddleware(cfg), r.handler.SubmitSession)...)
	sessions.DELETE("/:id", r.handler.CloseSession)
}

// cartMiddleware guards the routes that call the storefront: replays of an
// Idempotency-Key and a deadline for the whole submission.
func cartMiddleware(cfg *RouterConfig) []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	if cfg.EnableIdempotency {
		idempotencyCfg := middleware.DefaultIdempotencyConfig()
		if cfg.ReplayStore != nil {
			idempotencyCfg.Store = cfg.ReplayStore
		}
		chain = append(chain, middleware.Idempotency(idempotencyCfg))
	}
	if cfg.CartTimeout > 0 {
		chain = append(chain, middleware.Timeout(cfg.CartTimeout))
	}
	return chain
}
