package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/bundle-service/internal/metrics"
	"github.com/guttosm/bundle-service/internal/middleware"
	"github.com/guttosm/bundle-service/internal/service"
)

// RouterConfig holds router configuration options.
type RouterConfig struct {
	RateLimit  int
	RateWindow time.Duration
	// RateLimiter shares request budgets between replicas; nil counts in memory.
	RateLimiter middleware.Limiter
	APIKeys    map[string]bool
	EnableAuth bool
	// TokenValidator enables storefront bearer tokens. It takes precedence
	// over API keys.
	TokenValidator    middleware.TokenValidator
	EnableIdempotency bool
	// ReplayStore shares replays between replicas; nil keeps them in memory.
	ReplayStore middleware.ReplayStore
	// CartTimeout bounds a whole cart submission request.
	CartTimeout    time.Duration
	CORSOrigins    []string
	SwaggerUser    string
	SwaggerPass    string
	LoggingService service.LoggingService
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RateLimit:         100,
		RateWindow:        time.Minute,
		EnableAuth:        false,
		EnableIdempotency: true,
		CartTimeout:       30 * time.Second,
	}
}

// NewRouter creates and configures the Gin router for the bundle service.
func NewRouter(handler *Handler, sessionHandler *SessionHandler, healthHandler *HealthHandler, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	configureGlobalMiddleware(router, &cfg)
	registerInfrastructureRoutes(router, healthHandler, &cfg)

	api := router.Group("/api")
	configureAPIMiddleware(api, &cfg)

	var groups []RouteGroup
	if handler != nil {
		groups = append(groups, NewBundleRoutes(handler))
	}
	if sessionHandler != nil {
		groups = append(groups, NewSessionRoutes(sessionHandler))
	}
	for _, g := range groups {
		g.RegisterRoutes(api, &cfg)
	}

	return router
}

// configureGlobalMiddleware sets up middleware applied to all routes.
func configureGlobalMiddleware(router *gin.Engine, cfg *RouterConfig) {
	allowedOrigins := cfg.CORSOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:9292"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Accept-Language", "Authorization", "accept", "Cache-Control", "X-Requested-With", "X-API-Key", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", middleware.ReplayedHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		metrics.PrometheusMiddleware(),
		middleware.Compression(),
		middleware.RequestLogger(cfg.LoggingService, "/healthz", "/readyz", "/metrics"),
		middleware.ErrorHandler(),
	)

	if cfg.RateLimit > 0 {
		router.Use(middleware.RateLimitByIP(cfg.limiter()))
	}
}

// registerInfrastructureRoutes registers health, metrics, and documentation routes.
func registerInfrastructureRoutes(router *gin.Engine, healthHandler *HealthHandler, cfg *RouterConfig) {
	if healthHandler != nil {
		healthHandler.Register(router)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.SwaggerUser != "" && cfg.SwaggerPass != "" {
		authorized := router.Group("/swagger", gin.BasicAuth(gin.Accounts{
			cfg.SwaggerUser: cfg.SwaggerPass,
		}))
		authorized.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	} else {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

// configureAPIMiddleware sets up authentication for the API group.
// Authenticated callers get their own rate budget on top of the global one.
func configureAPIMiddleware(api *gin.RouterGroup, cfg *RouterConfig) {
	if !cfg.EnableAuth {
		return
	}

	switch {
	case cfg.TokenValidator != nil:
		api.Use(middleware.JWTAuth(cfg.TokenValidator))
	case len(cfg.APIKeys) > 0:
		api.Use(middleware.APIKeyAuth(cfg.APIKeys))
	default:
		return
	}

	if cfg.RateLimit > 0 {
		api.Use(middleware.RateLimitBySubject(cfg.limiter()))
	}
}

// limiter returns the configured limiter, creating the in-memory one on
// first use so both rate limit layers count against the same windows.
func (cfg *RouterConfig) limiter() middleware.Limiter {
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	}
	return cfg.RateLimiter
}
