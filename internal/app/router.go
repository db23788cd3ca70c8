// Package app provides router configuration.
package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/bundle-service/config"
	"github.com/guttosm/bundle-service/internal/http"
	"github.com/guttosm/bundle-service/internal/middleware"
	"github.com/guttosm/bundle-service/internal/service"
)

// cartTimeoutMargin is added on top of the prepare and cart round trips.
const cartTimeoutMargin = 5 * time.Second

// RouterComponents holds router-related components.
type RouterComponents struct {
	Handler        *http.Handler
	SessionHandler *http.SessionHandler
	HealthHandler  *http.HealthHandler
	Config         http.RouterConfig
}

// InitializeRouter initializes HTTP handlers, health checks and router configuration.
func InitializeRouter(
	services *ServiceComponents,
	dbComponents *DatabaseComponents,
	rdb redis.UniversalClient,
	cfg config.Config,
) *RouterComponents {
	var loggingService service.LoggingService
	if dbComponents != nil {
		loggingService = dbComponents.LoggingService
	}

	var handlerOpts []http.HandlerOption
	if loggingService != nil {
		handlerOpts = append(handlerOpts, http.WithLoggingService(loggingService))
	}
	handler := http.NewHandler(services.Bundles, services.Engine, services.Submitter, handlerOpts...)
	sessionHandler := http.NewSessionHandler(services.Sessions, loggingService)

	healthHandler := http.NewHealthHandler()
	healthHandler.RegisterCircuitBreaker(services.PrepareCB)
	healthHandler.RegisterCircuitBreaker(services.CartCB)
	if dbComponents != nil {
		if dbComponents.DB != nil {
			healthHandler.RegisterChecker("mongodb", http.HealthCheckFunc(dbComponents.DB.HealthCheck))
		}
		healthHandler.RegisterCircuitBreaker(dbComponents.BundlesCircuitBreaker)
		healthHandler.RegisterCircuitBreaker(dbComponents.LogsCircuitBreaker)
	}
	if rdb != nil {
		healthHandler.RegisterChecker("redis", http.HealthCheckFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}

	routerCfg := http.DefaultRouterConfig()
	routerCfg.RateLimit = cfg.Server.RateLimit
	routerCfg.RateWindow = cfg.Server.RateWindow
	routerCfg.EnableAuth = cfg.Auth.Enabled
	routerCfg.APIKeys = cfg.Auth.APIKeys
	routerCfg.CORSOrigins = cfg.Server.CORSOrigins
	routerCfg.SwaggerUser = cfg.Server.SwaggerUser
	routerCfg.SwaggerPass = cfg.Server.SwaggerPass
	routerCfg.LoggingService = loggingService
	if cfg.Auth.JWTSecretKey != "" {
		routerCfg.TokenValidator = middleware.NewHMACTokenValidator([]byte(cfg.Auth.JWTSecretKey), cfg.Auth.JWTIssuer)
	}
	if rdb != nil {
		routerCfg.ReplayStore = middleware.NewRedisReplayStore(rdb, cfg.Redis.KeyPrefix, middleware.IdempotencyKeyTTL)
		routerCfg.RateLimiter = middleware.NewRedisRateLimiter(rdb, cfg.Redis.KeyPrefix, cfg.Server.RateLimit, cfg.Server.RateWindow)
	}
	if timeout := CartTimeout(cfg.Storefront); timeout > 0 {
		routerCfg.CartTimeout = timeout
	}

	return &RouterComponents{
		Handler:        handler,
		SessionHandler: sessionHandler,
		HealthHandler:  healthHandler,
		Config:         routerCfg,
	}
}

// CartTimeout bounds a cart request: one prepare and one cart round trip plus
// a margin. Zero means the storefront timeout is not configured.
func CartTimeout(cfg config.StorefrontConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return 0
	}
	return 2*cfg.Timeout + cartTimeoutMargin
}
