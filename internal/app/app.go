// Package app provides application initialization and dependency injection.
package app

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/guttosm/bundle-service/config"
	"github.com/guttosm/bundle-service/internal/http"
	"github.com/guttosm/bundle-service/internal/middleware"
)

// Application is the wired service: its router and the connections to close
// on shutdown.
type Application struct {
	Router     *gin.Engine
	Components *RouterComponents
	db         *DatabaseComponents
	redis      *redis.Client
	logs       *middleware.LogBuffer
}

// InitializeApp creates and wires all application dependencies. Connections
// opened before a failure are closed again.
func InitializeApp(cfg config.Config) (*Application, error) {
	// Logger first; everything below logs.
	InitializeLogger(cfg.Log)

	dbComponents := InitializeDatabase(cfg.Database)
	rdb := InitializeRedis(cfg.Redis)

	var redisClient redis.UniversalClient
	if rdb != nil {
		redisClient = rdb
	}

	// Request and audit entries are written in batches off the request path.
	var logs *middleware.LogBuffer
	if dbComponents != nil && dbComponents.LoggingService != nil {
		logs = middleware.NewLogBuffer(dbComponents.LoggingService, middleware.DefaultLogBufferConfig())
		dbComponents.LoggingService = logs
	}

	services, err := InitializeServices(cfg, dbComponents, redisClient)
	if err != nil {
		partial := &Application{db: dbComponents, redis: rdb, logs: logs}
		ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
		defer cancel()
		_ = partial.Close(ctx)
		return nil, err
	}
	routerComponents := InitializeRouter(services, dbComponents, redisClient, cfg)

	return &Application{
		Router: http.NewRouter(
			routerComponents.Handler,
			routerComponents.SessionHandler,
			routerComponents.HealthHandler,
			routerComponents.Config,
		),
		Components: routerComponents,
		db:         dbComponents,
		redis:      rdb,
		logs:       logs,
	}, nil
}

// Close flushes pending audit logs and closes the MongoDB and Redis connections.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.logs != nil {
		errs = append(errs, a.logs.Close(ctx))
	}
	if a.db != nil && a.db.DB != nil {
		errs = append(errs, a.db.DB.Close(ctx))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
