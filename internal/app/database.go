// Package app provides database initialization and setup.
package app

import (
	"context"

	"github.com/guttosm/bundle-service/config"
	"github.com/guttosm/bundle-service/internal/circuitbreaker"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/repository"
	"github.com/guttosm/bundle-service/internal/service"
)

// DatabaseComponents holds database-related components.
type DatabaseComponents struct {
	DB                    *repository.MongoDB
	BundleRepo            repository.BundleRepositoryInterface
	LoggingService        service.LoggingService
	BundlesCircuitBreaker *circuitbreaker.CircuitBreaker
	LogsCircuitBreaker    *circuitbreaker.CircuitBreaker
}

// InitializeDatabase connects to MongoDB and creates the bundle and audit log repositories.
// Returns nil if database is disabled or connection fails.
func InitializeDatabase(cfg config.DatabaseConfig) *DatabaseComponents {
	if !cfg.Enabled {
		return nil
	}

	db, err := repository.NewMongoDB(cfg.URI, cfg.DatabaseName, mongoOptions(cfg)...)
	if err != nil {
		logger.Logger().Error().Err(err).Msg("Failed to connect to MongoDB - continuing with in-memory catalog")
		return nil
	}

	logger.Logger().Info().Str("database", cfg.DatabaseName).Msg("Connected to MongoDB")

	ttlDays := int(cfg.LogsTTL.Hours() / 24)
	if ttlDays < 1 {
		ttlDays = 1
	}
	if err := db.SetLogsTTL(context.Background(), ttlDays); err != nil {
		logger.Logger().Warn().Err(err).Msg("Failed to set logs TTL index (may already exist)")
	}

	bundlesCB := newCircuitBreaker(cfg, "mongodb-bundles")
	logsCB := newCircuitBreaker(cfg, "mongodb-logs")

	logsRepo := repository.NewLogsRepositoryWithCircuitBreaker(repository.NewLogsRepository(db), logsCB)

	return &DatabaseComponents{
		DB:                    db,
		BundleRepo:            repository.NewBundleRepositoryWithCircuitBreaker(repository.NewBundleRepository(db), bundlesCB),
		LoggingService:        service.NewLoggingService(logsRepo),
		BundlesCircuitBreaker: bundlesCB,
		LogsCircuitBreaker:    logsCB,
	}
}

func mongoOptions(cfg config.DatabaseConfig) []repository.MongoOption {
	var opts []repository.MongoOption
	if cfg.MaxPoolSize > 0 {
		opts = append(opts, repository.WithPoolSize(min(5, cfg.MaxPoolSize), cfg.MaxPoolSize))
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, repository.WithConnectTimeout(cfg.ConnectTimeout))
	}
	if cfg.Compression {
		opts = append(opts, repository.WithCompression())
	}
	return opts
}

// newCircuitBreaker builds a breaker from the shared database thresholds.
func newCircuitBreaker(cfg config.DatabaseConfig, name string) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
		Timeout:          cfg.CircuitBreakerTimeout,
		Name:             name,
	})
}
