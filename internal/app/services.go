// Package app provides service initialization.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/bundle-service/config"
	"github.com/guttosm/bundle-service/internal/catalog"
	"github.com/guttosm/bundle-service/internal/circuitbreaker"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/repository"
	"github.com/guttosm/bundle-service/internal/service"
	"github.com/guttosm/bundle-service/internal/service/cache"
	"github.com/guttosm/bundle-service/internal/storefront"
)

const (
	quoteCacheShards = 16
	seedTimeout      = 10 * time.Second
	// inFlightTTL caps how long a crashed replica can hold an owner's flag.
	inFlightTTL = time.Minute
)

// ServiceComponents holds service-related components.
type ServiceComponents struct {
	Bundles   service.BundleService
	Engine    service.PricingEngine
	Submitter service.CartSubmitter
	Sessions  service.SessionService
	PrepareCB *circuitbreaker.CircuitBreaker
	CartCB    *circuitbreaker.CircuitBreaker
}

// InitializeServices wires the catalog, pricing engine, cart submission and
// sessions. db and rdb may be nil; their state then lives in memory. It fails
// when the configured catalog file cannot be parsed or seeded.
func InitializeServices(cfg config.Config, db *DatabaseComponents, rdb redis.UniversalClient) (*ServiceComponents, error) {
	var bundleRepo repository.BundleRepositoryInterface = repository.NewMemoryBundleRepository()
	if db != nil && db.BundleRepo != nil {
		bundleRepo = db.BundleRepo
	}
	bundles := service.NewBundleService(bundleRepo, service.WithBundleCacheTTL(cfg.Cache.BundleTTL))
	if err := seedCatalog(bundles, cfg.Catalog.File); err != nil {
		return nil, err
	}

	engine := service.NewPricingService(quoteCacheOption(cfg, rdb)...)

	prepareCB := newCircuitBreaker(cfg.Database, "storefront-prepare")
	cartCB := newCircuitBreaker(cfg.Database, "storefront-cart")
	preparer, cartClient := initializeStorefront(cfg.Storefront, prepareCB, cartCB)

	var guard service.InFlightGuard = service.NewMemoryInFlightGuard()
	var store service.SessionStore = service.NewMemorySessionStore(cfg.Redis.SessionTTL)
	if rdb != nil {
		guard = service.NewRedisInFlightGuard(rdb, cfg.Redis.KeyPrefix, inFlightTTL)
		store = service.NewRedisSessionStore(rdb, cfg.Redis.KeyPrefix, cfg.Redis.SessionTTL)
	}

	submitter := service.NewCartSubmissionService(engine, preparer, cartClient,
		service.WithInFlightGuard(guard),
		service.WithRedirects(service.RedirectConfig{
			CartURL:     cfg.Storefront.CartRedirectURL,
			CheckoutURL: cfg.Storefront.CheckoutRedirectURL,
		}),
	)

	return &ServiceComponents{
		Bundles:   bundles,
		Engine:    engine,
		Submitter: submitter,
		Sessions:  service.NewSessionService(store, bundles, engine, submitter),
		PrepareCB: prepareCB,
		CartCB:    cartCB,
	}, nil
}

// quoteCacheOption picks the shared Redis quote cache when available and the
// in-process sharded cache otherwise. A zero cache size disables caching.
func quoteCacheOption(cfg config.Config, rdb redis.UniversalClient) []service.Option {
	if cfg.Cache.Size <= 0 {
		return nil
	}
	if rdb != nil {
		return []service.Option{service.WithCacheInterface(
			cache.NewRedisCache(rdb, cfg.Cache.TTL, cache.WithKeyPrefix(cfg.Redis.KeyPrefix)),
		)}
	}
	return []service.Option{service.WithCacheInterface(
		service.NewShardedCache(cfg.Cache.Size, cfg.Cache.TTL, quoteCacheShards),
	)}
}

// initializeStorefront builds the prepare and cart clients. An empty URL
// leaves the client unconfigured so submissions fail as external errors.
func initializeStorefront(cfg config.StorefrontConfig, prepareCB, cartCB *circuitbreaker.CircuitBreaker) (*storefront.PrepareClient, *storefront.CartClient) {
	prepareOpts := []storefront.Option{storefront.WithCircuitBreaker(prepareCB)}
	cartOpts := []storefront.Option{storefront.WithCircuitBreaker(cartCB)}
	if cfg.AccessToken != "" {
		prepareOpts = append(prepareOpts, storefront.WithHeader("X-Storefront-Access-Token", cfg.AccessToken))
		cartOpts = append(cartOpts, storefront.WithHeader("X-Storefront-Access-Token", cfg.AccessToken))
	}

	if cfg.PrepareURL == "" || cfg.CartURL == "" {
		logger.Logger().Warn().Msg("Storefront endpoints not configured - cart submissions will fail")
	}

	return storefront.NewPrepareClient(cfg.PrepareURL, cfg.Timeout, prepareOpts...),
		storefront.NewCartClient(cfg.CartURL, cfg.Timeout, cartOpts...)
}

// seedCatalog loads the bundle file into the catalog. A missing file leaves
// the catalog as stored.
func seedCatalog(bundles service.BundleService, path string) error {
	if path == "" {
		return nil
	}

	loaded, err := catalog.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Logger().Warn().Str("file", path).Msg("Catalog file not found - serving stored bundles only")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	if err := bundles.Seed(ctx, loaded); err != nil {
		return fmt.Errorf("seed catalog %s: %w", path, err)
	}
	logger.Logger().Info().Int("bundles", len(loaded)).Str("file", path).Msg("Catalog seeded")
	return nil
}
