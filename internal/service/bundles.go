package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/repository"
)

var (
	// ErrRepositoryNotConfigured is returned when the repository is not configured.
	ErrRepositoryNotConfigured = errors.New("repository not configured")
	// ErrBundleNotFound is returned when the catalog has no bundle with the requested id.
	ErrBundleNotFound = repository.ErrBundleNotFound
)

// BundleService provides read access to the bundle catalog.
type BundleService interface {
	Get(ctx context.Context, id string) (*model.Bundle, error)
	List(ctx context.Context) ([]model.Bundle, error)
	// Seed upserts bundles into the catalog and drops cached copies.
	Seed(ctx context.Context, bundles []model.Bundle) error
}

// BundleServiceImpl implements BundleService with a short read-through cache.
// When the repository fails, the last cached copy is served even if expired.
type BundleServiceImpl struct {
	repo  repository.BundleRepositoryInterface
	cache *bundleCache
}

// BundleServiceOption configures a BundleServiceImpl.
type BundleServiceOption func(*BundleServiceImpl)

// WithBundleCacheTTL sets how long bundles are served from memory.
func WithBundleCacheTTL(ttl time.Duration) BundleServiceOption {
	return func(s *BundleServiceImpl) {
		s.cache = newBundleCache(ttl)
	}
}

// NewBundleService creates a new bundle service.
func NewBundleService(repo repository.BundleRepositoryInterface, opts ...BundleServiceOption) *BundleServiceImpl {
	s := &BundleServiceImpl{
		repo:  repo,
		cache: newBundleCache(30 * time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the bundle with the given id.
func (s *BundleServiceImpl) Get(ctx context.Context, id string) (*model.Bundle, error) {
	if s.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}

	cached, fresh := s.cache.get(id)
	if fresh {
		out := cached.Clone()
		return &out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	b, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBundleNotFound) {
			s.cache.invalidate(id)
			return nil, ErrBundleNotFound
		}
		if cached != nil {
			logger.Logger().Warn().Err(err).Str("bundle_id", id).Msg("Serving stale bundle after repository failure")
			out := cached.Clone()
			return &out, nil
		}
		return nil, err
	}

	s.cache.set(b)
	out := b.Clone()
	return &out, nil
}

// List returns the whole catalog.
func (s *BundleServiceImpl) List(ctx context.Context) ([]model.Bundle, error) {
	if s.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	bundles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bundles {
		s.cache.set(&bundles[i])
	}
	return bundles, nil
}

// Seed upserts bundles in order, stopping at the first failure.
func (s *BundleServiceImpl) Seed(ctx context.Context, bundles []model.Bundle) error {
	if s.repo == nil {
		return ErrRepositoryNotConfigured
	}

	for i := range bundles {
		stored, err := s.repo.Upsert(ctx, &bundles[i])
		if err != nil {
			return err
		}
		s.cache.invalidate(stored.ID)
		logger.Logger().Debug().
			Str("bundle_id", stored.ID).
			Int("revision", stored.Revision).
			Msg("Bundle seeded")
	}
	return nil
}

// bundleCache keeps bundle snapshots with an expiry. Expired snapshots stay
// available as a fallback until replaced.
type bundleCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]bundleCacheEntry
}

type bundleCacheEntry struct {
	bundle    model.Bundle
	expiresAt time.Time
}

func newBundleCache(ttl time.Duration) *bundleCache {
	return &bundleCache{ttl: ttl, entries: make(map[string]bundleCacheEntry)}
}

// get returns the cached bundle, if any, and whether it is still fresh.
func (c *bundleCache) get(id string) (*model.Bundle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	b := entry.bundle
	return &b, time.Now().Before(entry.expiresAt)
}

func (c *bundleCache) set(b *model.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[b.ID] = bundleCacheEntry{bundle: b.Clone(), expiresAt: time.Now().Add(c.ttl)}
}

func (c *bundleCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}
