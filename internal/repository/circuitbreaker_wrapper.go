package repository

import (
	"context"
	"errors"

	"github.com/guttosm/bundle-service/internal/circuitbreaker"
	"github.com/guttosm/bundle-service/internal/domain/model"
)

// BundleRepositoryWithCircuitBreaker guards a bundle repository. A missing
// bundle is an answer, not a failure, so it never trips the breaker.
type BundleRepositoryWithCircuitBreaker struct {
	repo BundleRepositoryInterface
	cb   *circuitbreaker.CircuitBreaker
}

// NewBundleRepositoryWithCircuitBreaker wraps repo with cb.
func NewBundleRepositoryWithCircuitBreaker(repo BundleRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *BundleRepositoryWithCircuitBreaker {
	return &BundleRepositoryWithCircuitBreaker{repo: repo, cb: cb}
}

func (r *BundleRepositoryWithCircuitBreaker) Get(ctx context.Context, id string) (*model.Bundle, error) {
	return circuitbreaker.Do(ctx, r.cb, func(ctx context.Context) (*model.Bundle, error) {
		b, err := r.repo.Get(ctx, id)
		if errors.Is(err, ErrBundleNotFound) {
			return nil, circuitbreaker.Exclude(err)
		}
		return b, err
	})
}

func (r *BundleRepositoryWithCircuitBreaker) List(ctx context.Context) ([]model.Bundle, error) {
	return circuitbreaker.Do(ctx, r.cb, r.repo.List)
}

func (r *BundleRepositoryWithCircuitBreaker) Upsert(ctx context.Context, b *model.Bundle) (*model.Bundle, error) {
	return circuitbreaker.Do(ctx, r.cb, func(ctx context.Context) (*model.Bundle, error) {
		return r.repo.Upsert(ctx, b)
	})
}

// GetCircuitBreaker exposes the breaker to the readiness check.
func (r *BundleRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.cb
}

// LogsRepositoryWithCircuitBreaker guards a logs repository. Writes shed
// by an open circuit are dropped without error: losing log entries is
// preferable to failing the request that produced them.
type LogsRepositoryWithCircuitBreaker struct {
	repo LogsRepositoryInterface
	cb   *circuitbreaker.CircuitBreaker
}

// NewLogsRepositoryWithCircuitBreaker wraps repo with cb.
func NewLogsRepositoryWithCircuitBreaker(repo LogsRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *LogsRepositoryWithCircuitBreaker {
	return &LogsRepositoryWithCircuitBreaker{repo: repo, cb: cb}
}

func (r *LogsRepositoryWithCircuitBreaker) Create(ctx context.Context, entry *LogEntryDocument) error {
	return dropWhenOpen(r.cb.Execute(ctx, func() error {
		return r.repo.Create(ctx, entry)
	}))
}

func (r *LogsRepositoryWithCircuitBreaker) CreateMany(ctx context.Context, entries []*LogEntryDocument) error {
	return dropWhenOpen(r.cb.Execute(ctx, func() error {
		return r.repo.CreateMany(ctx, entries)
	}))
}

func (r *LogsRepositoryWithCircuitBreaker) Query(ctx context.Context, opts LogQueryOptions) ([]*LogEntryDocument, error) {
	return circuitbreaker.Do(ctx, r.cb, func(ctx context.Context) ([]*LogEntryDocument, error) {
		return r.repo.Query(ctx, opts)
	})
}

func (r *LogsRepositoryWithCircuitBreaker) Count(ctx context.Context, opts LogQueryOptions) (int64, error) {
	return circuitbreaker.Do(ctx, r.cb, func(ctx context.Context) (int64, error) {
		return r.repo.Count(ctx, opts)
	})
}

// GetCircuitBreaker exposes the breaker to the readiness check.
func (r *LogsRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.cb
}

func dropWhenOpen(err error) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil
	}
	return err
}
