package repository

import (
	"context"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

// BundleRepositoryInterface stores the bundle catalog. It is implemented by
// the MongoDB and in-memory repositories and by the circuit-breaker wrapper.
type BundleRepositoryInterface interface {
	// Get returns ErrBundleNotFound when the id is unknown.
	Get(ctx context.Context, id string) (*model.Bundle, error)
	List(ctx context.Context) ([]model.Bundle, error)
	// Upsert stores the bundle and returns it with its new revision.
	Upsert(ctx context.Context, b *model.Bundle) (*model.Bundle, error)
}

// LogsRepositoryInterface stores request and audit log entries.
type LogsRepositoryInterface interface {
	Create(ctx context.Context, entry *LogEntryDocument) error
	CreateMany(ctx context.Context, entries []*LogEntryDocument) error
	// Query returns entries newest first.
	Query(ctx context.Context, opts LogQueryOptions) ([]*LogEntryDocument, error)
	Count(ctx context.Context, opts LogQueryOptions) (int64, error)
}
