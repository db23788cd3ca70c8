package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/repository"
)

// LoggingService persists request and audit entries to the logs collection.
type LoggingService interface {
	CreateLog(ctx context.Context, entry *model.LogEntry) error
	// CreateLogs stores a batch. An empty batch is a no-op.
	CreateLogs(ctx context.Context, entries []*model.LogEntry) error
	QueryLogs(ctx context.Context, opts model.LogQueryOptions) ([]model.LogEntry, error)
	CountLogs(ctx context.Context, opts model.LogQueryOptions) (int64, error)
}

type logStore struct {
	repo repository.LogsRepositoryInterface
	now  func() time.Time
}

// NewLoggingService returns a LoggingService backed by repo.
func NewLoggingService(repo repository.LogsRepositoryInterface) LoggingService {
	return &logStore{repo: repo, now: time.Now}
}

func (s *logStore) CreateLog(ctx context.Context, entry *model.LogEntry) error {
	return s.repo.Create(ctx, s.stamp(entry))
}

func (s *logStore) CreateLogs(ctx context.Context, entries []*model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]*repository.LogEntryDocument, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, s.stamp(e))
	}
	return s.repo.CreateMany(ctx, docs)
}

func (s *logStore) QueryLogs(ctx context.Context, opts model.LogQueryOptions) ([]model.LogEntry, error) {
	docs, err := s.repo.Query(ctx, repository.LogQueryOptions(opts))
	if err != nil {
		return nil, err
	}
	entries := make([]model.LogEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, fromLogDocument(d))
	}
	return entries, nil
}

func (s *logStore) CountLogs(ctx context.Context, opts model.LogQueryOptions) (int64, error) {
	return s.repo.Count(ctx, repository.LogQueryOptions(opts))
}

// stamp assigns a missing id and timestamp on the entry itself, so callers
// can correlate what they logged with what was stored.
func (s *logStore) stamp(e *model.LogEntry) *repository.LogEntryDocument {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	doc := repository.LogEntryDocument(*e)
	return &doc
}

func fromLogDocument(d *repository.LogEntryDocument) model.LogEntry {
	return model.LogEntry(*d)
}
