package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/metrics"
	"github.com/guttosm/bundle-service/internal/service"
)

var (
	// ErrLogBufferFull is returned when an entry is dropped because the buffer is at capacity.
	ErrLogBufferFull = errors.New("log buffer full")
	// ErrLogBufferClosed is returned for entries handed over after Close.
	ErrLogBufferClosed = errors.New("log buffer closed")
)

// LogBufferConfig sizes a LogBuffer.
type LogBufferConfig struct {
	// Capacity bounds the entries waiting to be written.
	Capacity int
	// BatchSize is the largest batch passed to CreateLogs.
	BatchSize int
	// FlushInterval is how long a partial batch may wait.
	FlushInterval time.Duration
	// WriteTimeout bounds each CreateLogs call.
	WriteTimeout time.Duration
}

// DefaultLogBufferConfig returns the production sizing.
func DefaultLogBufferConfig() LogBufferConfig {
	return LogBufferConfig{
		Capacity:      1000,
		BatchSize:     50,
		FlushInterval: 500 * time.Millisecond,
		WriteTimeout:  5 * time.Second,
	}
}

// LogBufferStats counts entries by outcome.
type LogBufferStats struct {
	Written int64
	Dropped int64
	Failed  int64
}

// LogBuffer is a service.LoggingService that queues CreateLog calls and
// writes them in batches from a single goroutine. Reads go straight to the
// wrapped service. Request handling never waits on the database: a full
// buffer drops the entry.
type LogBuffer struct {
	service.LoggingService

	cfg     LogBufferConfig
	entries chan *model.LogEntry
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewLogBuffer starts a buffer in front of next. Non-positive sizes fall
// back to DefaultLogBufferConfig.
func NewLogBuffer(next service.LoggingService, cfg LogBufferConfig) *LogBuffer {
	def := DefaultLogBufferConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	b := &LogBuffer{
		LoggingService: next,
		cfg:            cfg,
		entries:        make(chan *model.LogEntry, cfg.Capacity),
		done:           make(chan struct{}),
		stopped:        make(chan struct{}),
	}
	go b.run()
	return b
}

// CreateLog queues entry. It never blocks.
func (b *LogBuffer) CreateLog(_ context.Context, entry *model.LogEntry) error {
	select {
	case <-b.done:
		return ErrLogBufferClosed
	default:
	}

	select {
	case b.entries <- entry:
		return nil
	default:
		b.dropped.Add(1)
		metrics.AuditLogEntriesTotal.WithLabelValues("dropped").Inc()
		return ErrLogBufferFull
	}
}

// CreateLogs queues every entry, stopping at the first that cannot be queued.
func (b *LogBuffer) CreateLogs(ctx context.Context, entries []*model.LogEntry) error {
	for _, e := range entries {
		if err := b.CreateLog(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Close stops accepting entries and waits until the queued ones are written
// or ctx ends. It is safe to call more than once.
func (b *LogBuffer) Close(ctx context.Context) error {
	b.once.Do(func() { close(b.done) })

	select {
	case <-b.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the counters since the buffer started.
func (b *LogBuffer) Stats() LogBufferStats {
	return LogBufferStats{
		Written: b.written.Load(),
		Dropped: b.dropped.Load(),
		Failed:  b.failed.Load(),
	}
}

func (b *LogBuffer) run() {
	defer close(b.stopped)

	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	batch := b.newBatch()
	for {
		select {
		case e := <-b.entries:
			batch = append(batch, e)
			if len(batch) >= b.cfg.BatchSize {
				batch = b.flush(batch)
			}
		case <-ticker.C:
			batch = b.flush(batch)
		case <-b.done:
			b.drain(batch)
			return
		}
	}
}

func (b *LogBuffer) drain(batch []*model.LogEntry) {
	for {
		select {
		case e := <-b.entries:
			batch = append(batch, e)
			if len(batch) >= b.cfg.BatchSize {
				batch = b.flush(batch)
			}
		default:
			b.flush(batch)
			return
		}
	}
}

// flush writes batch and returns a fresh one; the written slice is handed
// to the store and not reused.
func (b *LogBuffer) flush(batch []*model.LogEntry) []*model.LogEntry {
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.WriteTimeout)
	defer cancel()

	n := int64(len(batch))
	if err := b.LoggingService.CreateLogs(ctx, batch); err != nil {
		b.failed.Add(n)
		metrics.AuditLogEntriesTotal.WithLabelValues("failed").Add(float64(n))
		log := logger.Logger()
		log.Warn().Err(err).Int64("entries", n).Msg("Failed to write log batch")
	} else {
		b.written.Add(n)
		metrics.AuditLogEntriesTotal.WithLabelValues("written").Add(float64(n))
	}
	return b.newBatch()
}

func (b *LogBuffer) newBatch() []*model.LogEntry {
	return make([]*model.LogEntry, 0, b.cfg.BatchSize)
}
