//go:build !integration

package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/metrics"
	"github.com/guttosm/bundle-service/internal/mocks"
)

// batchRecorder collects the batches passed to CreateLogs.
type batchRecorder struct {
	mu      sync.Mutex
	batches [][]*model.LogEntry
}

func (r *batchRecorder) record(args mock.Arguments) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, args.Get(1).([]*model.LogEntry))
}

func (r *batchRecorder) sizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sizes := make([]int, len(r.batches))
	for i, b := range r.batches {
		sizes[i] = len(b)
	}
	return sizes
}

func (r *batchRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.batches {
		for _, e := range b {
			out = append(out, e.Message)
		}
	}
	return out
}

func cartEntry(n int) *model.LogEntry {
	return &model.LogEntry{
		Level:      "info",
		Message:    fmt.Sprintf("Cart submitted %d", n),
		BundleID:   "gift-box",
		ActionType: model.AuditActionCartSubmit,
	}
}

func closeBuffer(t *testing.T, b *LogBuffer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Close(ctx))
}

func TestNewLogBuffer_Defaults(t *testing.T) {
	b := NewLogBuffer(mocks.NewMockLoggingService(t), LogBufferConfig{BatchSize: 10})
	defer closeBuffer(t, b)

	def := DefaultLogBufferConfig()
	assert.Equal(t, 10, b.cfg.BatchSize)
	assert.Equal(t, def.Capacity, b.cfg.Capacity)
	assert.Equal(t, def.FlushInterval, b.cfg.FlushInterval)
	assert.Equal(t, def.WriteTimeout, b.cfg.WriteTimeout)
}

func TestLogBuffer_FullBatches(t *testing.T) {
	rec := &batchRecorder{}
	ls := mocks.NewMockLoggingService(t)
	ls.On("CreateLogs", mock.Anything, mock.Anything).Run(rec.record).Return(nil)

	b := NewLogBuffer(ls, LogBufferConfig{Capacity: 100, BatchSize: 4, FlushInterval: time.Hour})
	for i := 0; i < 10; i++ {
		require.NoError(t, b.CreateLog(context.Background(), cartEntry(i)))
	}

	assert.Eventually(t, func() bool {
		return len(rec.sizes()) == 2
	}, time.Second, 5*time.Millisecond, "two full batches without waiting for the ticker")

	closeBuffer(t, b)
	assert.Equal(t, []int{4, 4, 2}, rec.sizes())
	assert.Equal(t, "Cart submitted 0", rec.messages()[0])
	assert.Equal(t, "Cart submitted 9", rec.messages()[9])
	assert.Equal(t, LogBufferStats{Written: 10}, b.Stats())
}

func TestLogBuffer_FlushInterval(t *testing.T) {
	rec := &batchRecorder{}
	ls := mocks.NewMockLoggingService(t)
	ls.On("CreateLogs", mock.Anything, mock.Anything).Run(rec.record).Return(nil)

	b := NewLogBuffer(ls, LogBufferConfig{Capacity: 100, BatchSize: 50, FlushInterval: 10 * time.Millisecond})
	defer closeBuffer(t, b)

	require.NoError(t, b.CreateLog(context.Background(), cartEntry(1)))

	assert.Eventually(t, func() bool {
		return b.Stats().Written == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{1}, rec.sizes())
}

func TestLogBuffer_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	ls := mocks.NewMockLoggingService(t)
	ls.On("CreateLogs", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-release }).Return(nil)

	b := NewLogBuffer(ls, LogBufferConfig{Capacity: 2, BatchSize: 1, FlushInterval: time.Hour})
	before := promtest.ToFloat64(metrics.AuditLogEntriesTotal.WithLabelValues("dropped"))

	// The first entry is taken by the writer, which then blocks.
	require.NoError(t, b.CreateLog(context.Background(), cartEntry(0)))
	require.Eventually(t, func() bool { return len(b.entries) == 0 }, time.Second, time.Millisecond)

	var dropped int
	for i := 1; i <= 5; i++ {
		if errors.Is(b.CreateLog(context.Background(), cartEntry(i)), ErrLogBufferFull) {
			dropped++
		}
	}

	assert.Equal(t, 3, dropped)
	assert.Equal(t, int64(3), b.Stats().Dropped)
	assert.Equal(t, float64(3), promtest.ToFloat64(metrics.AuditLogEntriesTotal.WithLabelValues("dropped"))-before)

	close(release)
	closeBuffer(t, b)
	assert.Equal(t, int64(3), b.Stats().Written)
}

func TestLogBuffer_WriteFailure(t *testing.T) {
	ls := mocks.NewMockLoggingService(t)
	ls.On("CreateLogs", mock.Anything, mock.Anything).Return(errors.New("mongo: no reachable servers"))

	b := NewLogBuffer(ls, LogBufferConfig{Capacity: 10, BatchSize: 5, FlushInterval: time.Hour})
	before := promtest.ToFloat64(metrics.AuditLogEntriesTotal.WithLabelValues("failed"))

	require.NoError(t, b.CreateLogs(context.Background(), []*model.LogEntry{cartEntry(1), cartEntry(2), cartEntry(3)}))
	closeBuffer(t, b)

	assert.Equal(t, LogBufferStats{Failed: 3}, b.Stats())
	assert.Equal(t, float64(3), promtest.ToFloat64(metrics.AuditLogEntriesTotal.WithLabelValues("failed"))-before)
}

func TestLogBuffer_Close(t *testing.T) {
	t.Run("rejects entries afterwards", func(t *testing.T) {
		b := NewLogBuffer(mocks.NewMockLoggingService(t), LogBufferConfig{})
		closeBuffer(t, b)
		closeBuffer(t, b)

		assert.ErrorIs(t, b.CreateLog(context.Background(), cartEntry(1)), ErrLogBufferClosed)
	})

	t.Run("gives up when the context ends", func(t *testing.T) {
		release := make(chan struct{})
		ls := mocks.NewMockLoggingService(t)
		ls.On("CreateLogs", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-release }).Return(nil)

		b := NewLogBuffer(ls, LogBufferConfig{BatchSize: 1, FlushInterval: time.Hour})
		require.NoError(t, b.CreateLog(context.Background(), cartEntry(1)))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, b.Close(ctx), context.DeadlineExceeded)

		close(release)
		closeBuffer(t, b)
	})
}

func TestLogBuffer_ReadsPassThrough(t *testing.T) {
	opts := model.LogQueryOptions{BundleID: "gift-box"}
	ls := mocks.NewMockLoggingService(t)
	ls.On("CountLogs", mock.Anything, opts).Return(int64(7), nil)

	b := NewLogBuffer(ls, LogBufferConfig{})
	defer closeBuffer(t, b)

	n, err := b.CountLogs(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
