//go:build !integration

package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInFlightGuard_Acquire(t *testing.T) {
	g := NewMemoryInFlightGuard()
	ctx := context.Background()

	release, ok, err := g.Acquire(ctx, "session:a")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = g.Acquire(ctx, "session:a")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire for the same owner must fail")

	otherRelease, ok, err := g.Acquire(ctx, "session:b")
	require.NoError(t, err)
	assert.True(t, ok, "owners are independent")
	otherRelease()

	release()
	release()

	again, ok, err := g.Acquire(ctx, "session:a")
	require.NoError(t, err)
	assert.True(t, ok)
	again()
}

func TestMemoryInFlightGuard_DoubleReleaseKeepsNewHolder(t *testing.T) {
	g := NewMemoryInFlightGuard()
	ctx := context.Background()

	first, ok, _ := g.Acquire(ctx, "owner")
	require.True(t, ok)
	first()

	second, ok, _ := g.Acquire(ctx, "owner")
	require.True(t, ok)
	defer second()

	first()

	_, ok, _ = g.Acquire(ctx, "owner")
	assert.False(t, ok, "a stale release must not free the current holder")
}

func TestMemoryInFlightGuard_Concurrent(t *testing.T) {
	g := NewMemoryInFlightGuard()
	ctx := context.Background()

	var admitted int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	releases := make(chan func(), 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			release, ok, err := g.Acquire(ctx, "owner")
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&admitted, 1)
				releases <- release
			}
		}()
	}
	close(start)
	wg.Wait()
	close(releases)

	assert.Equal(t, int32(1), atomic.LoadInt32(&admitted))
	for release := range releases {
		release()
	}
}
