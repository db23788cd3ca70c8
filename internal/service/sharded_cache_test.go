//go:build !integration

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewShardedCache(t *testing.T) {
	tests := []struct {
		name       string
		numShards  int
		wantShards int
	}{
		{"default shards when zero", 0, 16},
		{"default shards when negative", -1, 16},
		{"rounds up to power of 2", 3, 4},
		{"exact power of 2", 8, 8},
		{"rounds 5 to 8", 5, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewShardedCache(100, time.Minute, tt.numShards)
			defer c.Stop()

			assert.Len(t, c.shards, tt.wantShards)
			assert.Equal(t, uint32(tt.wantShards-1), c.shardMask)
		})
	}
}

func TestNewShardedCache_MinimumShardCapacity(t *testing.T) {
	c := NewShardedCache(2, time.Minute, 8)
	defer c.Stop()

	assert.Equal(t, 8, c.Metrics().Capacity)
}

func TestShardedCache_GetSetInvalidate(t *testing.T) {
	c := NewShardedCache(100, time.Minute, 4)
	defer c.Stop()

	keys := []string{"gift-box:1:candle", "gift-box:1:candle,soap|kraft", "coffee-trio:3:espresso"}
	for i, key := range keys {
		_, found := c.Get(key)
		assert.False(t, found)
		c.Set(key, quoteOf(int64(i+1)))
	}

	for i, key := range keys {
		value, found := c.Get(key)
		assert.True(t, found, key)
		assert.Equal(t, int64(i+1), value.UnitPriceCents)
	}

	c.Invalidate(keys[1])
	_, found := c.Get(keys[1])
	assert.False(t, found)
	_, found = c.Get(keys[0])
	assert.True(t, found)
}

func TestShardedCache_Clear(t *testing.T) {
	c := NewShardedCache(100, time.Minute, 4)
	defer c.Stop()

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("key-%d", i), quoteOf(int64(i)))
	}
	c.Clear()

	for i := 0; i < 10; i++ {
		_, found := c.Get(fmt.Sprintf("key-%d", i))
		assert.False(t, found)
	}
}

func TestShardedCache_Metrics(t *testing.T) {
	c := NewShardedCache(100, time.Minute, 4)
	defer c.Stop()

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key-%d", i), quoteOf(int64(i)))
	}
	for i := 0; i < 5; i++ {
		c.Get(fmt.Sprintf("key-%d", i))
	}
	for i := 100; i < 105; i++ {
		c.Get(fmt.Sprintf("key-%d", i))
	}

	m := c.Metrics()
	assert.Equal(t, int64(5), m.Hits)
	assert.Equal(t, int64(5), m.Misses)
	assert.Equal(t, 5, m.Size)
}

func TestShardedCache_ShardDistribution(t *testing.T) {
	c := NewShardedCache(400, time.Minute, 4)
	defer c.Stop()

	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("key-%d", i), quoteOf(int64(i)))
	}

	used := 0
	for _, s := range c.shards {
		if s.Metrics().Size > 0 {
			used++
		}
	}
	assert.Greater(t, used, 1)

	for i := 0; i < 100; i++ {
		result, found := c.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, found)
		assert.Equal(t, int64(i), result.UnitPriceCents)
	}
}
