// Package service contains the business logic for the bundle service.
package service

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/metrics"
	"github.com/guttosm/bundle-service/internal/service/cache"
)

// ShardedCache is an in-process quote cache. Entries are spread over
// independently locked shards to reduce contention between concurrent quotes.
type ShardedCache struct {
	shards    []*ttlCache
	shardMask uint32
}

// NewShardedCache creates a sharded cache with the given total capacity and TTL.
// numShards is rounded up to a power of two; zero or less means 16.
func NewShardedCache(capacity int, ttl time.Duration, numShards int) *ShardedCache {
	if numShards <= 0 {
		numShards = 16
	}
	n := 1
	for n < numShards {
		n <<= 1
	}

	perShard := capacity / n
	if perShard < 1 {
		perShard = 1
	}

	shards := make([]*ttlCache, n)
	for i := range shards {
		shards[i] = newTTLCache(perShard, ttl)
	}
	return &ShardedCache{shards: shards, shardMask: uint32(n - 1)}
}

func (sc *ShardedCache) shard(key string) *ttlCache {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return sc.shards[h.Sum32()&sc.shardMask]
}

// Get retrieves a quote from the owning shard.
func (sc *ShardedCache) Get(key string) (model.Quote, bool) {
	return sc.shard(key).Get(key)
}

// Set stores a quote in the owning shard.
func (sc *ShardedCache) Set(key string, value model.Quote) {
	sc.shard(key).Set(key, value)
}

// Invalidate removes a key.
func (sc *ShardedCache) Invalidate(key string) {
	sc.shard(key).Invalidate(key)
}

// Clear removes all entries from all shards.
func (sc *ShardedCache) Clear() {
	for _, s := range sc.shards {
		s.Clear()
	}
}

// Stop shuts down the cleanup loops of all shards.
func (sc *ShardedCache) Stop() {
	for _, s := range sc.shards {
		s.Stop()
	}
}

// Metrics returns metrics aggregated over all shards.
func (sc *ShardedCache) Metrics() cache.Metrics {
	var total cache.Metrics
	for _, s := range sc.shards {
		m := s.Metrics()
		total.Hits += m.Hits
		total.Misses += m.Misses
		total.Evictions += m.Evictions
		total.Size += m.Size
		total.Capacity += m.Capacity
	}
	return total
}

// ttlCache is a thread-safe LRU cache whose entries also expire after ttl.
type ttlCache struct {
	mu        sync.Mutex
	capacity  int
	ttl       time.Duration
	items     map[string]*list.Element
	order     *list.List
	stopCh    chan struct{}
	stopOnce  sync.Once
	hits      int64
	misses    int64
	evictions int64
}

type cacheEntry struct {
	key       string
	value     model.Quote
	expiresAt time.Time
}

// newTTLCache creates a cache and starts its background expiry sweep.
func newTTLCache(capacity int, ttl time.Duration) *ttlCache {
	c := &ttlCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		stopCh:   make(chan struct{}),
	}
	go c.cleanupLoop(time.Minute)
	return c
}

// Get returns a live entry and marks it most recently used.
func (c *ttlCache) Get(key string) (model.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		metrics.RecordCacheOperation("get", "miss")
		return model.Quote{}, false
	}

	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeElement(el)
		atomic.AddInt64(&c.misses, 1)
		metrics.RecordCacheOperation("get", "expired")
		return model.Quote{}, false
	}

	c.order.MoveToFront(el)
	atomic.AddInt64(&c.hits, 1)
	metrics.RecordCacheOperation("get", "hit")
	return entry.value, true
}

// Set adds or refreshes an entry, evicting the least recently used one when full.
func (c *ttlCache) Set(key string, value model.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})
	if c.order.Len() > c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
			atomic.AddInt64(&c.evictions, 1)
			metrics.RecordCacheOperation("evict", "capacity")
		}
	}
	metrics.RecordCacheOperation("set", "success")
}

// Invalidate removes a key if present.
func (c *ttlCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
		metrics.RecordCacheOperation("invalidate", "success")
	}
}

// Clear drops all entries and resets the counters.
func (c *ttlCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.evictions, 0)
	metrics.RecordCacheOperation("clear", "success")
}

// Stop ends the background sweep. Safe to call more than once.
func (c *ttlCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Metrics returns the current counters.
func (c *ttlCache) Metrics() cache.Metrics {
	c.mu.Lock()
	size := len(c.items)
	c.mu.Unlock()

	return cache.Metrics{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      size,
		Capacity:  c.capacity,
	}
}

func (c *ttlCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *ttlCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := time.Now()
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if current.After(el.Value.(*cacheEntry).expiresAt) {
			c.removeElement(el)
		}
		el = prev
	}
}

func (c *ttlCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*cacheEntry).key)
}
