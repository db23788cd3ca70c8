package middleware

import (
	"context"
	"hash/fnv"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/i18n"
	"github.com/guttosm/bundle-service/internal/logger"
)

const defaultNumShards = 16

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	// Allow records one request for key and reports whether it fits the
	// current window, along with the requests left in it.
	Allow(ctx context.Context, key string) (allowed bool, remaining int)
	Rate() int
	Window() time.Duration
}

type window struct {
	count   int
	started time.Time
}

type limiterShard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// MemoryRateLimiter keeps windows in process memory, spread over shards so
// busy keys do not contend on one lock.
type MemoryRateLimiter struct {
	shards []*limiterShard
	rate   int
	window time.Duration
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

// NewRateLimiter creates an in-memory limiter with the default shard count.
func NewRateLimiter(rate int, window time.Duration) *MemoryRateLimiter {
	return NewShardedRateLimiter(rate, window, defaultNumShards)
}

// NewShardedRateLimiter creates an in-memory limiter. A non-positive shard
// count falls back to the default.
func NewShardedRateLimiter(rate int, win time.Duration, numShards int) *MemoryRateLimiter {
	if numShards <= 0 {
		numShards = defaultNumShards
	}
	rl := &MemoryRateLimiter{
		shards: make([]*limiterShard, numShards),
		rate:   rate,
		window: win,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for i := range rl.shards {
		rl.shards[i] = &limiterShard{windows: make(map[string]*window)}
	}
	go rl.sweep()
	return rl
}

func (rl *MemoryRateLimiter) shard(key string) *limiterShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return rl.shards[h.Sum32()%uint32(len(rl.shards))]
}

// Allow implements Limiter.
func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, int) {
	s := rl.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := rl.now()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.started) >= rl.window {
		w = &window{started: now}
		s.windows[key] = w
	}
	if w.count >= rl.rate {
		return false, 0
	}
	w.count++
	return true, rl.rate - w.count
}

func (rl *MemoryRateLimiter) Rate() int             { return rl.rate }
func (rl *MemoryRateLimiter) Window() time.Duration { return rl.window }

// Len returns the number of tracked keys.
func (rl *MemoryRateLimiter) Len() int {
	n := 0
	for _, s := range rl.shards {
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}

func (rl *MemoryRateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictExpired()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) evictExpired() {
	now := rl.now()
	for _, s := range rl.shards {
		s.mu.Lock()
		for key, w := range s.windows {
			if now.Sub(w.started) >= rl.window {
				delete(s.windows, key)
			}
		}
		s.mu.Unlock()
	}
}

// Stop ends the background sweep. It is safe to call more than once.
func (rl *MemoryRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// RedisRateLimiter shares windows between replicas. Each window is one
// counter key that expires with the window.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	rate   int
	window time.Duration
}

// NewRedisRateLimiter creates a Redis-backed limiter.
func NewRedisRateLimiter(client redis.UniversalClient, prefix string, rate int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, prefix: prefix, rate: rate, window: window}
}

// Allow implements Limiter. Redis errors let the request through.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int) {
	redisKey := rl.prefix + "ratelimit:" + key
	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, rl.window)
		return nil
	})
	if err != nil {
		logger.Logger().Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return true, rl.rate
	}

	count := int(incr.Val())
	if count > rl.rate {
		return false, 0
	}
	return true, rl.rate - count
}

func (rl *RedisRateLimiter) Rate() int             { return rl.rate }
func (rl *RedisRateLimiter) Window() time.Duration { return rl.window }

// RateLimitByIP limits requests per client address.
func RateLimitByIP(l Limiter) gin.HandlerFunc {
	return rateLimit(l, func(c *gin.Context) string { return "ip:" + c.ClientIP() })
}

// RateLimitBySubject limits requests per authenticated storefront caller and
// falls back to the client address for anonymous requests.
func RateLimitBySubject(l Limiter) gin.HandlerFunc {
	return rateLimit(l, subjectKey)
}

func subjectKey(c *gin.Context) string {
	if subject := GetSubject(c); subject != "" {
		return "subject:" + subject
	}
	return "anon:" + c.ClientIP()
}

func rateLimit(l Limiter, key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := l.Allow(c.Request.Context(), key(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.Rate()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(int(l.Window().Seconds())))
		msg := i18n.GetTranslator().Translate(i18n.ErrKeyRateLimitExceeded, i18n.GetLocale(c))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewError(dto.ErrCodeRateLimit, msg).WithRequestID(GetRequestID(c)))
	}
}
