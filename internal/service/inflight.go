package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InFlightGuard admits at most one cart submission per owner at a time.
type InFlightGuard interface {
	// Acquire returns ok=false when the owner already has a submission in
	// flight. On success the caller must invoke release on every exit path.
	Acquire(ctx context.Context, owner string) (release func(), ok bool, err error)
}

// MemoryInFlightGuard tracks owners in process memory.
type MemoryInFlightGuard struct {
	mu     sync.Mutex
	owners map[string]struct{}
}

// NewMemoryInFlightGuard creates an empty in-process guard.
func NewMemoryInFlightGuard() *MemoryInFlightGuard {
	return &MemoryInFlightGuard{owners: make(map[string]struct{})}
}

// Acquire marks owner as busy.
func (g *MemoryInFlightGuard) Acquire(_ context.Context, owner string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.owners[owner]; busy {
		return nil, false, nil
	}
	g.owners[owner] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.owners, owner)
			g.mu.Unlock()
		})
	}, true, nil
}

// releaseScript deletes the flag only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisInFlightGuard shares the in-flight flag between replicas. The flag
// expires after ttl so a crashed replica cannot block an owner forever.
type RedisInFlightGuard struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisInFlightGuard creates a guard storing flags under prefix.
func NewRedisInFlightGuard(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisInFlightGuard {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisInFlightGuard{client: client, prefix: prefix + "inflight:", ttl: ttl}
}

// Acquire sets the owner flag with SET NX.
func (g *RedisInFlightGuard) Acquire(ctx context.Context, owner string) (func(), bool, error) {
	key := g.prefix + owner
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, g.client, []string{key}, token).Err()
		})
	}, true, nil
}
