package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/bundle-service/internal/logger"
)

// MemoryReplayStore keeps replays in process memory. Expired entries are
// swept on Save, at most once per TTL.
type MemoryReplayStore struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	replays   map[string]*Replay
	lastSweep time.Time
}

// NewMemoryReplayStore returns an empty store.
func NewMemoryReplayStore(ttl time.Duration) *MemoryReplayStore {
	return &MemoryReplayStore{ttl: ttl, now: time.Now, replays: make(map[string]*Replay)}
}

// Load implements ReplayStore.
func (s *MemoryReplayStore) Load(_ context.Context, fingerprint string) (*Replay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replay, ok := s.replays[fingerprint]
	if !ok || s.expired(replay) {
		return nil, false
	}
	return replay, true
}

// Save implements ReplayStore.
func (s *MemoryReplayStore) Save(_ context.Context, fingerprint string, replay *Replay) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := *replay
	stored.StoredAt = now
	s.replays[fingerprint] = &stored

	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for fp, r := range s.replays {
		if s.expired(r) {
			delete(s.replays, fp)
		}
	}
}

// Len returns the number of stored replays, expired ones included.
func (s *MemoryReplayStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replays)
}

func (s *MemoryReplayStore) expired(r *Replay) bool {
	return s.now().Sub(r.StoredAt) >= s.ttl
}

// RedisReplayStore shares replays between replicas.
type RedisReplayStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisReplayStore stores replays under prefix+"idempotency:".
func NewRedisReplayStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisReplayStore {
	return &RedisReplayStore{client: client, prefix: prefix + "idempotency:", ttl: ttl}
}

// Load implements ReplayStore. Redis errors and undecodable values are misses.
func (s *RedisReplayStore) Load(ctx context.Context, fingerprint string) (*Replay, bool) {
	raw, err := s.client.Get(ctx, s.prefix+fingerprint).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Ctx(ctx).Warn().Err(err).Msg("Replay store read failed")
		}
		return nil, false
	}

	var replay Replay
	if err := json.Unmarshal(raw, &replay); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("fingerprint", fingerprint).Msg("Discarding undecodable replay")
		return nil, false
	}
	return &replay, true
}

// Save implements ReplayStore.
func (s *RedisReplayStore) Save(ctx context.Context, fingerprint string, replay *Replay) {
	raw, err := json.Marshal(replay)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.prefix+fingerprint, raw, s.ttl).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Replay store write failed")
	}
}
