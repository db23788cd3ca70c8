package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps selection sessions for a limited time.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	// Update runs fn on the current session and stores the result. Updates
	// to one session never interleave.
	Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

// DefaultSessionTTL applies when a store is created without an expiry.
const DefaultSessionTTL = 30 * time.Minute

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
}

type memorySession struct {
	session   model.Session
	expiresAt time.Time
}

// NewMemorySessionStore creates an in-memory store with sliding expiry.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{ttl: ttl, sessions: make(map[string]memorySession)}
}

// Create stores a new session.
func (m *MemorySessionStore) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictExpired()
	m.sessions[s.ID] = memorySession{session: copySession(*s), expiresAt: time.Now().Add(m.ttl)}
	return nil
}

// Get returns a copy of the session.
func (m *MemorySessionStore) Get(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.live(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := copySession(entry.session)
	return &out, nil
}

// Update applies fn under the store lock.
func (m *MemorySessionStore) Update(_ context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.live(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	working := copySession(entry.session)
	if err := fn(&working); err != nil {
		return nil, err
	}
	m.sessions[id] = memorySession{session: copySession(working), expiresAt: time.Now().Add(m.ttl)}
	return &working, nil
}

// Delete removes the session. Deleting an unknown session is not an error.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// live must be called with m.mu held.
func (m *MemorySessionStore) live(id string) (memorySession, bool) {
	entry, ok := m.sessions[id]
	if !ok {
		return memorySession{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.sessions, id)
		return memorySession{}, false
	}
	return entry, true
}

// evictExpired must be called with m.mu held.
func (m *MemorySessionStore) evictExpired() {
	now := time.Now()
	for id, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

func copySession(s model.Session) model.Session {
	s.Selection = s.Selection.Clone()
	return s
}

// RedisSessionStore keeps sessions in Redis so any replica can serve them.
type RedisSessionStore struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	maxRetries int
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix + "session:", ttl: ttl, maxRetries: 10}
}

// Create stores a new session.
func (r *RedisSessionStore) Create(ctx context.Context, s *model.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return r.client.Set(ctx, r.prefix+s.ID, raw, r.ttl).Err()
}

// Get loads a session.
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	return r.load(ctx, r.client, id)
}

// Update applies fn inside an optimistic WATCH transaction, retrying when
// another writer changed the session in between.
func (r *RedisSessionStore) Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	key := r.prefix + id

	var updated *model.Session
	txf := func(tx *redis.Tx) error {
		s, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		raw, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, r.ttl)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for i := 0; i < r.maxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("updating session %s: %w", id, redis.TxFailedErr)
}

// Delete removes the session.
func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}

// stringGetter is satisfied by both the client and a WATCH transaction.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisSessionStore) load(ctx context.Context, c stringGetter, id string) (*model.Session, error) {
	raw, err := c.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &s, nil
}
