package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by KV.Get when no value is stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// KV is the durable string-keyed, string-valued store behind all per-student
// persisted state (in-progress exam, history ledger, auth session). A zero
// TTL means the entry does not expire.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ─── Redis implementation ───────────────────────────────────────────

type redisKV struct {
	rdb *redis.Client
}

// NewRedisKV wraps a Redis client as the production KV store.
func NewRedisKV(rdb *redis.Client) KV {
	return &redisKV{rdb: rdb}
}

func (s *redisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return val, err
}

func (s *redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *redisKV) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// ─── In-memory implementation (tests, dev) ──────────────────────────

type memoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

// NewMemoryKV returns a process-local KV store. TTLs are honored lazily on Get.
func NewMemoryKV() KV {
	return &memoryKV{entries: make(map[string]memoryEntry)}
}

func (s *memoryKV) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", ErrKeyNotFound
	}
	return e.value, nil
}

func (s *memoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *memoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
