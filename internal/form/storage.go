package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"goodboy-intake/internal/common/database"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Storage.Load when no draft exists for the key.
var ErrNotFound = errors.New("draft not found")

// Storage is the durable key-value store behind the form state store.
// Implementations must treat the value as an opaque JSON blob.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// RedisStorage persists drafts in Redis with an optional TTL.
type RedisStorage struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisStorage(client *database.RedisClient, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (s *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(val), nil
}

func (s *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, key, data, s.ttl)
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key)
}

// MemoryStorage is an in-process Storage used in tests and as the implicit
// fallback mode when Redis is unreachable.
type MemoryStorage struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{drafts: make(map[string][]byte)}
}

func (s *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.drafts[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.drafts[key] = stored
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}
