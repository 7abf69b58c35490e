package localstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores device storage in Redis under "<prefix><namespace>:<key>".
// A non-zero idle TTL is refreshed on every write so abandoned devices expire.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisBackend creates a Redis-based backend that owns client. Prefix may
// be empty; idleTTL 0 disables expiry.
func NewRedisBackend(client *redis.Client, prefix string, idleTTL time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "localstore:"
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: idleTTL}
}

func (b *RedisBackend) Scope(namespace string) Storage {
	return &redisStorage{b: b, ns: namespace}
}

// Close releases the Redis client.
func (b *RedisBackend) Close() error { return b.client.Close() }

type redisStorage struct {
	b  *RedisBackend
	ns string
}

func (s *redisStorage) key(k string) string {
	return s.b.prefix + s.ns + ":" + k
}

func (s *redisStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	v, err := s.b.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (s *redisStorage) SetItem(ctx context.Context, key string, value []byte) error {
	return s.b.client.Set(ctx, s.key(key), value, s.b.ttl).Err()
}

func (s *redisStorage) RemoveItem(ctx context.Context, key string) error {
	return s.b.client.Del(ctx, s.key(key)).Err()
}
