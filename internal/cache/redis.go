package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"persondir/pkg/platform/sentinel"
)

const defaultKeyPrefix = "persondir:cache:"

// RedisStore is a Redis-backed Store for multi-instance deployments. Entries
// expire after the configured TTL; expiry is an eviction, indistinguishable
// from a remove to callers.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the namespace prefix applied to every key.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore constructs a Redis-backed store. A zero TTL stores entries
// without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration, opts ...RedisStoreOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    ttl,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %v: %w", err, sentinel.ErrBackend)
	}
	return value, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) (bool, error) {
	// SET with GET returns the previous value, so one round trip tells us
	// whether the key is new.
	_, err := s.client.SetArgs(ctx, s.prefix+key, value, redis.SetArgs{
		TTL: s.ttl,
		Get: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis set: %v: %w", err, sentinel.ErrBackend)
	}
	return false, nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) (bool, error) {
	removed, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %v: %w", err, sentinel.ErrBackend)
	}
	return removed > 0, nil
}

func (s *RedisStore) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %v: %w", err, sentinel.ErrBackend)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %v: %w", err, sentinel.ErrBackend)
	}
	return nil
}

func (s *RedisStore) Size(ctx context.Context) (int64, error) {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	var count int64
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %v: %w", err, sentinel.ErrBackend)
	}
	return count, nil
}
