// Package cache memoizes expensive results in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented cache with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NewRedisClient creates a client for the server at addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisStore is a Store backed by Redis strings.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore stores values under prefix+key.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Memoize returns the cached value for key, or calls fn and caches its
// result for ttl. Cache errors never fail the call; fn errors are returned
// and not cached.
func Memoize[T any](ctx context.Context, store Store, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var result T

	// Try fetching from cache
	cachedData, err := store.Get(ctx, key)
	if err == nil {
		if jsonErr := json.Unmarshal(cachedData, &result); jsonErr == nil {
			return result, nil
		}
	}

	// Call the actual function
	result, err = fn(ctx)
	if err != nil {
		return result, err
	}

	// Store result in cache
	if cacheData, err := json.Marshal(result); err == nil {
		_ = store.Set(ctx, key, cacheData, ttl)
	}

	return result, nil
}
