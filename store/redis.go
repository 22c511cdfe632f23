package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mokokaf/interactions-api/interfaces"
)

const (
	cacheKeyPrefix = "interaction:"
	limitKeyPrefix = "ratelimit:"
)

// Compile-time checks.
var (
	_ interfaces.Store       = (*RedisStore)(nil)
	_ interfaces.RateLimiter = (*RedisLimiter)(nil)
)

// RedisStore backs the interaction cache with Redis native TTL, for
// deployments running more than one instance behind a load balancer.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store with the given entry TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns the live entry for key, or nil on miss. Expiry is handled by
// Redis itself.
func (s *RedisStore) Get(ctx context.Context, key string) (*interfaces.CacheEntry, error) {
	data, err := s.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry interfaces.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is a miss, not a failure.
		return nil, nil
	}
	return &entry, nil
}

// Set stores the entry under key with the native TTL.
func (s *RedisStore) Set(ctx context.Context, key string, entry interfaces.CacheEntry) error {
	entry.ExpiresAt = time.Now().Add(s.ttl)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := s.client.Set(ctx, cacheKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, cacheKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Sweep is a no-op: Redis evicts expired keys natively.
func (s *RedisStore) Sweep(context.Context) error { return nil }

// RedisLimiter implements the fixed window with INCR + EXPIRE: the first
// request of a window creates the counter and arms its expiry.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a Redis-backed fixed-window limiter.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// Allow records one request for the client and reports whether it fits the
// current window.
func (l *RedisLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	key := limitKeyPrefix + clientID
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("redis expire: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}

// Sweep is a no-op: window keys expire natively.
func (l *RedisLimiter) Sweep(context.Context) error { return nil }
