package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkAndIncrScript increments the window counter and, only when this
// increment created the key, attaches the window expiry — one EVAL, so
// there is no create/expire race between concurrent callers.
const checkAndIncrScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

// RedisStore Redis-backed counter store shared by all service instances
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	script    *redis.Script
}

// NewRedisStore creates a Redis counter store
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "rate_limit:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		script:    redis.NewScript(checkAndIncrScript),
	}
}

// buildKey constructs the complete key
func (s *RedisStore) buildKey(key string) string {
	return s.keyPrefix + key
}

// CheckAndIncr atomically increments the counter with conditional expiry
func (s *RedisStore) CheckAndIncr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	res, err := s.script.Run(ctx, s.client, []string{s.buildKey(key)}, seconds).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("%w: unexpected script reply %T", ErrStoreUnavailable, res)
	}

	count, _ := vals[0].(int64)
	ttlSeconds, _ := vals[1].(int64)
	if ttlSeconds < 0 {
		ttlSeconds = 0
	}
	return count, time.Duration(ttlSeconds) * time.Second, nil
}

// Peek reads count and TTL without touching the counter
func (s *RedisStore) Peek(ctx context.Context, key string) (int64, time.Duration, error) {
	fullKey := s.buildKey(key)

	count, err := s.client.Get(ctx, fullKey).Int64()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ttl, err := s.client.TTL(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

// Reset deletes the given counters
func (s *RedisStore) Reset(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = s.buildKey(key)
	}
	if err := s.client.Del(ctx, fullKeys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ResetPrefix deletes every counter matching prefix via SCAN
func (s *RedisStore) ResetPrefix(ctx context.Context, prefix string) error {
	pattern := s.buildKey(prefix) + "*"

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close is a no-op: the client is owned by the redis manager
func (s *RedisStore) Close() error {
	return nil
}
