package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the minimal command surface the store needs. *redis.Client
// satisfies it; tests substitute an in-memory fake (see redistest).
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	DBSize(ctx context.Context) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Store wraps the key-value service with the typed operations the keepalive
// pipelines need. It holds no state of its own.
type Store struct {
	client Client
}

// NewStore creates a new store over a Redis client.
func NewStore(client Client) *Store {
	return &Store{client: client}
}

// SetWithTTL writes a value under key with an expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Get returns the value for key; ok is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, true, nil
}

// IncrOrInit atomically increments the counter at key, creating it at 1 with
// ttl when absent. When refreshTTL is true a plain increment also renews the
// TTL. Returns the counter value after the operation.
func (s *Store) IncrOrInit(ctx context.Context, key string, ttl time.Duration, refreshTTL bool) (int64, error) {
	script := scriptIncrOrInit
	if refreshTTL {
		script = scriptIncrOrInitRefresh
	}

	n, err := s.client.Eval(ctx, script, []string{key}, int64(ttl.Seconds())).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	return n, nil
}

// PushCapped atomically prepends value to the list at key, trims the list to
// its newest max entries and, when ttl > 0, renews the key TTL. Returns the
// resulting list, newest first.
func (s *Store) PushCapped(ctx context.Context, key, value string, max int, ttl time.Duration) ([]string, error) {
	entries, err := s.client.Eval(ctx, scriptPushCapped, []string{key}, value, max, int64(ttl.Seconds())).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return entries, nil
}

// Range returns list entries between start and stop (inclusive, -1 = end).
func (s *Store) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	entries, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", key, err)
	}
	return entries, nil
}

// Delete removes keys. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// KeyCount returns the store-wide key count (coarse database-size signal).
func (s *Store) KeyCount(ctx context.Context) (int64, error) {
	n, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read key count: %w", err)
	}
	return n, nil
}

// HashSet writes field/value pairs on a hash key.
func (s *Store) HashSet(ctx context.Context, key string, pairs ...interface{}) error {
	if err := s.client.HSet(ctx, key, pairs...).Err(); err != nil {
		return fmt.Errorf("failed to hset %s: %w", key, err)
	}
	return nil
}

// HashIncrBy atomically increments a hash field.
func (s *Store) HashIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	n, err := s.client.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to hincrby %s.%s: %w", key, field, err)
	}
	return n, nil
}

// HashGetAll returns all fields of a hash; an absent key yields an empty map.
func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to hgetall %s: %w", key, err)
	}
	return m, nil
}

// Ping checks store reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
