package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/eventhub/internal/domain/providers"
	redisclient "github.com/zatekoja/eventhub/internal/infrastructure/clients/redis"
)

// DefaultKeyPrefix namespaces every key so the Redis database can be shared
const DefaultKeyPrefix = "eventhub:"

// RedisAdapter implements CacheProvider on Redis strings
type RedisAdapter struct {
	client *redisclient.Client
	prefix string
}

// Option configures a RedisAdapter
type Option func(*RedisAdapter)

// WithKeyPrefix replaces DefaultKeyPrefix
func WithKeyPrefix(prefix string) Option {
	return func(a *RedisAdapter) { a.prefix = prefix }
}

// NewRedisAdapter creates a new Redis cache adapter
func NewRedisAdapter(client *redisclient.Client, opts ...Option) providers.CacheProvider {
	a := &RedisAdapter{client: client, prefix: DefaultKeyPrefix}
	if p := client.KeyPrefix(); p != "" {
		a.prefix = p
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *RedisAdapter) key(k string) string {
	return a.prefix + k
}

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	return result, nil
}

// Set stores a value; a zero ttl means no expiry
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := a.client.Client().Set(ctx, a.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
	return nil
}

// Delete removes keys in a single round trip
func (a *RedisAdapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = a.key(k)
	}
	if err := a.client.Client().Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}
