package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider is a byte-oriented key/value cache shared by all instances.
type CacheProvider interface {
	// Get returns ErrCacheMiss for an absent or expired key
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl; a zero ttl keeps it until deleted
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error
}
