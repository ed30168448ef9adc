// Package cache provides the key/value cache used cache-aside by the
// catalog service, with a Redis-backed production implementation.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss reports that a key is absent from the cache.
var ErrMiss = errors.New("cache: key not found")

// Cache is the narrow k/v contract the services depend on. Values expire
// after the TTL passed to Set.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
