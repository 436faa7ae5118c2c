package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the JSON key/value store behind the cached ledger
type Cache interface {
	// GetJSON unmarshals the value at key into dest. A missing key returns
	// ErrCacheKeyNotFound.
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON marshals value and stores it with the given TTL
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys
	Delete(ctx context.Context, keys ...string) error

	Close() error
}

// ErrCacheKeyNotFound is returned on a cache miss
type ErrCacheKeyNotFound struct {
	Key string
}

func (e ErrCacheKeyNotFound) Error() string {
	return fmt.Sprintf("cache key not found: %s", e.Key)
}

// ErrCacheCorrupt is returned when a stored value cannot be decoded
type ErrCacheCorrupt struct {
	Key string
	Err error
}

func (e ErrCacheCorrupt) Error() string {
	return fmt.Sprintf("cache value at %s is corrupt: %v", e.Key, e.Err)
}

func (e ErrCacheCorrupt) Unwrap() error { return e.Err }
