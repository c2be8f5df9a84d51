package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("cache: key not found")

// Cache defines the unified interface for key-value store operations.
// This abstraction allows switching between different implementations
// (Redis, local memory) without changing pipeline logic. The destination
// config store and the API token store both live behind it.
type Cache interface {
	// Get retrieves the value for the given key.
	// Returns ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a key-value pair with optional TTL
	// If ttl is 0, the key will not expire
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) error

	// Exists checks if one or more keys exist
	// Returns the number of keys that exist
	Exists(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies the store connection is alive
	Ping(ctx context.Context) error

	// Close closes the store connection
	Close() error
}
