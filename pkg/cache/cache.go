// Package cache provides the byte-level result cache used by the optimize
// pipeline.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// the API server and [NullCache] when caching is disabled. Keys are built by
// a [Keyer] from the hash of the input market and the optimization options,
// so identical requests hit the same entry.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is the lifetime of cached optimization results.
const DefaultTTL = 7 * 24 * time.Hour
