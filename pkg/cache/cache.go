// Package cache provides byte caches used as a read-through layer in front
// of commit storage.
//
// Commit records are immutable once written, so cached entries never go
// stale: a TTL of 0 means "keep forever" and is the normal choice for
// commit lookups. Three backends are provided:
//
//   - NullCache: caching disabled
//   - FileCache: per-user on-disk cache for the CLI
//   - RedisCache: shared cache for multi-process deployments
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry. A miss is (nil, false, nil);
// errors are reserved for backend failures.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// CommitKey builds the cache key for a commit record. Commit IDs are
// globally unique, so the ID alone scopes the key.
func CommitKey(commitID string) string {
	return hashKey("commit", commitID)
}
