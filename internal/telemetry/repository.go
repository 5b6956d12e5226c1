package telemetry

import (
	"context"
	"time"
)

// Collection is a durable, ordered record collection.
// Implementations return ErrStoreUnavailable (wrapped) when the backend fails.
type Collection[T Record] interface {
	Count(ctx context.Context) (int64, error)
	// Find returns up to limit records after skipping skip, in insertion order.
	Find(ctx context.Context, skip, limit int64) ([]T, error)
	Insert(ctx context.Context, record T) error
	// DeleteAll removes every record and returns how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)
}

// KeepTTL tells Cache.Set to leave an existing expiration untouched.
const KeepTTL time.Duration = -1

// Cache is a remote keyed byte store.
// Every method returns ErrCacheUnavailable (wrapped) when the cache cannot be reached.
type Cache interface {
	// Get returns ErrCacheMiss when key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value; ttl of 0 means no expiration, KeepTTL preserves the current one.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) error
}
