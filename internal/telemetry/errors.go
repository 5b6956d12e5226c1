package telemetry

import "errors"

var (
	// ErrCacheMiss is returned by Cache.Get for a key that does not exist.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable means the cache could not be reached even after a reconnect.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrStoreUnavailable means the durable store failed. It is never swallowed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRateLimited rejects a client that has used up its tokens for the window.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnauthenticated covers missing, unknown, and expired API keys.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMalformedInput is a telemetry string that does not match the report format.
	ErrMalformedInput = errors.New("malformed telemetry report")
)
