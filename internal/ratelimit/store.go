package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for token bucket storage.
type Store interface {
	// Take removes one token from the bucket for key, creating it with capacity tokens
	// and the given lifetime if it does not exist. It reports the tokens left and whether
	// a token was available.
	Take(ctx context.Context, key string, capacity int64, window time.Duration) (remaining int64, allowed bool, err error)
}
