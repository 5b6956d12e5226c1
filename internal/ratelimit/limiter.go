package ratelimit

import (
	"context"
	"time"
)

const (
	// DefaultCapacity is the number of requests a client may make per window.
	DefaultCapacity int64 = 100
	// DefaultWindow is the fixed refill window of a bucket.
	DefaultWindow = 60 * time.Second
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request from the given key should be allowed.
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// TokenBucketLimiter admits up to capacity requests per key per window.
// A bucket is created full on the first request and disappears when its window lapses;
// rejected requests do not consume tokens or extend the window.
type TokenBucketLimiter struct {
	store    Store
	capacity int64
	window   time.Duration
}

// NewTokenBucketLimiter creates a new token bucket rate limiter.
func NewTokenBucketLimiter(store Store, capacity int64, window time.Duration) *TokenBucketLimiter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if window <= 0 {
		window = DefaultWindow
	}

	return &TokenBucketLimiter{
		store:    store,
		capacity: capacity,
		window:   window,
	}
}

func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (bool, error) {
	_, allowed, err := l.store.Take(ctx, key, l.capacity, l.window)
	if err != nil {
		return false, err
	}

	return allowed, nil
}

// Capacity returns the configured bucket size.
func (l *TokenBucketLimiter) Capacity() int64 {
	return l.capacity
}

// Window returns the configured refill window.
func (l *TokenBucketLimiter) Window() time.Duration {
	return l.window
}
