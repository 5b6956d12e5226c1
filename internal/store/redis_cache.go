package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache is the telemetry.Cache adapter over a single Redis node.
// It owns its client and replaces it when the connection is found to be down.
// go-redis' own retries are disabled: an operation is tried, and after a reconnect
// tried exactly once more.
type RedisCache struct {
	opts   redis.Options
	logger *zap.Logger

	mu     sync.RWMutex
	client *redis.Client
}

// NewRedisCache creates a cache adapter. No connection is made until first use or Connect.
// opts is copied; its MaxRetries is ignored.
func NewRedisCache(opts *redis.Options, logger *zap.Logger) *RedisCache {
	r := &RedisCache{
		opts:   *opts,
		logger: logger,
	}
	r.client = r.newClient()

	return r
}

// newClient builds a client from a fresh copy of the options, since go-redis normalizes
// the options it is given in place.
func (r *RedisCache) newClient() *redis.Client {
	opts := r.opts
	opts.MaxRetries = -1

	return redis.NewClient(&opts)
}

// Connect dials a fresh client and swaps it in once it answers PING.
func (r *RedisCache) Connect(ctx context.Context) error {
	_, err := r.replace(ctx, nil)

	return err
}

// Reconnect replaces the current connection. It is idempotent.
func (r *RedisCache) Reconnect(ctx context.Context) error {
	return r.Connect(ctx)
}

// replace dials a new client and installs it. When failed is not nil the swap only
// happens if failed is still current; if another caller already replaced it, the
// current client is returned untouched.
func (r *RedisCache) replace(ctx context.Context, failed *redis.Client) (*redis.Client, error) {
	if failed != nil {
		if current := r.current(); current != failed {
			return current, nil
		}
	}

	client := r.newClient()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("%w: connect %s: %w", telemetry.ErrCacheUnavailable, r.opts.Addr, err)
	}

	r.mu.Lock()

	old := r.client
	if failed != nil && old != failed {
		r.mu.Unlock()
		_ = client.Close()

		return old, nil
	}

	r.client = client
	r.mu.Unlock()

	_ = old.Close()

	return client, nil
}

// Ping checks liveness without retrying.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.current().Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", telemetry.ErrCacheUnavailable, err)
	}

	return nil
}

// Get returns the value at key, or telemetry.ErrCacheMiss.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := r.do(ctx, "get", key, func(c *redis.Client) error {
		v, err := c.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}

		value = v

		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, telemetry.ErrCacheMiss
	}

	return value, err
}

// Set stores value at key. telemetry.KeepTTL preserves the existing expiration.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == telemetry.KeepTTL {
		ttl = redis.KeepTTL
	}

	return r.do(ctx, "set", key, func(c *redis.Client) error {
		return c.Set(ctx, key, value, ttl).Err()
	})
}

// Del removes key. A missing key is not an error.
func (r *RedisCache) Del(ctx context.Context, key string) error {
	return r.do(ctx, "del", key, func(c *redis.Client) error {
		return c.Del(ctx, key).Err()
	})
}

// Exists reports whether key is present.
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	var n int64

	err := r.do(ctx, "exists", key, func(c *redis.Client) error {
		var err error
		n, err = c.Exists(ctx, key).Result()

		return err
	})

	return n > 0, err
}

// Expire sets the time to live of key.
func (r *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.do(ctx, "expire", key, func(c *redis.Client) error {
		return c.Expire(ctx, key, ttl).Err()
	})
}

// Client returns the client currently in use.
func (r *RedisCache) Client() *redis.Client {
	return r.current()
}

// Shutdown closes the current client.
func (r *RedisCache) Shutdown() error {
	return r.current().Close()
}

func (r *RedisCache) current() *redis.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.client
}

// do runs fn, and on a connection failure reconnects and runs it exactly once more.
func (r *RedisCache) do(ctx context.Context, op, key string, fn func(*redis.Client) error) error {
	client := r.current()

	err := fn(client)
	if !isConnectionError(err) {
		return err
	}

	r.logger.Warn("cache operation failed, reconnecting",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)

	client, rerr := r.replace(ctx, client)
	if rerr != nil {
		return fmt.Errorf("%w: %s %s: %w", telemetry.ErrCacheUnavailable, op, key, err)
	}

	err = fn(client)
	if isConnectionError(err) {
		return fmt.Errorf("%w: %s %s: %w", telemetry.ErrCacheUnavailable, op, key, err)
	}

	return err
}

// isConnectionError separates transport failures from misses, server replies, and cancellation.
func isConnectionError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var replyErr redis.Error

	return !errors.As(err, &replyErr)
}

// Compile-time check.
var _ telemetry.Cache = (*RedisCache)(nil)
