package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript creates the bucket at full capacity on first sight, then takes one token.
// It returns the tokens left after the take, or -1 when the bucket was already empty.
// The expiration is only set on creation, so the window is fixed, not sliding.
var takeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	redis.call('HSET', KEYS[1], 'tokens', ARGV[1])
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
if tokens > 0 then
	return redis.call('HINCRBY', KEYS[1], 'tokens', -1)
end
return -1
`)

// RateLimitRedisStore keeps token buckets as Redis hashes under "rate_limit:<client>".
type RateLimitRedisStore struct {
	cache  *RedisCache
	prefix string
}

// NewRateLimitRedisStore creates a bucket store sharing the cache adapter's connection.
func NewRateLimitRedisStore(cache *RedisCache) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		cache:  cache,
		prefix: "rate_limit:",
	}
}

// Take consumes one token from key's bucket in a single atomic script call.
func (s *RateLimitRedisStore) Take(
	ctx context.Context, key string, capacity int64, window time.Duration,
) (int64, bool, error) {
	var remaining int64

	bucket := s.prefix + key

	err := s.cache.do(ctx, "take", bucket, func(c *redis.Client) error {
		var err error
		remaining, err = takeScript.Run(ctx, c, []string{bucket}, capacity, window.Milliseconds()).Int64()

		return err
	})
	if err != nil {
		return 0, false, err
	}

	if remaining < 0 {
		return 0, false, nil
	}

	return remaining, true, nil
}
