package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aruj94/deviceAPI/internal/auth"
	"github.com/aruj94/deviceAPI/internal/store"
	"github.com/aruj94/deviceAPI/internal/syncer"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

const (
	testNamespace = "api_hash_cache"
	testKey       = "k3y-for-device-fleet"
)

type fixture struct {
	validator *auth.Validator
	engine    *syncer.Engine[telemetry.APIKeyRecord]
	coll      *store.MemoryCollection[telemetry.APIKeyRecord]
	hasher    *auth.BcryptHasher
	clock     *clockwork.FakeClock
	redis     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := miniredis.RunT(t)
	cache := store.NewRedisCache(&redis.Options{Addr: s.Addr()}, zap.NewNop())
	t.Cleanup(func() { _ = cache.Shutdown() })

	engine := syncer.NewEngine[telemetry.APIKeyRecord](cache, telemetry.APIKeyClass(testNamespace), zap.NewNop())
	coll := store.NewMemoryCollection[telemetry.APIKeyRecord]()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	return &fixture{
		validator: auth.NewValidator(engine, coll, hasher, clock, zap.NewNop()),
		engine:    engine,
		coll:      coll,
		hasher:    hasher,
		clock:     clock,
		redis:     s,
	}
}

func (f *fixture) record(t *testing.T, key string, expiresIn time.Duration) telemetry.APIKeyRecord {
	t.Helper()

	hash, err := f.hasher.Hash(key)
	require.NoError(t, err)

	return telemetry.APIKeyRecord{Data: hash, ExpirationTimestamp: f.clock.Now().Add(expiresIn)}
}

func TestValidator_Store(t *testing.T) {
	ctx := context.Background()

	t.Run("valid key found in store is written back", func(t *testing.T) {
		f := newFixture(t)
		rec := f.record(t, testKey, time.Hour)
		require.NoError(t, f.coll.Insert(ctx, rec))

		ok, err := f.validator.Validate(ctx, testKey)
		require.NoError(t, err)
		assert.True(t, ok)

		cached, warm, err := f.engine.Snapshot(ctx)
		require.NoError(t, err)
		require.True(t, warm)
		require.Len(t, cached, 1)
		assert.Equal(t, rec.Data, cached[0].Data)
		assert.Equal(t, 12*time.Hour, f.redis.TTL(testNamespace))
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.coll.Insert(ctx, f.record(t, testKey, time.Hour)))

		ok, err := f.validator.Validate(ctx, "not-a-key")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, f.redis.Exists(testNamespace))
	})

	t.Run("empty key is rejected without lookups", func(t *testing.T) {
		f := newFixture(t)

		ok, err := f.validator.Validate(ctx, "")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("finds keys beyond the first page", func(t *testing.T) {
		f := newFixture(t)

		for range 11 {
			require.NoError(t, f.coll.Insert(ctx, f.record(t, "someone-else", time.Hour)))
		}

		require.NoError(t, f.coll.Insert(ctx, f.record(t, testKey, time.Hour)))

		ok, err := f.validator.Validate(ctx, testKey)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("store failure is a server fault", func(t *testing.T) {
		f := newFixture(t)
		v := auth.NewValidator(f.engine, failingKeys{}, f.hasher, f.clock, zap.NewNop())

		_, err := v.Validate(ctx, testKey)

		assert.ErrorIs(t, err, telemetry.ErrStoreUnavailable)
	})
}

func TestValidator_Expiry(t *testing.T) {
	ctx := context.Background()

	t.Run("expiration equal to now is expired", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.coll.Insert(ctx, f.record(t, testKey, 0)))

		ok, err := f.validator.Validate(ctx, testKey)

		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, f.redis.Exists(testNamespace), "expired keys are not written back")
	})

	t.Run("one second before expiration is valid", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.coll.Insert(ctx, f.record(t, testKey, time.Second)))

		ok, err := f.validator.Validate(ctx, testKey)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("cached key expires at its timestamp", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.Append(ctx, f.record(t, testKey, time.Minute)))

		ok, err := f.validator.Validate(ctx, testKey)
		require.NoError(t, err)
		assert.True(t, ok)

		f.clock.Advance(time.Minute)

		ok, err = f.validator.Validate(ctx, testKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestValidator_Cache(t *testing.T) {
	ctx := context.Background()

	t.Run("cached key is accepted without touching the store", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.Append(ctx, f.record(t, testKey, time.Hour)))

		v := auth.NewValidator(f.engine, failingKeys{}, f.hasher, f.clock, zap.NewNop())

		ok, err := v.Validate(ctx, testKey)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("key missing from a warm cache falls through to the store", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.Append(ctx, f.record(t, "someone-else", time.Hour)))
		require.NoError(t, f.coll.Insert(ctx, f.record(t, testKey, time.Hour)))

		ok, err := f.validator.Validate(ctx, testKey)
		require.NoError(t, err)
		assert.True(t, ok)

		cached, _, err := f.engine.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, cached, 2)
	})

	t.Run("cache outage degrades to the store", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.coll.Insert(ctx, f.record(t, testKey, time.Hour)))
		f.redis.Close()

		ok, err := f.validator.Validate(ctx, testKey)

		require.NoError(t, err)
		assert.True(t, ok)
	})
}

type failingKeys struct{}

func (failingKeys) Count(_ context.Context) (int64, error) {
	return 0, telemetry.ErrStoreUnavailable
}

func (failingKeys) Find(_ context.Context, _, _ int64) ([]telemetry.APIKeyRecord, error) {
	return nil, telemetry.ErrStoreUnavailable
}

func (failingKeys) Insert(_ context.Context, _ telemetry.APIKeyRecord) error {
	return telemetry.ErrStoreUnavailable
}

func (failingKeys) DeleteAll(_ context.Context) (int64, error) {
	return 0, telemetry.ErrStoreUnavailable
}
