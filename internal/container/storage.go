package container

import (
	"context"
	"fmt"
	"time"

	"github.com/aruj94/deviceAPI/internal/recordcache"
	"github.com/aruj94/deviceAPI/internal/store"
	"github.com/aruj94/deviceAPI/internal/syncer"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

const startupTimeout = 10 * time.Second

// Database owns the PostgreSQL pool so the injector can close it.
type Database struct {
	*pgxpool.Pool
}

func (d *Database) Shutdown() error {
	d.Close()

	return nil
}

// StreamClient is the Redis connection used for alert streams. It is kept apart from
// the cache connection, which is replaced on reconnect.
type StreamClient struct {
	*redis.Client
}

func (c *StreamClient) Shutdown() error {
	return c.Close()
}

// RedisPackage provides the cache adapter and the stream client.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.RedisCache, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return store.NewRedisCache(opts.redisOptions(), logger.Named("cache")), nil
	})

	do.Provide(i, func(i *do.Injector) (*StreamClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &StreamClient{Client: redis.NewClient(opts.redisOptions())}, nil
	})
}

// PostgresPackage provides the durable store and makes sure its tables exist.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Database, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := store.EnsureSchema(ctx, pool); err != nil {
			pool.Close()

			return nil, err
		}

		return &Database{Pool: pool}, nil
	})
}

// RepositoryPackage provides the collections, their sync engines, the shared
// supervisor, and a facade per record class.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*syncer.Supervisor, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		// Resolve the stores first so the supervisor stops before they close.
		_ = do.MustInvoke[*store.RedisCache](i)
		_ = do.MustInvoke[*Database](i)

		return syncer.NewSupervisor(logger.Named("sync"), clockwork.NewRealClock(), opts.SyncConcurrency), nil
	})

	provideClass(i,
		func(o *Options) telemetry.Class { return telemetry.ErrorRecordClass(o.ErrorNamespace) },
		store.NewPostgresErrorRecords,
	)
	provideClass(i,
		func(o *Options) telemetry.Class { return telemetry.APIKeyClass(o.APIKeyNamespace) },
		store.NewPostgresAPIKeys,
	)
}

// provideClass registers the collection, engine, and facade of one record class.
func provideClass[T telemetry.Record](
	i *do.Injector,
	class func(*Options) telemetry.Class,
	collection func(*pgxpool.Pool) *store.PostgresCollection[T],
) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresCollection[T], error) {
		return collection(do.MustInvoke[*Database](i).Pool), nil
	})

	do.Provide(i, func(i *do.Injector) (*syncer.Engine[T], error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return syncer.NewEngine[T](do.MustInvoke[*store.RedisCache](i), class(opts), logger), nil
	})

	do.Provide(i, func(i *do.Injector) (*recordcache.Facade[T], error) {
		opts := do.MustInvoke[*Options](i)

		facade := recordcache.New[T](
			do.MustInvoke[*store.RedisCache](i),
			do.MustInvoke[*store.PostgresCollection[T]](i),
			do.MustInvoke[*syncer.Engine[T]](i),
			do.MustInvoke[*syncer.Supervisor](i),
			do.MustInvoke[*zap.Logger](i),
		)
		facade.Reconcile(opts.syncInterval())

		return facade, nil
	})
}
