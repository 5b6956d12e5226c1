// Package recordcache serves a record collection through its cache namespace.
package recordcache

import (
	"context"
	"fmt"
	"time"

	"github.com/aruj94/deviceAPI/internal/syncer"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Facade is the read-through, write-through view of one record class.
// The durable collection is authoritative; the cache only accelerates reads.
type Facade[T telemetry.Record] struct {
	cache      telemetry.Cache
	coll       telemetry.Collection[T]
	engine     *syncer.Engine[T]
	supervisor *syncer.Supervisor
	logger     *zap.Logger
	loads      singleflight.Group
}

// New creates a facade over coll. Background re-syncs run on supervisor.
func New[T telemetry.Record](
	cache telemetry.Cache,
	coll telemetry.Collection[T],
	engine *syncer.Engine[T],
	supervisor *syncer.Supervisor,
	logger *zap.Logger,
) *Facade[T] {
	return &Facade[T]{
		cache:      cache,
		coll:       coll,
		engine:     engine,
		supervisor: supervisor,
		logger:     logger.With(zap.String("namespace", engine.Class().Namespace)),
	}
}

// Class returns the record class served by this facade.
func (f *Facade[T]) Class() telemetry.Class {
	return f.engine.Class()
}

// Read returns every record of the class. A warm namespace is served from the cache;
// otherwise the store is paged directly and a background sync is triggered.
// Only store failures are returned.
func (f *Facade[T]) Read(ctx context.Context) ([]T, error) {
	if records, ok := f.cached(ctx); ok {
		return records, nil
	}

	// The load is shared by every caller that arrives while it runs, so it must not
	// die with the first caller's request.
	loaded := f.loads.DoChan(f.namespace(), func() (any, error) {
		return f.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-loaded:
		if res.Err != nil {
			return nil, res.Err
		}

		f.Resync()

		return res.Val.([]T), nil
	}
}

// Write persists rec and then makes it visible in the cache. A cold namespace is
// repopulated in the background instead of being created with a single record.
func (f *Facade[T]) Write(ctx context.Context, rec T) error {
	if err := f.coll.Insert(ctx, rec); err != nil {
		return fmt.Errorf("write %s: %w", f.engine.Class().Kind, err)
	}

	if ctx.Err() != nil {
		f.logger.Debug("request gone after persist, skipping cache update")

		return nil
	}

	exists, err := f.cache.Exists(ctx, f.namespace())
	if err != nil {
		f.logger.Warn("cache unavailable, record persisted without cache update", zap.Error(err))

		return nil
	}

	if !exists {
		if !f.Resync() {
			f.logger.Warn("namespace cold and resync not scheduled, record cached on next reconcile")
		}

		return nil
	}

	if err := f.engine.Append(ctx, rec); err != nil {
		f.logger.Warn("cache append failed", zap.Error(err))
	}

	return nil
}

// Clear deletes every record from the store and then drops the namespace.
// It returns how many records were deleted.
func (f *Facade[T]) Clear(ctx context.Context) (int64, error) {
	deleted, err := f.coll.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", f.engine.Class().Kind, err)
	}

	if err := f.cache.Del(ctx, f.namespace()); err != nil {
		return deleted, fmt.Errorf("clear %s: %w", f.engine.Class().Kind, err)
	}

	return deleted, nil
}

// Resync schedules a background sync of the namespace. A sync already running is followed
// by one more, so records written meanwhile are picked up. It reports false when the
// supervisor is saturated or shut down.
func (f *Facade[T]) Resync() bool {
	return f.supervisor.Trigger(f.namespace(), f.sync)
}

// Reconcile re-syncs the namespace from the store every interval until the supervisor
// shuts down. A non-positive interval disables it.
func (f *Facade[T]) Reconcile(interval time.Duration) {
	f.supervisor.Schedule(f.namespace(), interval, f.sync)
}

func (f *Facade[T]) sync(ctx context.Context) error {
	_, err := f.engine.Sync(ctx, f.coll)

	return err
}

func (f *Facade[T]) cached(ctx context.Context) ([]T, bool) {
	exists, err := f.cache.Exists(ctx, f.namespace())
	if err != nil {
		f.logger.Warn("cache unavailable, reading from store", zap.Error(err))

		return nil, false
	}

	if !exists {
		return nil, false
	}

	records, ok, err := f.engine.Snapshot(ctx)
	if err != nil {
		f.logger.Warn("cache snapshot failed, reading from store", zap.Error(err))

		return nil, false
	}

	return records, ok
}

func (f *Facade[T]) load(ctx context.Context) ([]T, error) {
	records := make([]T, 0)

	for rec, err := range syncer.Records(ctx, f.coll, f.engine.PageSize()) {
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.engine.Class().Kind, err)
		}

		records = append(records, rec)
	}

	return records, nil
}

func (f *Facade[T]) namespace() string {
	return f.engine.Class().Namespace
}
