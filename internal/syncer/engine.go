// Package syncer keeps a cache namespace consistent with its durable collection.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/aruj94/deviceAPI/internal/telemetry"
	"go.uber.org/zap"
)

// DefaultPageSize bounds how many records are read from the store per query.
const DefaultPageSize int64 = 10

var emptyNamespace = []byte("[]")

// Engine replicates one record class into its cache namespace.
type Engine[T telemetry.Record] struct {
	cache    telemetry.Cache
	class    telemetry.Class
	logger   *zap.Logger
	pageSize int64
}

// NewEngine creates an engine for the given class.
func NewEngine[T telemetry.Record](cache telemetry.Cache, class telemetry.Class, logger *zap.Logger) *Engine[T] {
	return &Engine[T]{
		cache:    cache,
		class:    class,
		logger:   logger.With(zap.String("namespace", class.Namespace)),
		pageSize: DefaultPageSize,
	}
}

// Class returns the record class this engine serves.
func (e *Engine[T]) Class() telemetry.Class {
	return e.class
}

// PageSize returns the number of records fetched per store query.
func (e *Engine[T]) PageSize() int64 {
	return e.pageSize
}

// Sync resets the namespace to an empty sequence with the class TTL and appends every
// record of coll to it, page by page. It returns how many records were replicated.
//
// The reset is destructive: appends that interleave with a running Sync may be lost.
func (e *Engine[T]) Sync(ctx context.Context, coll telemetry.Collection[T]) (int64, error) {
	if err := e.cache.Ping(ctx); err != nil {
		e.logger.Warn("cache ping failed before sync, reconnecting", zap.Error(err))

		if err := e.cache.Reconnect(ctx); err != nil {
			return 0, fmt.Errorf("sync %s: %w", e.class.Namespace, err)
		}
	}

	if err := e.cache.Set(ctx, e.class.Namespace, emptyNamespace, e.class.TTL); err != nil {
		return 0, fmt.Errorf("sync %s: reset: %w", e.class.Namespace, err)
	}

	var n int64

	for rec, err := range Records(ctx, coll, e.pageSize) {
		if err != nil {
			return n, fmt.Errorf("sync %s: %w", e.class.Namespace, err)
		}

		if err := e.Append(ctx, rec); err != nil {
			return n, fmt.Errorf("sync %s: %w", e.class.Namespace, err)
		}

		n++
	}

	e.logger.Info("namespace synced", zap.Int64("records", n))

	return n, nil
}

// Append adds rec to the end of the namespace. A cold namespace is created holding only
// rec and given the class TTL; otherwise the existing TTL is kept.
//
// Append is a read-modify-write and concurrent calls can lose updates.
func (e *Engine[T]) Append(ctx context.Context, rec T) error {
	records, ok, err := e.Snapshot(ctx)
	if err != nil {
		return err
	}

	ttl := telemetry.KeepTTL
	if !ok {
		records = make([]T, 0, 1)
		ttl = e.class.TTL
	}

	body, err := json.Marshal(append(records, rec))
	if err != nil {
		return fmt.Errorf("encode namespace %s: %w", e.class.Namespace, err)
	}

	return e.cache.Set(ctx, e.class.Namespace, body, ttl)
}

// Snapshot decodes the namespace. ok is false when the namespace is cold.
func (e *Engine[T]) Snapshot(ctx context.Context) (records []T, ok bool, err error) {
	body, err := e.cache.Get(ctx, e.class.Namespace)
	if errors.Is(err, telemetry.ErrCacheMiss) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	if err := json.Unmarshal(body, &records); err != nil {
		return nil, false, fmt.Errorf("decode namespace %s: %w", e.class.Namespace, err)
	}

	if records == nil {
		records = []T{}
	}

	return records, true, nil
}

// Records iterates coll in insertion order, reading pageSize records per query.
// Iteration stops at the first error, which is yielded with a zero record.
func Records[T telemetry.Record](ctx context.Context, coll telemetry.Collection[T], pageSize int64) iter.Seq2[T, error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return func(yield func(T, error) bool) {
		var zero T

		total, err := coll.Count(ctx)
		if err != nil {
			yield(zero, err)

			return
		}

		for skip := int64(0); skip < total; skip += pageSize {
			page, err := coll.Find(ctx, skip, pageSize)
			if err != nil {
				yield(zero, err)

				return
			}

			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}

			if int64(len(page)) < pageSize {
				return
			}
		}
	}
}
