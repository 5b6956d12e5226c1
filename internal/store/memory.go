package store

import (
	"context"
	"sync"

	"github.com/aruj94/deviceAPI/internal/telemetry"
)

// MemoryCollection is an in-memory implementation of telemetry.Collection.
type MemoryCollection[T telemetry.Record] struct {
	mu      sync.RWMutex
	records []T
}

// NewMemoryCollection creates an empty collection.
func NewMemoryCollection[T telemetry.Record]() *MemoryCollection[T] {
	return &MemoryCollection[T]{}
}

func (m *MemoryCollection[T]) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.records)), nil
}

func (m *MemoryCollection[T]) Find(_ context.Context, skip, limit int64) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := int64(len(m.records))
	if skip >= n || limit <= 0 {
		return []T{}, nil
	}

	end := min(skip+limit, n)
	page := make([]T, end-skip)
	copy(page, m.records[skip:end])

	return page, nil
}

func (m *MemoryCollection[T]) Insert(_ context.Context, record T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)

	return nil
}

func (m *MemoryCollection[T]) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.records))
	m.records = nil

	return n, nil
}
