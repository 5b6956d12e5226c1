package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type bucket struct {
	tokens    int64
	expiresAt time.Time
}

// RateLimitMemoryStore is an in-process implementation of ratelimit.Store.
// State is lost on restart.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	buckets map[string]*bucket
}

// NewRateLimitMemoryStore creates a new in-memory bucket store.
func NewRateLimitMemoryStore(clock clockwork.Clock) *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// Take removes one token from key's bucket, starting a fresh full bucket once the window lapses.
func (s *RateLimitMemoryStore) Take(
	_ context.Context, key string, capacity int64, window time.Duration,
) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.expiresAt) {
		b = &bucket{tokens: capacity, expiresAt: now.Add(window)}
		s.buckets[key] = b
	}

	if b.tokens <= 0 {
		return 0, false, nil
	}

	b.tokens--

	return b.tokens, true, nil
}

// Prune drops expired buckets and returns how many were removed.
func (s *RateLimitMemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0

	for key, b := range s.buckets {
		if !now.Before(b.expiresAt) {
			delete(s.buckets, key)

			removed++
		}
	}

	return removed
}
