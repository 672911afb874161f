package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// MemoryStore is an in-process Store. Entries are replaced wholesale on
// Set and considered valid while now-storedAt < ttl.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *MemoryStore[T]) WithClock(now func() time.Time) *MemoryStore[T] {
	s.now = now
	return s
}

func (s *MemoryStore[T]) Get(_ context.Context, key string) (T, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.now().Sub(e.storedAt) >= s.ttl {
		s.misses.Add(1)
		var zero T
		return zero, false, nil
	}

	s.hits.Add(1)
	return e.value, true, nil
}

func (s *MemoryStore[T]) Set(_ context.Context, key string, value T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[T]{value: value, storedAt: s.now()}
	return nil
}

// Stats returns cumulative hit/miss counts.
func (s *MemoryStore[T]) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}
