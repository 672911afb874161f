package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string](5 * time.Minute)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "v"))

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := NewMemoryStore[float64](5 * time.Minute).WithClock(clock)
	require.NoError(t, store.Set(ctx, "price", 1800.0))

	// Just before expiry the entry is still served.
	now = now.Add(5*time.Minute - time.Second)
	got, ok, err := store.Get(ctx, "price")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1800.0, got)

	// At exactly the TTL boundary the entry is stale.
	now = now.Add(time.Second)
	_, ok, err = store.Get(ctx, "price")
	require.NoError(t, err)
	assert.False(t, ok)

	// A refresh replaces the entry wholesale and restarts the clock.
	require.NoError(t, store.Set(ctx, "price", 1850.0))
	got, ok, _ = store.Get(ctx, "price")
	assert.True(t, ok)
	assert.Equal(t, 1850.0, got)
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[int](time.Minute)

	store.Get(ctx, "a")
	store.Set(ctx, "a", 1)
	store.Get(ctx, "a")
	store.Get(ctx, "a")

	hits, misses := store.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Set(ctx, "shared", n)
				store.Get(ctx, "shared")
			}
		}(i)
	}
	wg.Wait()

	_, ok, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)
}
