package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedQuote struct {
	Token string  `json:"token"`
	Price float64 `json:"price"`
}

// newTestRedisStore connects to the Redis named by TEST_REDIS_ADDR,
// skipping the test when none is configured.
func newTestRedisStore(t *testing.T, ttl time.Duration) *RedisStore[cachedQuote] {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping test: TEST_REDIS_ADDR not set")
	}

	client, err := NewRedisClient(addr, "", 0)
	if err != nil {
		t.Skipf("Skipping test: Redis is not running or not accessible: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewRedisStore[cachedQuote](client, "test:"+t.Name(), ttl)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "ethereum")
	require.NoError(t, err)
	assert.False(t, ok)

	want := cachedQuote{Token: "ethereum", Price: 1800}
	require.NoError(t, store.Set(ctx, "ethereum", want))

	got, ok, err := store.Get(ctx, "ethereum")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisStoreExpiry(t *testing.T) {
	store := newTestRedisStore(t, 100*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ethereum", cachedQuote{Token: "ethereum", Price: 1800}))
	time.Sleep(200 * time.Millisecond)

	_, ok, err := store.Get(ctx, "ethereum")
	require.NoError(t, err)
	assert.False(t, ok, "entries expire server-side")
}
