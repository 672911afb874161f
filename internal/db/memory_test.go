package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuminaFi/zap-service/internal/journal"
)

func TestMemoryStorageEvents(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	events := []journal.Event{
		{Time: base, Type: "fee", Description: "fees_calculated", Data: map[string]any{"token": "ethereum"}},
		{Time: base.Add(time.Minute), Type: "rate", Description: "rate_updated", Data: map[string]any{"rate": 15500.0}},
		{Time: base.Add(2 * time.Minute), Type: "fee", Description: "fees_calculated", Data: map[string]any{"token": "bitcoin"}},
	}
	for _, e := range events {
		require.NoError(t, store.LogEvent(ctx, e))
	}

	fees, err := store.GetEvents(ctx, "fee", base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, fees, 2)
	assert.Equal(t, "ethereum", fees[0].Data["token"])
	assert.Equal(t, "bitcoin", fees[1].Data["token"])

	// End bound is exclusive.
	fees, err = store.GetEvents(ctx, "fee", base, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, fees, 1)

	none, err := store.GetEvents(ctx, "volatility", base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNewSelectsMemoryWithoutConnStr(t *testing.T) {
	store, err := New("", 10, 5)
	require.NoError(t, err)
	assert.Nil(t, store.GetDB())
	assert.NoError(t, store.Close())
}
