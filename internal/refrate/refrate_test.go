package refrate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/LuminaFi/zap-service/internal/market"
)

func TestRefresherFallbackOnInitFailure(t *testing.T) {
	provider := market.NewMockProvider()
	provider.RateErr = errors.New("provider down")

	r := NewRefresher(provider, time.Hour, 15500, zerolog.Nop())
	r.Init(context.Background())

	assert.Equal(t, 15500.0, r.Rate())
	assert.Equal(t, 1, provider.RateCalls)
}

func TestRefresherInitFetch(t *testing.T) {
	provider := market.NewMockProvider()
	provider.RefRate = 16250

	r := NewRefresher(provider, time.Hour, 15500, zerolog.Nop())
	r.Init(context.Background())

	assert.Equal(t, 16250.0, r.Rate())
}

func TestRefresherKeepsPreviousValueOnFailure(t *testing.T) {
	provider := market.NewMockProvider()
	provider.RefRate = 16000

	r := NewRefresher(provider, 10*time.Millisecond, 15500, zerolog.Nop())
	r.Init(context.Background())
	assert.Equal(t, 16000.0, r.Rate())

	provider.RateErr = errors.New("provider down")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	// Failed refreshes never clobber the published rate.
	assert.Equal(t, 16000.0, r.Rate())
	assert.Greater(t, provider.RateCalls, 1)
}

func TestRefresherRejectsNonPositiveRate(t *testing.T) {
	provider := market.NewMockProvider()
	provider.RefRate = 16000

	r := NewRefresher(provider, time.Hour, 15500, zerolog.Nop())
	r.Init(context.Background())

	provider.RefRate = 0
	err := r.refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 16000.0, r.Rate())
}

func TestRefresherConcurrentReads(t *testing.T) {
	provider := market.NewMockProvider()
	provider.RefRate = 16000

	r := NewRefresher(provider, time.Millisecond, 15500, zerolog.Nop())
	r.Init(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx)
	}()

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				rate := r.Rate()
				assert.Greater(t, rate, 0.0)
			}
		}()
	}
	wg.Wait()
}

func TestStaticSource(t *testing.T) {
	assert.Equal(t, 15500.0, Static(15500).Rate())
}
