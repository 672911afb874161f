// Package refrate
package refrate

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/LuminaFi/zap-service/internal/market"
)

// Source exposes the current reference rate to readers. Reads never
// block.
type Source interface {
	Rate() float64
}

// Static is a fixed-rate Source, for tests and single-rate deployments.
type Static float64

func (s Static) Rate() float64 { return float64(s) }

// Refresher keeps the quote-currency to local-currency rate up to date
// on a fixed interval. The rate is published atomically; a failed
// refresh keeps the previous value.
type Refresher struct {
	provider market.Provider
	interval time.Duration
	fallback float64
	bits     atomic.Uint64
	logger   zerolog.Logger
}

func NewRefresher(provider market.Provider, interval time.Duration, fallback float64, logger zerolog.Logger) *Refresher {
	r := &Refresher{
		provider: provider,
		interval: interval,
		fallback: fallback,
		logger:   logger.With().Str("component", "refrate").Logger(),
	}
	r.publish(fallback)
	return r
}

// Rate returns the most recently published rate.
func (r *Refresher) Rate() float64 {
	return math.Float64frombits(r.bits.Load())
}

func (r *Refresher) publish(rate float64) {
	r.bits.Store(math.Float64bits(rate))
}

// Init performs the best-effort startup fetch. On failure the
// configured fallback stays in place; startup never blocks on the
// provider beyond the context deadline.
func (r *Refresher) Init(ctx context.Context) {
	if err := r.refresh(ctx); err != nil {
		r.logger.Warn().Err(err).Float64("fallback", r.fallback).Msg("initial rate fetch failed, using fallback")
	}
}

// Run blocks, refreshing the rate on the configured interval until the
// context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("reference rate refresher started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reference rate refresher stopped")
			return
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				r.logger.Warn().Err(err).Float64("current", r.Rate()).Msg("rate refresh failed, keeping previous value")
			}
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rate, err := r.provider.FetchReferenceRate(fetchCtx)
	if err != nil {
		return err
	}
	if rate <= 0 {
		return market.Errorf(market.KindUpstream, "refrate.refresh", "non-positive rate %v", rate)
	}

	r.publish(rate)
	r.logger.Info().Float64("rate", rate).Msg("reference rate updated")
	return nil
}
