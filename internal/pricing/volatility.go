package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/LuminaFi/zap-service/internal/cache"
	"github.com/LuminaFi/zap-service/internal/fee"
	"github.com/LuminaFi/zap-service/internal/market"
	"github.com/LuminaFi/zap-service/internal/metrics"
	"github.com/LuminaFi/zap-service/internal/token"
	"github.com/LuminaFi/zap-service/internal/volatility"
)

const (
	// Valid range for the volatility window, inclusive.
	MinWindowDays = 1
	MaxWindowDays = 30
)

// VolatilityService memoizes volatility estimates keyed by token and
// window. The caching discipline matches QuoteService.
type VolatilityService struct {
	provider  market.Provider
	estimator volatility.Estimator
	store     cache.Store[VolatilityEstimate]
	policy    fee.Policy
	logger    zerolog.Logger
}

func NewVolatilityService(provider market.Provider, estimator volatility.Estimator, store cache.Store[VolatilityEstimate], policy fee.Policy, logger zerolog.Logger) *VolatilityService {
	return &VolatilityService{
		provider:  provider,
		estimator: estimator,
		store:     store,
		policy:    policy,
		logger:    logger.With().Str("component", "volatility").Logger(),
	}
}

// GetVolatility returns the cached or freshly computed estimate for the
// token over the window. The window is validated before any cache or
// provider access.
func (s *VolatilityService) GetVolatility(ctx context.Context, tokenInput string, windowDays int) (VolatilityEstimate, error) {
	if windowDays < MinWindowDays || windowDays > MaxWindowDays {
		return VolatilityEstimate{}, market.Errorf(market.KindInvalidArgument,
			"pricing.GetVolatility", "windowDays %d out of range [%d,%d]", windowDays, MinWindowDays, MaxWindowDays)
	}

	tokenID, _ := token.Resolve(tokenInput)
	key := fmt.Sprintf("%s:%dd", tokenID, windowDays)

	cached, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("volatility cache read failed")
	}
	if ok {
		metrics.CacheHits.WithLabelValues("volatility").Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("volatility").Inc()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	daily, err := s.estimator.Estimate(fetchCtx, s.provider, tokenID, windowDays)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(s.provider.Name(), "error").Inc()
		return VolatilityEstimate{}, err
	}
	metrics.ProviderRequests.WithLabelValues(s.provider.Name(), "ok").Inc()

	estimate := VolatilityEstimate{
		TokenID:              tokenID,
		Window:               fmt.Sprintf("%dd", windowDays),
		DailyVolatility:      daily,
		RecommendedSpreadFee: s.policy.RecommendedSpreadFee(daily),
		ComputedAt:           time.Now().UTC(),
	}

	if err := s.store.Set(ctx, key, estimate); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("volatility cache write failed")
	}

	s.logger.Debug().Str("token", tokenID).Int("days", windowDays).
		Float64("daily_vol", daily).Float64("spread_fee", estimate.RecommendedSpreadFee).
		Str("estimator", s.estimator.Name()).Msg("volatility recomputed")

	return estimate, nil
}
