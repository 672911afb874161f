package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/LuminaFi/zap-service/internal/cache"
	"github.com/LuminaFi/zap-service/internal/market"
	"github.com/LuminaFi/zap-service/internal/metrics"
	"github.com/LuminaFi/zap-service/internal/refrate"
	"github.com/LuminaFi/zap-service/internal/token"
)

const fetchTimeout = 10 * time.Second

// QuoteService memoizes current-price lookups over the provider. A
// stale or missing entry triggers one fetch per caller; no lock is held
// across the provider call, so two concurrent misses may both fetch.
type QuoteService struct {
	provider market.Provider
	store    cache.Store[TokenQuote]
	rates    refrate.Source
	logger   zerolog.Logger
}

func NewQuoteService(provider market.Provider, store cache.Store[TokenQuote], rates refrate.Source, logger zerolog.Logger) *QuoteService {
	return &QuoteService{
		provider: provider,
		store:    store,
		rates:    rates,
		logger:   logger.With().Str("component", "quotes").Logger(),
	}
}

// GetQuote resolves the token and returns its quote, serving from the
// cache when the entry is younger than the TTL. Provider failures are
// never papered over with stale data.
func (s *QuoteService) GetQuote(ctx context.Context, tokenInput string) (TokenQuote, error) {
	tokenID, symbol := token.Resolve(tokenInput)

	cached, ok, err := s.store.Get(ctx, tokenID)
	if err != nil {
		s.logger.Warn().Err(err).Str("token", tokenID).Msg("quote cache read failed")
	}
	if ok {
		metrics.CacheHits.WithLabelValues("price").Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("price").Inc()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	raw, err := s.provider.FetchCurrentPrice(fetchCtx, tokenID)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(s.provider.Name(), "error").Inc()
		return TokenQuote{}, err
	}
	metrics.ProviderRequests.WithLabelValues(s.provider.Name(), "ok").Inc()

	quote := TokenQuote{
		TokenID:       tokenID,
		DisplaySymbol: symbol,
		PriceUSD:      raw.Price,
		PriceIDR:      raw.Price * s.rates.Rate(),
		ObservedAt:    raw.AsOf,
	}

	if err := s.store.Set(ctx, tokenID, quote); err != nil {
		s.logger.Warn().Err(err).Str("token", tokenID).Msg("quote cache write failed")
	}

	s.logger.Debug().Str("token", tokenID).Float64("usd", quote.PriceUSD).Float64("idr", quote.PriceIDR).Msg("quote refreshed")

	return quote, nil
}
