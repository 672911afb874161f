package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/LuminaFi/zap-service/internal/fee"
	"github.com/LuminaFi/zap-service/internal/journal"
	"github.com/LuminaFi/zap-service/internal/market"
	"github.com/LuminaFi/zap-service/internal/metrics"
)

// Engine orchestrates quotes, volatility and the fee policy into
// forward and inverse conversions between token amounts and IDR.
//
// Fees are deducted from the source amount. The inverse conversion
// pins the fee fraction it derived, so a target-amount round trip
// recovers the original source amount.
type Engine struct {
	quotes  *QuoteService
	vol     *VolatilityService
	policy  fee.Policy
	journal journal.Journaler
	logger  zerolog.Logger
}

func NewEngine(quotes *QuoteService, vol *VolatilityService, policy fee.Policy, j journal.Journaler, logger zerolog.Logger) *Engine {
	if j == nil {
		j = journal.Nop{}
	}
	return &Engine{
		quotes:  quotes,
		vol:     vol,
		policy:  policy,
		journal: j,
		logger:  logger.With().Str("component", "engine").Logger(),
	}
}

// GetQuote exposes the price lookup for read endpoints.
func (e *Engine) GetQuote(ctx context.Context, tokenInput string) (TokenQuote, error) {
	return e.quotes.GetQuote(ctx, tokenInput)
}

// GetVolatility exposes the volatility lookup for read endpoints.
func (e *Engine) GetVolatility(ctx context.Context, tokenInput string, windowDays int) (VolatilityEstimate, error) {
	return e.vol.GetVolatility(ctx, tokenInput, windowDays)
}

// resolveSpreadFee picks the spread fee fraction: the caller's
// override when supplied, otherwise the 1-day volatility
// recommendation. An unavailable volatility estimate is the one
// failure the engine absorbs; it substitutes the configured default
// and journals the substitution.
func (e *Engine) resolveSpreadFee(ctx context.Context, tokenInput string, override *float64) float64 {
	if override != nil {
		return *override
	}

	estimate, err := e.vol.GetVolatility(ctx, tokenInput, 1)
	if err != nil {
		metrics.SpreadFeeFallbacks.Inc()
		e.logger.Warn().Err(err).Str("token", tokenInput).
			Float64("default_spread_fee", e.policy.DefaultSpreadFee).
			Msg("volatility unavailable, using default spread fee")
		e.logEvent(ctx, "volatility", "spread_fee_fallback", map[string]any{
			"token": tokenInput,
			"error": err.Error(),
		})
		return e.policy.DefaultSpreadFee
	}
	return estimate.RecommendedSpreadFee
}

// breakdown builds the fee decomposition for amount with the given
// spread fraction pinned.
func (e *Engine) breakdown(quote TokenQuote, amount, spreadFee float64) FeeBreakdown {
	adminFee := e.policy.AdminFee
	totalFee := adminFee + spreadFee

	adminAmount := amount * adminFee
	spreadAmount := amount * spreadFee
	totalAmount := amount * totalFee

	return FeeBreakdown{
		TokenID:           quote.TokenID,
		DisplaySymbol:     quote.DisplaySymbol,
		PriceUSD:          quote.PriceUSD,
		PriceIDR:          quote.PriceIDR,
		AdminFeeFraction:  adminFee,
		AdminFeeAmount:    adminAmount,
		SpreadFeeFraction: spreadFee,
		SpreadFeeAmount:   spreadAmount,
		TotalFeeFraction:  totalFee,
		TotalFeeAmount:    totalAmount,
		AmountBeforeFees:  amount,
		AmountAfterFees:   amount - totalAmount,
		EffectiveRate:     quote.PriceIDR,
		ComputedAt:        time.Now().UTC(),
	}
}

// CalculateFees computes the fee decomposition for converting amount
// units of the token.
func (e *Engine) CalculateFees(ctx context.Context, tokenInput string, amount float64, spreadFeeOverride *float64) (FeeBreakdown, error) {
	if amount <= 0 {
		return FeeBreakdown{}, market.Errorf(market.KindInvalidArgument,
			"pricing.CalculateFees", "amount must be positive, got %v", amount)
	}

	quote, err := e.quotes.GetQuote(ctx, tokenInput)
	if err != nil {
		return FeeBreakdown{}, err
	}

	spreadFee := e.resolveSpreadFee(ctx, tokenInput, spreadFeeOverride)
	result := e.breakdown(quote, amount, spreadFee)

	metrics.FeeCalculations.WithLabelValues("forward").Inc()
	e.logEvent(ctx, "fee", "fees_calculated", map[string]any{
		"token":      result.TokenID,
		"amount":     amount,
		"total_fee":  result.TotalFeeAmount,
		"spread_fee": spreadFee,
	})

	return result, nil
}

// CalculateTargetAmount converts a token amount into IDR after fees.
func (e *Engine) CalculateTargetAmount(ctx context.Context, tokenInput string, amount float64, spreadFeeOverride *float64) (float64, FeeBreakdown, error) {
	result, err := e.CalculateFees(ctx, tokenInput, amount, spreadFeeOverride)
	if err != nil {
		return 0, FeeBreakdown{}, err
	}
	return result.AmountAfterFees * result.EffectiveRate, result, nil
}

// CalculateSourceAmount inverts the forward conversion: it finds the
// token amount that, after fees, yields targetAmount IDR. The returned
// breakdown is recomputed on the derived source amount with the same
// fee fraction, so it is self-consistent with the amount it describes.
func (e *Engine) CalculateSourceAmount(ctx context.Context, tokenInput string, targetAmount float64, spreadFeeOverride *float64) (float64, FeeBreakdown, error) {
	if targetAmount <= 0 {
		return 0, FeeBreakdown{}, market.Errorf(market.KindInvalidArgument,
			"pricing.CalculateSourceAmount", "target amount must be positive, got %v", targetAmount)
	}

	quote, err := e.quotes.GetQuote(ctx, tokenInput)
	if err != nil {
		return 0, FeeBreakdown{}, err
	}

	spreadFee := e.resolveSpreadFee(ctx, tokenInput, spreadFeeOverride)
	totalFee := e.policy.AdminFee + spreadFee

	sourceAmount := targetAmount / (quote.PriceIDR * (1 - totalFee))
	result := e.breakdown(quote, sourceAmount, spreadFee)

	metrics.FeeCalculations.WithLabelValues("inverse").Inc()
	e.logEvent(ctx, "fee", "source_amount_calculated", map[string]any{
		"token":         result.TokenID,
		"target_amount": targetAmount,
		"source_amount": sourceAmount,
		"total_fee":     result.TotalFeeAmount,
	})

	return sourceAmount, result, nil
}

// logEvent journals best-effort; a journal failure never fails the
// request.
func (e *Engine) logEvent(ctx context.Context, eventType, description string, data map[string]any) {
	err := e.journal.LogEvent(ctx, journal.Event{
		Time:        time.Now().UTC(),
		Type:        eventType,
		Description: description,
		Data:        data,
	})
	if err != nil {
		e.logger.Debug().Err(err).Str("type", eventType).Msg("journal write failed")
	}
}
