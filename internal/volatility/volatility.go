// Package volatility
package volatility

import (
	"context"
	"math"

	"github.com/LuminaFi/zap-service/internal/market"
)

// Estimator turns market data into a fractional daily volatility
// figure. Implementations are interchangeable and selected by
// configuration at construction time.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, provider market.Provider, tokenID string, windowDays int) (float64, error)
}

// Statistical computes volatility from the raw price series: the
// standard deviation of percent changes between consecutive samples,
// annualized with the window's own sampling density and rescaled to a
// daily figure.
type Statistical struct{}

func (Statistical) Name() string { return "statistical" }

func (Statistical) Estimate(ctx context.Context, provider market.Provider, tokenID string, windowDays int) (float64, error) {
	series, err := provider.FetchPriceSeries(ctx, tokenID, windowDays)
	if err != nil {
		return 0, err
	}

	prices := make([]float64, 0, len(series))
	for _, point := range series {
		prices = append(prices, point.Price)
	}
	return DailyFromSeries(prices), nil
}

// DailyFromSeries computes fractional daily volatility from an ordered
// price slice. Fewer than two samples yields 0.
func DailyFromSeries(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	sigma := math.Sqrt(variance)

	// The whole series is treated as one day's worth of sampling
	// density; annualize with it, then rescale back to daily.
	annualized := sigma * math.Sqrt(365*float64(len(returns)))
	return annualized / math.Sqrt(365)
}

// ChangeSummary derives volatility from a provider-reported 24-hour
// percent change, scaled by sqrt(windowDays) for multi-day windows.
type ChangeSummary struct{}

func (ChangeSummary) Name() string { return "change-summary" }

func (ChangeSummary) Estimate(ctx context.Context, provider market.Provider, tokenID string, windowDays int) (float64, error) {
	summary, err := provider.Fetch24hChange(ctx, tokenID)
	if err != nil {
		return 0, err
	}
	return DailyFromChange(summary.Change24h, windowDays), nil
}

// DailyFromChange converts a 24h percent change into a fractional daily
// volatility over the given window.
func DailyFromChange(change24hPercent float64, windowDays int) float64 {
	daily := math.Abs(change24hPercent) / 100
	if windowDays > 1 {
		daily *= math.Sqrt(float64(windowDays))
	}
	return daily
}

// ForName returns the estimator registered under name, defaulting to
// the statistical one.
func ForName(name string) Estimator {
	switch name {
	case "change-summary":
		return ChangeSummary{}
	default:
		return Statistical{}
	}
}
