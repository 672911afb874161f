// Package pricing
package pricing

import "time"

// TokenQuote is a fetched price, immutable once created; a cache
// refresh supersedes it with a new value.
type TokenQuote struct {
	TokenID       string    `json:"token_id"`
	DisplaySymbol string    `json:"symbol"`
	PriceUSD      float64   `json:"price_usd"`
	PriceIDR      float64   `json:"price_idr"`
	ObservedAt    time.Time `json:"observed_at"`
}

// VolatilityEstimate is a computed volatility figure with its derived
// spread fee recommendation.
type VolatilityEstimate struct {
	TokenID              string    `json:"token_id"`
	Window               string    `json:"window"`
	DailyVolatility      float64   `json:"daily_volatility"`
	RecommendedSpreadFee float64   `json:"recommended_spread_fee"`
	ComputedAt           time.Time `json:"computed_at"`
}

// FeeBreakdown is the full fee decomposition for one conversion. Fees
// are deducted from the source amount, so AmountAfterFees is always
// AmountBeforeFees - TotalFeeAmount.
type FeeBreakdown struct {
	TokenID           string    `json:"token_id"`
	DisplaySymbol     string    `json:"symbol"`
	PriceUSD          float64   `json:"price_usd"`
	PriceIDR          float64   `json:"price_idr"`
	AdminFeeFraction  float64   `json:"admin_fee_fraction"`
	AdminFeeAmount    float64   `json:"admin_fee_amount"`
	SpreadFeeFraction float64   `json:"spread_fee_fraction"`
	SpreadFeeAmount   float64   `json:"spread_fee_amount"`
	TotalFeeFraction  float64   `json:"total_fee_fraction"`
	TotalFeeAmount    float64   `json:"total_fee_amount"`
	AmountBeforeFees  float64   `json:"amount_before_fees"`
	AmountAfterFees   float64   `json:"amount_after_fees"`
	EffectiveRate     float64   `json:"effective_rate"`
	ComputedAt        time.Time `json:"computed_at"`
}
