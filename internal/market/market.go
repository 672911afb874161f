// Package market
package market

import (
	"context"
	"time"
)

// Quote is a point-in-time price for a token, denominated in the stable
// quote currency (USD for all current backends).
type Quote struct {
	TokenID string
	Price   float64
	AsOf    time.Time
}

// PricePoint is one sample of a historical price series.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// ChangeSummary carries a provider-reported 24-hour percent change for
// backends that expose a summary figure instead of a raw series.
type ChangeSummary struct {
	TokenID    string
	Change24h  float64 // percent, e.g. 2.5 for +2.5%
	LastPrice  float64
	ObservedAt time.Time
}

// Provider is the interface for all supported market-data backends.
type Provider interface {
	Name() string
	FetchCurrentPrice(ctx context.Context, tokenID string) (Quote, error)
	FetchPriceSeries(ctx context.Context, tokenID string, windowDays int) ([]PricePoint, error)
	Fetch24hChange(ctx context.Context, tokenID string) (ChangeSummary, error)
	FetchReferenceRate(ctx context.Context) (float64, error)
}
