// Package fee
package fee

// Policy maps a daily volatility figure to a bounded spread-fee
// fraction. All constants come from configuration; observed deployment
// profiles run base 0.001-0.002, weight 0.5, cap 0.02-0.03.
type Policy struct {
	AdminFee         float64
	BaseSpreadFee    float64
	VolatilityWeight float64
	MaxSpreadFee     float64
	DefaultSpreadFee float64
}

// DefaultPolicy matches the primary deployment profile.
func DefaultPolicy() Policy {
	return Policy{
		AdminFee:         0.005,
		BaseSpreadFee:    0.001,
		VolatilityWeight: 0.5,
		MaxSpreadFee:     0.02,
		DefaultSpreadFee: 0.002,
	}
}

// RecommendedSpreadFee returns min(base + vol*weight, max). The result
// is always within [BaseSpreadFee, MaxSpreadFee] for vol >= 0.
func (p Policy) RecommendedSpreadFee(dailyVolatility float64) float64 {
	if dailyVolatility < 0 {
		dailyVolatility = 0
	}
	spread := p.BaseSpreadFee + dailyVolatility*p.VolatilityWeight
	if spread > p.MaxSpreadFee {
		spread = p.MaxSpreadFee
	}
	return spread
}
