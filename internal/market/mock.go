package market

import (
	"context"
	"sync"
	"time"
)

// MockProvider provides canned responses for tests. Call counters let
// tests assert whether a cache served a value or hit the backend.
type MockProvider struct {
	mu sync.Mutex

	Prices    map[string]float64
	Series    map[string][]PricePoint
	Changes   map[string]float64
	RefRate   float64
	PriceErr  error
	SeriesErr error
	ChangeErr error
	RateErr   error

	PriceCalls  int
	SeriesCalls int
	ChangeCalls int
	RateCalls   int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		Prices:  make(map[string]float64),
		Series:  make(map[string][]PricePoint),
		Changes: make(map[string]float64),
	}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) FetchCurrentPrice(ctx context.Context, tokenID string) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PriceCalls++
	if m.PriceErr != nil {
		return Quote{}, m.PriceErr
	}
	price, ok := m.Prices[tokenID]
	if !ok {
		return Quote{}, Errorf(KindNotFound, "mock.FetchCurrentPrice", "unknown token %q", tokenID)
	}
	return Quote{TokenID: tokenID, Price: price, AsOf: time.Now().UTC()}, nil
}

func (m *MockProvider) FetchPriceSeries(ctx context.Context, tokenID string, windowDays int) ([]PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeriesCalls++
	if m.SeriesErr != nil {
		return nil, m.SeriesErr
	}
	series, ok := m.Series[tokenID]
	if !ok {
		return nil, Errorf(KindNotFound, "mock.FetchPriceSeries", "unknown token %q", tokenID)
	}
	return series, nil
}

func (m *MockProvider) Fetch24hChange(ctx context.Context, tokenID string) (ChangeSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChangeCalls++
	if m.ChangeErr != nil {
		return ChangeSummary{}, m.ChangeErr
	}
	change, ok := m.Changes[tokenID]
	if !ok {
		return ChangeSummary{}, Errorf(KindNotFound, "mock.Fetch24hChange", "unknown token %q", tokenID)
	}
	return ChangeSummary{
		TokenID:    tokenID,
		Change24h:  change,
		LastPrice:  m.Prices[tokenID],
		ObservedAt: time.Now().UTC(),
	}, nil
}

func (m *MockProvider) FetchReferenceRate(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateCalls++
	if m.RateErr != nil {
		return 0, m.RateErr
	}
	return m.RefRate, nil
}
