package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoinGecko(t *testing.T, handler http.HandlerFunc) *CoinGeckoProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewCoinGeckoProvider(CoinGeckoConfig{
		BaseURL: srv.URL,
		RPS:     1000, // no throttling in tests
		Burst:   1000,
	}, zerolog.Nop())
}

func TestCoinGeckoFetchCurrentPrice(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "ethereum", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"ethereum":{"usd":1800.5,"last_updated_at":1748779200}}`))
	})

	quote, err := provider.FetchCurrentPrice(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "ethereum", quote.TokenID)
	assert.Equal(t, 1800.5, quote.Price)
	assert.Equal(t, time.Unix(1748779200, 0).UTC(), quote.AsOf)
}

func TestCoinGeckoUnknownTokenIsNotFound(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := provider.FetchCurrentPrice(context.Background(), "no-such-token")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCoinGeckoRateLimitedIs429(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := provider.FetchCurrentPrice(context.Background(), "ethereum")
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestCoinGeckoServerErrorIsUpstream(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := provider.FetchCurrentPrice(context.Background(), "ethereum")
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestCoinGeckoFetchPriceSeries(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/ethereum/market_chart", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		w.Write([]byte(`{"prices":[[1748779200000,1800.0],[1748782800000,1810.0],[1748786400000,1805.0]]}`))
	})

	points, err := provider.FetchPriceSeries(context.Background(), "ethereum", 7)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 1800.0, points[0].Price)
	assert.Equal(t, time.UnixMilli(1748779200000).UTC(), points[0].Timestamp)
	assert.True(t, points[1].Timestamp.After(points[0].Timestamp))
}

func TestCoinGeckoFetchReferenceRate(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tether", r.URL.Query().Get("ids"))
		assert.Equal(t, "idr", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"tether":{"idr":15500.0}}`))
	})

	rate, err := provider.FetchReferenceRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15500.0, rate)
}

func TestCoinGeckoBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		provider.FetchCurrentPrice(context.Background(), "ethereum")
	}

	// After three consecutive failures the breaker stops sending
	// requests upstream.
	assert.Equal(t, 3, calls)

	_, err := provider.FetchCurrentPrice(context.Background(), "ethereum")
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))
}
