package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuminaFi/zap-service/internal/cache"
	"github.com/LuminaFi/zap-service/internal/fee"
	"github.com/LuminaFi/zap-service/internal/market"
	"github.com/LuminaFi/zap-service/internal/pricing"
	"github.com/LuminaFi/zap-service/internal/refrate"
	"github.com/LuminaFi/zap-service/internal/volatility"
)

func newTestServer(t *testing.T) (*Server, *market.MockProvider) {
	t.Helper()

	provider := market.NewMockProvider()
	provider.Prices["ethereum"] = 1800.0

	logger := zerolog.Nop()
	policy := fee.DefaultPolicy()
	rates := refrate.Static(15500)

	quotes := pricing.NewQuoteService(provider, cache.NewMemoryStore[pricing.TokenQuote](5*time.Minute), rates, logger)
	vol := pricing.NewVolatilityService(provider, volatility.Statistical{}, cache.NewMemoryStore[pricing.VolatilityEstimate](10*time.Minute), policy, logger)
	engine := pricing.NewEngine(quotes, vol, policy, nil, logger)

	return New(DefaultConfig(), engine, logger), provider
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandlePrice(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/api/v1/price/eth", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var quote pricing.TokenQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, "ethereum", quote.TokenID)
	assert.Equal(t, "ETH", quote.DisplaySymbol)
	assert.InDelta(t, 1800.0, quote.PriceUSD, 1e-9)
	assert.InDelta(t, 1800.0*15500, quote.PriceIDR, 1e-6)
}

func TestHandlePriceUnknownToken(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/api/v1/price/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Kind)
}

func TestHandleFees(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "POST", "/api/v1/fees", `{"token":"eth","amount":1.0,"spread_fee":0.002}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result pricing.FeeBreakdown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.InDelta(t, 0.007, result.TotalFeeAmount, 1e-12)
	assert.InDelta(t, 0.993, result.AmountAfterFees, 1e-12)
}

func TestHandleFeesInvalidAmount(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "POST", "/api/v1/fees", `{"token":"eth","amount":-5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFeesMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "POST", "/api/v1/fees", `{"token":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVolatilityWindowValidation(t *testing.T) {
	s, provider := newTestServer(t)

	rec := doRequest(t, s, "GET", "/api/v1/volatility/eth?days=31", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, "GET", "/api/v1/volatility/eth?days=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, provider.SeriesCalls)
}

func TestHandleConvertRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "POST", "/api/v1/convert/target", `{"token":"eth","amount":1.0,"spread_fee":0.002}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var fwd convertTargetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fwd))
	assert.InDelta(t, 0.993*1800*15500, fwd.TargetAmount, 1e-3)

	body := `{"token":"eth","target_amount":` + strings.TrimSpace(string(mustJSON(t, fwd.TargetAmount))) + `,"spread_fee":0.002}`
	rec = doRequest(t, s, "POST", "/api/v1/convert/source", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var inv convertSourceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.InEpsilon(t, 1.0, inv.SourceAmount, 1e-9)
}

func TestRateLimitedMapsTo429(t *testing.T) {
	s, provider := newTestServer(t)
	provider.PriceErr = market.Errorf(market.KindRateLimited, "mock", "throttled")

	rec := doRequest(t, s, "GET", "/api/v1/price/eth", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestUpstreamMapsTo502(t *testing.T) {
	s, provider := newTestServer(t)
	provider.PriceErr = market.Errorf(market.KindUpstream, "mock", "boom")

	rec := doRequest(t, s, "GET", "/api/v1/price/eth", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
