package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

	// Free tier allows ~30 req/min; stay well under it.
	coinGeckoRPS   = 0.4
	coinGeckoBurst = 3

	requestTimeout = 10 * time.Second
)

// CoinGeckoProvider fetches quotes and price history from the CoinGecko
// public API. All prices are quoted in USD; the reference rate is the
// IDR price of one USDT.
type CoinGeckoProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// CoinGeckoConfig holds the tunables for the CoinGecko backend.
type CoinGeckoConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RPS            float64
	Burst          int
}

func NewCoinGeckoProvider(cfg CoinGeckoConfig, logger zerolog.Logger) *CoinGeckoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = coinGeckoBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = requestTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = coinGeckoRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = coinGeckoBurst
	}

	st := gobreaker.Settings{Name: "coingecko"}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}

	return &CoinGeckoProvider{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(st),
		logger:  logger.With().Str("component", "coingecko").Logger(),
	}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

// simplePriceEntry is one token's record in a simple/price response.
type simplePriceEntry struct {
	USD           float64 `json:"usd"`
	IDR           float64 `json:"idr"`
	USD24hChange  float64 `json:"usd_24h_change"`
	LastUpdatedAt int64   `json:"last_updated_at"`
}

func (p *CoinGeckoProvider) FetchCurrentPrice(ctx context.Context, tokenID string) (Quote, error) {
	const op = "coingecko.FetchCurrentPrice"

	q := url.Values{}
	q.Set("ids", tokenID)
	q.Set("vs_currencies", "usd")
	q.Set("include_last_updated_at", "true")

	var resp map[string]simplePriceEntry
	if err := p.getJSON(ctx, op, "/simple/price", q, &resp); err != nil {
		return Quote{}, err
	}

	entry, ok := resp[tokenID]
	if !ok || entry.USD == 0 {
		return Quote{}, Errorf(KindNotFound, op, "no usd price for token %q", tokenID)
	}

	asOf := time.Now().UTC()
	if entry.LastUpdatedAt > 0 {
		asOf = time.Unix(entry.LastUpdatedAt, 0).UTC()
	}

	p.logger.Debug().Str("token", tokenID).Float64("price", entry.USD).Msg("fetched current price")

	return Quote{TokenID: tokenID, Price: entry.USD, AsOf: asOf}, nil
}

// marketChartResponse mirrors the coins/{id}/market_chart payload:
// each sample is a [unix_ms, value] pair.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

func (p *CoinGeckoProvider) FetchPriceSeries(ctx context.Context, tokenID string, windowDays int) ([]PricePoint, error) {
	const op = "coingecko.FetchPriceSeries"

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(windowDays))

	var resp marketChartResponse
	path := fmt.Sprintf("/coins/%s/market_chart", url.PathEscape(tokenID))
	if err := p.getJSON(ctx, op, path, q, &resp); err != nil {
		return nil, err
	}

	points := make([]PricePoint, 0, len(resp.Prices))
	for _, sample := range resp.Prices {
		points = append(points, PricePoint{
			Timestamp: time.UnixMilli(int64(sample[0])).UTC(),
			Price:     sample[1],
		})
	}

	p.logger.Debug().Str("token", tokenID).Int("days", windowDays).Int("samples", len(points)).Msg("fetched price series")

	return points, nil
}

func (p *CoinGeckoProvider) Fetch24hChange(ctx context.Context, tokenID string) (ChangeSummary, error) {
	const op = "coingecko.Fetch24hChange"

	q := url.Values{}
	q.Set("ids", tokenID)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	var resp map[string]simplePriceEntry
	if err := p.getJSON(ctx, op, "/simple/price", q, &resp); err != nil {
		return ChangeSummary{}, err
	}

	entry, ok := resp[tokenID]
	if !ok || entry.USD == 0 {
		return ChangeSummary{}, Errorf(KindNotFound, op, "no usd price for token %q", tokenID)
	}

	return ChangeSummary{
		TokenID:    tokenID,
		Change24h:  entry.USD24hChange,
		LastPrice:  entry.USD,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// FetchReferenceRate returns the IDR price of one USDT.
func (p *CoinGeckoProvider) FetchReferenceRate(ctx context.Context) (float64, error) {
	const op = "coingecko.FetchReferenceRate"

	q := url.Values{}
	q.Set("ids", "tether")
	q.Set("vs_currencies", "idr")

	var resp map[string]simplePriceEntry
	if err := p.getJSON(ctx, op, "/simple/price", q, &resp); err != nil {
		return 0, err
	}

	entry, ok := resp["tether"]
	if !ok || entry.IDR == 0 {
		return 0, Errorf(KindUpstream, op, "no idr rate in response")
	}

	return entry.IDR, nil
}

// getJSON performs one rate-limited, breaker-guarded GET and decodes the
// response body into out.
func (p *CoinGeckoProvider) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return Wrap(KindUpstream, op, err)
	}

	reqURL := p.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	_, err := p.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, Wrap(KindUpstream, op, err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := p.client.Do(req)
		if err != nil {
			p.logger.Error().Err(err).Str("url", reqURL).Msg("request failed")
			return nil, Wrap(KindUpstream, op, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			p.logger.Warn().Str("retry_after", retryAfter).Msg("rate limited by provider")
			return nil, Errorf(KindRateLimited, op, "throttled, retry after %s", retryAfter)
		case resp.StatusCode == http.StatusNotFound:
			return nil, Errorf(KindNotFound, op, "HTTP 404")
		case resp.StatusCode != http.StatusOK:
			return nil, Errorf(KindUpstream, op, "HTTP %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, Wrap(KindUpstream, op, err)
		}

		p.logger.Debug().Dur("duration", time.Since(start)).Str("path", path).Msg("provider request ok")
		return nil, nil
	})
	if err != nil {
		// The breaker reports its own open-state error unclassified.
		var me *Error
		if errors.As(err, &me) {
			return err
		}
		return Wrap(KindUpstream, op, err)
	}
	return nil
}
