package market

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	wallex "github.com/wallexchange/wallex-go"
)

// wallexSymbols maps canonical token ids to Wallex USDT market symbols.
// Unmapped tokens fall back to SYMBOL+USDT.
var wallexSymbols = map[string]string{
	"bitcoin":     "BTCUSDT",
	"ethereum":    "ETHUSDT",
	"binancecoin": "BNBUSDT",
	"solana":      "SOLUSDT",
	"cardano":     "ADAUSDT",
	"ripple":      "XRPUSDT",
	"dogecoin":    "DOGEUSDT",
	"tron":        "TRXUSDT",
	"polygon":     "MATICUSDT",
	"tether":      "USDTTMN",
}

// WallexProvider serves quotes and 24h change figures from the Wallex
// exchange. It has no IDR market, so it cannot serve the reference rate.
type WallexProvider struct {
	client *wallex.Client
	logger zerolog.Logger
}

func NewWallexProvider(apiKey string, logger zerolog.Logger) *WallexProvider {
	return &WallexProvider{
		client: wallex.New(wallex.ClientOptions{APIKey: apiKey}),
		logger: logger.With().Str("component", "wallex").Logger(),
	}
}

func (w *WallexProvider) Name() string { return "wallex" }

// retry wraps a function with retry logic for transient errors, using
// exponential backoff capped at one minute.
func (w *WallexProvider) retry(attempts int, delay time.Duration, fn func() error) error {
	backoff := delay
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Int("attempt", i).Int("max", attempts).Dur("backoff", backoff).Msg("retrying")
		time.Sleep(backoff)
		if backoff < time.Minute {
			backoff *= 2
			if backoff > time.Minute {
				backoff = time.Minute
			}
		}
	}
	return err
}

func wallexSymbol(tokenID string) string {
	if sym, ok := wallexSymbols[tokenID]; ok {
		return sym
	}
	return strings.ToUpper(tokenID) + "USDT"
}

func (w *WallexProvider) marketStats(ctx context.Context, op, tokenID string) (*wallex.Market, error) {
	symbol := wallexSymbol(tokenID)

	select {
	case <-ctx.Done():
		w.logger.Warn().Str("op", op).Msg("context canceled")
		return nil, Wrap(KindUpstream, op, ctx.Err())

	default:
		var markets []*wallex.Market
		err := w.retry(3, 2*time.Second, func() error {
			var err error
			markets, err = w.client.Markets()
			return err
		})
		if err != nil {
			return nil, Wrap(KindUpstream, op, err)
		}

		for _, m := range markets {
			if m.Symbol == symbol {
				return m, nil
			}
		}
		return nil, Errorf(KindNotFound, op, "no market %s for token %q", symbol, tokenID)
	}
}

func (w *WallexProvider) FetchCurrentPrice(ctx context.Context, tokenID string) (Quote, error) {
	const op = "wallex.FetchCurrentPrice"

	m, err := w.marketStats(ctx, op, tokenID)
	if err != nil {
		return Quote{}, err
	}

	price := wallexNumber(&m.Stats.LastPrice)
	if price == 0 {
		return Quote{}, Errorf(KindNotFound, op, "empty last price for token %q", tokenID)
	}

	return Quote{TokenID: tokenID, Price: price, AsOf: time.Now().UTC()}, nil
}

func (w *WallexProvider) Fetch24hChange(ctx context.Context, tokenID string) (ChangeSummary, error) {
	const op = "wallex.Fetch24hChange"

	m, err := w.marketStats(ctx, op, tokenID)
	if err != nil {
		return ChangeSummary{}, err
	}

	return ChangeSummary{
		TokenID:    tokenID,
		Change24h:  wallexNumber(&m.Stats.Change24H),
		LastPrice:  wallexNumber(&m.Stats.LastPrice),
		ObservedAt: time.Now().UTC(),
	}, nil
}

// FetchPriceSeries loads hourly candle closes over the window.
func (w *WallexProvider) FetchPriceSeries(ctx context.Context, tokenID string, windowDays int) ([]PricePoint, error) {
	const op = "wallex.FetchPriceSeries"

	symbol := wallexSymbol(tokenID)
	end := time.Now().UTC()
	start := end.Add(-time.Duration(windowDays) * 24 * time.Hour)

	select {
	case <-ctx.Done():
		w.logger.Warn().Str("op", op).Msg("context canceled")
		return nil, Wrap(KindUpstream, op, ctx.Err())

	default:
		var candles []*wallex.Candle
		err := w.retry(3, 2*time.Second, func() error {
			var err error
			candles, err = w.client.Candles(symbol, "60", start, end)
			return err
		})
		if err != nil {
			return nil, Wrap(KindUpstream, op, err)
		}

		points := make([]PricePoint, 0, len(candles))
		for _, c := range candles {
			points = append(points, PricePoint{
				Timestamp: c.Timestamp.UTC(),
				Price:     wallexNumber(&c.Close),
			})
		}
		return points, nil
	}
}

// FetchReferenceRate is unsupported on Wallex; the refresher keeps its
// previous value when this fails.
func (w *WallexProvider) FetchReferenceRate(ctx context.Context) (float64, error) {
	const op = "wallex.FetchReferenceRate"
	return 0, Errorf(KindUpstream, op, "no IDR market on this backend")
}

// wallexNumber safely dereferences a *wallex.Number.
func wallexNumber(n *wallex.Number) float64 {
	if n == nil {
		return 0
	}
	out, _ := strconv.ParseFloat(string(*n), 64)
	return out
}
