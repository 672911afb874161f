package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/LuminaFi/zap-service/internal/cache"
	"github.com/LuminaFi/zap-service/internal/config"
	"github.com/LuminaFi/zap-service/internal/db"
	"github.com/LuminaFi/zap-service/internal/fee"
	"github.com/LuminaFi/zap-service/internal/logging"
	"github.com/LuminaFi/zap-service/internal/market"
	"github.com/LuminaFi/zap-service/internal/pricing"
	"github.com/LuminaFi/zap-service/internal/refrate"
	"github.com/LuminaFi/zap-service/internal/server"
	"github.com/LuminaFi/zap-service/internal/volatility"
)

func main() {
	cfg := config.MustLoadConfig()

	logger := logging.New(cfg.LogLevel, cfg.LogPretty)
	logger.Info().Str("provider", cfg.Provider).Str("strategy", cfg.VolatilityStrategy).Msg("starting zap-service")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Market data provider
	var provider market.Provider
	switch cfg.Provider {
	case "wallex":
		provider = market.NewWallexProvider(cfg.WallexAPIKey, logger)
	default:
		provider = market.NewCoinGeckoProvider(market.CoinGeckoConfig{}, logger)
	}

	// Event journal (Postgres when configured, in-memory otherwise)
	storage, err := db.New(cfg.DBConnStr, cfg.DBMaxOpen, cfg.DBMaxIdle)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer storage.Close()
	if storage.GetDB() != nil {
		logger.Info().Msg("connected to Postgres event journal")
	}

	// Caches: Redis when configured, per-process memory otherwise
	quoteStore, volStore, err := buildStores(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize caches")
	}

	// Reference rate: best-effort initial fetch, then periodic refresh
	refresher := refrate.NewRefresher(provider, cfg.RateRefreshInterval.Std(), cfg.DefaultReferenceRate, logger)
	refresher.Init(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		refresher.Run(ctx)
	}()

	// Pricing engine
	policy := fee.Policy{
		AdminFee:         cfg.AdminFee,
		BaseSpreadFee:    cfg.BaseSpreadFee,
		VolatilityWeight: cfg.VolatilityWeight,
		MaxSpreadFee:     cfg.MaxSpreadFee,
		DefaultSpreadFee: cfg.DefaultSpreadFee,
	}
	estimator := volatility.ForName(cfg.VolatilityStrategy)

	quotes := pricing.NewQuoteService(provider, quoteStore, refresher, logger)
	vol := pricing.NewVolatilityService(provider, estimator, volStore, policy, logger)
	engine := pricing.NewEngine(quotes, vol, policy, storage, logger)

	// HTTP surface
	srvConfig := server.DefaultConfig()
	srvConfig.Host = cfg.HTTPHost
	srvConfig.Port = cfg.HTTPPort

	srv := server.New(srvConfig, engine, logger)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}

	wg.Wait()
	logger.Info().Msg("shutdown complete")
}

// buildStores picks the cache backend for both caches from config.
func buildStores(cfg config.Config) (cache.Store[pricing.TokenQuote], cache.Store[pricing.VolatilityEstimate], error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryStore[pricing.TokenQuote](cfg.PriceTTL.Std()),
			cache.NewMemoryStore[pricing.VolatilityEstimate](cfg.VolatilityTTL.Std()),
			nil
	}

	client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisStore[pricing.TokenQuote](client, "price", cfg.PriceTTL.Std()),
		cache.NewRedisStore[pricing.VolatilityEstimate](client, "volatility", cfg.VolatilityTTL.Std()),
		nil
}
