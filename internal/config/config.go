// Package config
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

/*
YAML config example:
provider: "coingecko"
wallex_api_key: "..."
db_conn_str: "postgres://..."
redis_addr: "localhost:6379"
http_host: "0.0.0.0"
http_port: 8080
price_ttl: 5m
volatility_ttl: 10m
rate_refresh_interval: 1h
default_reference_rate: 15500
admin_fee: 0.005
base_spread_fee: 0.001
volatility_weight: 0.5
max_spread_fee: 0.02
default_spread_fee: 0.002
volatility_strategy: "statistical"
log_level: "info"
*/

// Duration wraps time.Duration so YAML configs can use "5m" style
// values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(ns)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Provider     string `yaml:"provider"`
	WallexAPIKey string `yaml:"wallex_api_key"`

	DBConnStr string `yaml:"db_conn_str"`
	DBMaxOpen int    `yaml:"db_max_open"`
	DBMaxIdle int    `yaml:"db_max_idle"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	HTTPHost string `yaml:"http_host"`
	HTTPPort int    `yaml:"http_port"`

	PriceTTL            Duration `yaml:"price_ttl"`
	VolatilityTTL       Duration `yaml:"volatility_ttl"`
	RateRefreshInterval Duration `yaml:"rate_refresh_interval"`

	DefaultReferenceRate float64 `yaml:"default_reference_rate"`

	AdminFee         float64 `yaml:"admin_fee"`
	BaseSpreadFee    float64 `yaml:"base_spread_fee"`
	VolatilityWeight float64 `yaml:"volatility_weight"`
	MaxSpreadFee     float64 `yaml:"max_spread_fee"`
	DefaultSpreadFee float64 `yaml:"default_spread_fee"`

	VolatilityStrategy string `yaml:"volatility_strategy"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
}

func loadConfig() (Config, error) {
	provider := flag.String("provider", "coingecko", "Market data provider: coingecko or wallex")
	httpHost := flag.String("http-host", "0.0.0.0", "HTTP listen host")
	httpPort := flag.Int("http-port", 8080, "HTTP listen port")
	redisAddr := flag.String("redis-addr", "", "Redis address for shared caches (empty: in-memory)")
	priceTTL := flag.Duration("price-ttl", 5*time.Minute, "Price cache TTL")
	volatilityTTL := flag.Duration("volatility-ttl", 10*time.Minute, "Volatility cache TTL")
	rateRefreshInterval := flag.Duration("rate-refresh-interval", time.Hour, "Reference rate refresh interval")
	defaultReferenceRate := flag.Float64("default-reference-rate", 15500, "Fallback IDR per USDT rate")
	adminFee := flag.Float64("admin-fee", 0.005, "Fixed admin fee fraction")
	baseSpreadFee := flag.Float64("base-spread-fee", 0.001, "Minimum spread fee fraction")
	volatilityWeight := flag.Float64("volatility-weight", 0.5, "Spread fee volatility weight")
	maxSpreadFee := flag.Float64("max-spread-fee", 0.02, "Spread fee cap")
	defaultSpreadFee := flag.Float64("default-spread-fee", 0.002, "Spread fee used when volatility is unavailable")
	volatilityStrategy := flag.String("volatility-strategy", "statistical", "Volatility estimator: statistical or change-summary")
	logLevel := flag.String("log-level", "info", "Log level")
	logPretty := flag.Bool("log-pretty", false, "Human-readable log output")
	configFile := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
		fileCfg.applyDefaults()
		return fileCfg, fileCfg.validate()
	}

	cfg := Config{
		Provider:             *provider,
		WallexAPIKey:         os.Getenv("WALLEX_API_KEY"),
		DBConnStr:            os.Getenv("DB_CONN_STR"),
		DBMaxOpen:            10,
		DBMaxIdle:            5,
		RedisAddr:            *redisAddr,
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		HTTPHost:             *httpHost,
		HTTPPort:             *httpPort,
		PriceTTL:             Duration(*priceTTL),
		VolatilityTTL:        Duration(*volatilityTTL),
		RateRefreshInterval:  Duration(*rateRefreshInterval),
		DefaultReferenceRate: *defaultReferenceRate,
		AdminFee:             *adminFee,
		BaseSpreadFee:        *baseSpreadFee,
		VolatilityWeight:     *volatilityWeight,
		MaxSpreadFee:         *maxSpreadFee,
		DefaultSpreadFee:     *defaultSpreadFee,
		VolatilityStrategy:   *volatilityStrategy,
		LogLevel:             *logLevel,
		LogPretty:            *logPretty,
	}
	cfg.applyDefaults()
	return cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "coingecko"
	}
	if c.DBMaxOpen == 0 {
		c.DBMaxOpen = 10
	}
	if c.DBMaxIdle == 0 {
		c.DBMaxIdle = 5
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.PriceTTL == 0 {
		c.PriceTTL = Duration(5 * time.Minute)
	}
	if c.VolatilityTTL == 0 {
		c.VolatilityTTL = Duration(10 * time.Minute)
	}
	if c.RateRefreshInterval == 0 {
		c.RateRefreshInterval = Duration(time.Hour)
	}
	if c.DefaultReferenceRate == 0 {
		c.DefaultReferenceRate = 15500
	}
	if c.AdminFee == 0 {
		c.AdminFee = 0.005
	}
	if c.BaseSpreadFee == 0 {
		c.BaseSpreadFee = 0.001
	}
	if c.VolatilityWeight == 0 {
		c.VolatilityWeight = 0.5
	}
	if c.MaxSpreadFee == 0 {
		c.MaxSpreadFee = 0.02
	}
	if c.DefaultSpreadFee == 0 {
		c.DefaultSpreadFee = 0.002
	}
	if c.VolatilityStrategy == "" {
		c.VolatilityStrategy = "statistical"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case "coingecko", "wallex":
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	switch c.VolatilityStrategy {
	case "statistical", "change-summary":
	default:
		return fmt.Errorf("unsupported volatility strategy: %s", c.VolatilityStrategy)
	}
	if c.BaseSpreadFee > c.MaxSpreadFee {
		return fmt.Errorf("base_spread_fee %v exceeds max_spread_fee %v", c.BaseSpreadFee, c.MaxSpreadFee)
	}
	if c.AdminFee < 0 || c.BaseSpreadFee < 0 || c.MaxSpreadFee < 0 || c.DefaultSpreadFee < 0 {
		return fmt.Errorf("fee fractions must be non-negative")
	}
	return nil
}

func MustLoadConfig() Config {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
