package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	// MaxBatch caps the number of requests accepted by one batch call.
	MaxBatch int `json:"max_batch" yaml:"max_batch"`
}

type Logging struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type CoinGecko struct {
	Enabled               bool              `json:"enabled" yaml:"enabled"`
	Endpoint              string            `json:"endpoint" yaml:"endpoint"`
	APIKey                string            `json:"api_key" yaml:"api_key"`
	IDs                   map[string]string `json:"ids" yaml:"ids"`
	MaxRequestsPerMinute  int               `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	MinRequestIntervalSec int               `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
	Burst                 int               `json:"burst" yaml:"burst"`
	CacheTTLSeconds       int               `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
}

type Finnhub struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// APIKey is used when a request carries no key of its own.
	APIKey                string `json:"api_key" yaml:"api_key"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
	Burst                 int    `json:"burst" yaml:"burst"`
	CacheTTLSeconds       int    `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
}

type Trading212 struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// APIKey is used when a request carries no broker token of its own.
	APIKey             string `json:"api_key" yaml:"api_key"`
	SnapshotTTLSeconds int    `json:"snapshot_ttl_sec" yaml:"snapshot_ttl_sec"`
	DemoOnNetworkError bool   `json:"demo_on_network_error" yaml:"demo_on_network_error"`
}

type Synthetic struct {
	// Prices adds or overrides anchor prices by symbol.
	Prices map[string]float64 `json:"prices" yaml:"prices"`
	// Volatility maps an asset class to low, normal or high.
	Volatility map[string]string `json:"volatility" yaml:"volatility"`
}

// FX holds exchange-rate overrides: USD per unit of each ISO currency.
type FX struct {
	Rates map[string]float64 `json:"rates" yaml:"rates"`
}

type Config struct {
	Server     Server     `json:"server" yaml:"server"`
	Logging    Logging    `json:"logging" yaml:"logging"`
	CoinGecko  CoinGecko  `json:"coingecko" yaml:"coingecko"`
	Finnhub    Finnhub    `json:"finnhub" yaml:"finnhub"`
	Trading212 Trading212 `json:"trading212" yaml:"trading212"`
	Synthetic  Synthetic  `json:"synthetic" yaml:"synthetic"`
	FX         FX         `json:"fx" yaml:"fx"`
}

func Default() Config {
	return Config{
		Server:  Server{Port: "8080", RequestTimeoutSec: 10, MaxBatch: 200},
		Logging: Logging{Level: "info", Format: "text"},
		CoinGecko: CoinGecko{
			Enabled:              true,
			Endpoint:             "https://api.coingecko.com/api/v3",
			MaxRequestsPerMinute: 30,
			Burst:                5,
			CacheTTLSeconds:      30,
		},
		Finnhub: Finnhub{
			Enabled:              true,
			Endpoint:             "https://finnhub.io/api/v1",
			MaxRequestsPerMinute: 60,
			Burst:                10,
			CacheTTLSeconds:      15,
		},
		Trading212: Trading212{
			Enabled:            true,
			Endpoint:           "https://live.trading212.com/api/v0",
			SnapshotTTLSeconds: 10,
		},
		Synthetic: Synthetic{
			Volatility: map[string]string{"crypto": "high", "equity": "normal", "broker": "low"},
		},
	}
}

// Load reads config from path. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON. If path is empty or the file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.yaml", "config.yml", "config.json"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func applyEnv(cfg *Config) {
	envString("PORT", &cfg.Server.Port)
	envInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec, 1)
	envInt("MAX_BATCH", &cfg.Server.MaxBatch, 1)

	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)

	envBool("COINGECKO_ENABLED", &cfg.CoinGecko.Enabled)
	envString("COINGECKO_ENDPOINT", &cfg.CoinGecko.Endpoint)
	envString("COINGECKO_API_KEY", &cfg.CoinGecko.APIKey)
	envInt("COINGECKO_MAX_RPM", &cfg.CoinGecko.MaxRequestsPerMinute, 0)
	envInt("COINGECKO_MIN_INTERVAL_SEC", &cfg.CoinGecko.MinRequestIntervalSec, 0)
	envInt("COINGECKO_BURST", &cfg.CoinGecko.Burst, 1)
	envInt("COINGECKO_CACHE_TTL_SEC", &cfg.CoinGecko.CacheTTLSeconds, 0)

	envBool("FINNHUB_ENABLED", &cfg.Finnhub.Enabled)
	envString("FINNHUB_ENDPOINT", &cfg.Finnhub.Endpoint)
	envString("FINNHUB_API_KEY", &cfg.Finnhub.APIKey)
	envInt("FINNHUB_MAX_RPM", &cfg.Finnhub.MaxRequestsPerMinute, 0)
	envInt("FINNHUB_MIN_INTERVAL_SEC", &cfg.Finnhub.MinRequestIntervalSec, 0)
	envInt("FINNHUB_BURST", &cfg.Finnhub.Burst, 1)
	envInt("FINNHUB_CACHE_TTL_SEC", &cfg.Finnhub.CacheTTLSeconds, 0)

	envBool("TRADING212_ENABLED", &cfg.Trading212.Enabled)
	envString("TRADING212_ENDPOINT", &cfg.Trading212.Endpoint)
	envString("TRADING212_API_KEY", &cfg.Trading212.APIKey)
	envInt("TRADING212_SNAPSHOT_TTL_SEC", &cfg.Trading212.SnapshotTTLSeconds, 1)
	envBool("TRADING212_DEMO_ON_NETWORK_ERROR", &cfg.Trading212.DemoOnNetworkError)

	envRates("FX_RATES", &cfg.FX.Rates)
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// envInt ignores values that do not parse or fall below lowest.
func envInt(key string, dst *int, lowest int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	x, err := strconv.Atoi(v)
	if err != nil || x < lowest {
		return
	}
	*dst = x
}

func envBool(key string, dst *bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		*dst = true
	case "0", "false", "no", "n":
		*dst = false
	}
}

// envRates merges CODE=rate pairs such as "EUR=1.09,GBP=1.27" into dst.
// Malformed pairs are skipped.
func envRates(key string, dst *map[string]float64) {
	for _, pair := range SplitCSV(os.Getenv(key)) {
		code, rate, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
		if err != nil {
			continue
		}
		if *dst == nil {
			*dst = make(map[string]float64)
		}
		(*dst)[strings.ToUpper(strings.TrimSpace(code))] = x
	}
}

// SplitCSV splits a comma-separated list, dropping blanks.
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
