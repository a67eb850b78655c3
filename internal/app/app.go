// Package app assembles a Resolver and its adapters from configuration.
package app

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wealthprice/internal/config"
	"wealthprice/internal/fx"
	"wealthprice/internal/httpx"
	"wealthprice/internal/logging"
	"wealthprice/internal/metrics"
	"wealthprice/internal/provider"
	"wealthprice/internal/provider/cache"
	"wealthprice/internal/provider/coingecko"
	"wealthprice/internal/provider/finnhub"
	"wealthprice/internal/provider/positions"
	"wealthprice/internal/provider/ratelimit"
	"wealthprice/internal/provider/synthetic"
	"wealthprice/internal/provider/trading212"
	"wealthprice/internal/resolver"
)

const userAgent = "wealthprice/1.0"

// App is a configured resolver plus the credentials used when a request
// brings none.
type App struct {
	Resolver *resolver.Resolver
	Defaults provider.Credentials
}

// Credentials fills empty fields of c from the configured defaults.
func (a *App) Credentials(c provider.Credentials) provider.Credentials {
	if c.EquityAPIKey == "" {
		c.EquityAPIKey = a.Defaults.EquityAPIKey
	}
	if c.BrokerToken == "" {
		c.BrokerToken = a.Defaults.BrokerToken
	}
	return c
}

// New wires every enabled adapter. m may be nil.
func New(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) *App {
	logger = logging.OrDefault(logger)

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	httpClient.UserAgent = userAgent
	if m != nil {
		httpClient.Instrument(m.UpstreamRequests, m.UpstreamLatency)
	}

	options := []resolver.Option{resolver.WithLogger(logger), resolver.WithMetrics(m)}

	if cfg.CoinGecko.Enabled {
		cg := coingecko.New(
			coingecko.WithBaseURL(cfg.CoinGecko.Endpoint),
			coingecko.WithHTTPClient(httpClient),
			coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
			coingecko.WithIDs(cfg.CoinGecko.IDs),
			coingecko.WithHeader(http.Header{"User-Agent": []string{userAgent}}),
			coingecko.WithLogger(logger.With("provider", "coingecko")),
		)
		f := limit(cg, cfg.CoinGecko.MaxRequestsPerMinute, cfg.CoinGecko.Burst, cfg.CoinGecko.MinRequestIntervalSec)
		f = cache.Wrap(f, seconds(cfg.CoinGecko.CacheTTLSeconds), cache.WithLogger(logger), cache.WithMetrics(m))
		options = append(options, resolver.WithChain(provider.Crypto, f))
	} else {
		logger.Warn("coingecko disabled; crypto prices will be estimated")
	}

	if cfg.Finnhub.Enabled {
		fh := finnhub.New(
			finnhub.WithBaseURL(cfg.Finnhub.Endpoint),
			finnhub.WithHTTPClient(httpClient),
			finnhub.WithHeader(http.Header{"User-Agent": []string{userAgent}}),
			finnhub.WithLogger(logger.With("provider", "finnhub")),
		)
		f := limit(fh, cfg.Finnhub.MaxRequestsPerMinute, cfg.Finnhub.Burst, cfg.Finnhub.MinRequestIntervalSec)
		f = cache.Wrap(f, seconds(cfg.Finnhub.CacheTTLSeconds), cache.WithLogger(logger), cache.WithMetrics(m))
		options = append(options, resolver.WithChain(provider.Equity, f))
		if cfg.Finnhub.APIKey == "" {
			logger.Warn("finnhub.api_key not set; equity prices need a per-request key")
		}
	} else {
		logger.Warn("finnhub disabled; equity prices will be estimated")
	}

	if cfg.Trading212.Enabled {
		t212 := trading212.New(
			trading212.WithBaseURL(cfg.Trading212.Endpoint),
			trading212.WithHTTPClient(httpClient),
			trading212.WithLogger(logger.With("provider", "trading212")),
		)
		pc := positions.New(t212,
			positions.WithTTL(seconds(cfg.Trading212.SnapshotTTLSeconds)),
			positions.WithDemoOnNetworkError(cfg.Trading212.DemoOnNetworkError),
			positions.WithLogger(logger),
			positions.WithMetrics(m),
		)
		options = append(options, resolver.WithChain(provider.BrokerTracked, pc))
		if cfg.Trading212.DemoOnNetworkError {
			logger.Warn("trading212 demo snapshot enabled; offline lookups will return canned positions")
		}
	} else {
		logger.Warn("trading212 disabled; broker prices will be estimated")
	}

	rates, err := fx.New(cfg.FX.Rates)
	if err != nil {
		logger.Warn("ignoring fx overrides", "err", err)
	}
	options = append(options, resolver.WithRates(rates))

	options = append(options, resolver.WithGenerator(synthetic.New(synthetic.WithPrices(cfg.Synthetic.Prices))))
	for class, v := range cfg.Synthetic.Volatility {
		ac, ok := provider.ParseAssetClass(class)
		if !ok {
			logger.Warn("ignoring volatility for unknown asset class", "class", class)
			continue
		}
		options = append(options, resolver.WithVolatility(ac, synthetic.ParseVolatility(strings.ToLower(v))))
	}

	return &App{
		Resolver: resolver.New(options...),
		Defaults: provider.Credentials{
			EquityAPIKey: cfg.Finnhub.APIKey,
			BrokerToken:  cfg.Trading212.APIKey,
		},
	}
}

// limit prefers a token bucket with burst if rpm is set, otherwise a
// min-interval gate.
func limit(f provider.Fetcher, rpm, burst, minIntervalSec int) provider.Fetcher {
	if rpm > 0 {
		return ratelimit.PerMinute(f, rpm, burst)
	}
	if minIntervalSec > 0 {
		return &ratelimit.MinInterval{Next: f, Interval: seconds(minIntervalSec)}
	}
	return f
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
