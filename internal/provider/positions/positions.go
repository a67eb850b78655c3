// Package positions prices broker-tracked holdings from a short-lived
// snapshot of the account's portfolio.
//
// A whole portfolio is fetched at once and reused for DefaultTTL, so pricing
// many holdings of the same account costs one upstream call per TTL window.
package positions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wealthprice/internal/logging"
	"wealthprice/internal/metrics"
	"wealthprice/internal/provider"
	"wealthprice/internal/provider/cache"
	"wealthprice/internal/provider/trading212"
	"wealthprice/internal/symbol"
)

// DefaultTTL is how long a portfolio snapshot is served without refetching.
const DefaultTTL = 10 * time.Second

const lookupDemo = "demo"

// Portfolio fetches all open positions for an account token.
type Portfolio interface {
	Name() string
	FetchPositions(ctx context.Context, token string) (trading212.Snapshot, error)
}

// Cache implements provider.Fetcher over a Portfolio.
type Cache struct {
	portfolio Portfolio
	snap      *cache.Snapshot[trading212.Snapshot]
	logger    *slog.Logger
	metrics   *metrics.Metrics
	demo      bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.snap.TTL = ttl
		}
	}
}

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.snap.Now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithDemoOnNetworkError answers from trading212.DemoSnapshot when the broker
// is unreachable and no real snapshot was ever cached for the token. Demo
// prices are tagged provider.SourceTrading212Demo and never stored.
func WithDemoOnNetworkError(enabled bool) Option {
	return func(c *Cache) { c.demo = enabled }
}

// New returns a Cache reading from portfolio.
func New(portfolio Portfolio, options ...Option) *Cache {
	c := &Cache{
		portfolio: portfolio,
		snap:      cache.New[trading212.Snapshot](DefaultTTL),
	}
	for _, option := range options {
		option(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

func (c *Cache) Name() string { return c.portfolio.Name() }

// FetchPrice returns the current price of the position matching sym.
//
// Entries are keyed by a digest of the broker token, so accounts never see
// each other's holdings. When a refresh fails the last snapshot is used,
// unless the broker rejected the token. With no snapshot to fall back on, an
// unreachable broker yields the demo snapshot if that is enabled.
func (c *Cache) FetchPrice(ctx context.Context, sym symbol.Symbol, creds provider.Credentials) (provider.Price, error) {
	token := creds.BrokerToken
	if token == "" {
		return provider.Price{}, provider.NewError(c.Name(), provider.KindUnauthenticated, 0, errors.New("no broker token"))
	}
	key := cache.Key(token)

	e, lookup, err := c.snap.Get(ctx, key, func(ctx context.Context) (trading212.Snapshot, error) {
		return c.portfolio.FetchPositions(ctx, token)
	})
	if err != nil {
		if ctx.Err() != nil {
			return provider.Price{}, provider.NewError(c.Name(), provider.KindNetwork, 0, err)
		}
		if errors.Is(err, provider.ErrUnauthenticated) {
			return provider.Price{}, err
		}
		stale, ok := c.snap.Peek(key)
		switch {
		case ok:
			c.logger.Warn("serving stale portfolio snapshot", "provider", c.Name(), "fetched_at", stale.FetchedAt, "err", err)
			e, lookup = stale, cache.Stale
		case c.demo && errors.Is(err, provider.ErrNetwork):
			c.logger.Warn("broker unreachable, serving demo snapshot", "provider", c.Name(), "err", err)
			c.metrics.CacheLookup("positions", lookupDemo)
			return c.find(cache.Entry[trading212.Snapshot]{Data: trading212.DemoSnapshot()}, sym)
		default:
			return provider.Price{}, err
		}
	}
	c.metrics.CacheLookup("positions", string(lookup))

	return c.find(e, sym)
}

func (c *Cache) find(e cache.Entry[trading212.Snapshot], sym symbol.Symbol) (provider.Price, error) {
	for _, p := range e.Data.Positions {
		if !symbol.Matches(p.Ticker, sym) {
			continue
		}
		if !p.CurrentPrice.IsPositive() {
			return provider.Price{}, provider.NewError(c.Name(), provider.KindNoData, 0, fmt.Errorf("position %s has no current price", p.Ticker))
		}
		return provider.Price{Value: p.CurrentPrice, Currency: p.Currency, Source: e.Data.Source(), AsOf: e.FetchedAt}, nil
	}
	return provider.Price{}, provider.NewError(c.Name(), provider.KindNoData, 0, fmt.Errorf("no position for %s", sym))
}
