package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"wealthprice/internal/logging"
	"wealthprice/internal/metrics"
	"wealthprice/internal/provider"
	"wealthprice/internal/symbol"
)

// Fetcher caches the prices of a wrapped provider.Fetcher per symbol and
// credential for TTL. A failed refresh serves the previous price when there
// is one, except for rejected credentials.
type Fetcher struct {
	next    provider.Fetcher
	snap    *Snapshot[provider.Price]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithClock sets the clock used for TTL checks.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.snap.Now = now }
}

func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

func WithMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// Wrap returns next unchanged when ttl is not positive.
func Wrap(next provider.Fetcher, ttl time.Duration, options ...FetcherOption) provider.Fetcher {
	if next == nil || ttl <= 0 {
		return next
	}
	return NewFetcher(next, ttl, options...)
}

// NewFetcher wraps next with a per-symbol cache.
func NewFetcher(next provider.Fetcher, ttl time.Duration, options ...FetcherOption) *Fetcher {
	f := &Fetcher{next: next, snap: New[provider.Price](ttl)}
	for _, option := range options {
		option(f)
	}
	f.logger = logging.OrDefault(f.logger)
	return f
}

func (f *Fetcher) Name() string { return f.next.Name() }

func (f *Fetcher) FetchPrice(ctx context.Context, sym symbol.Symbol, creds provider.Credentials) (provider.Price, error) {
	key := string(sym) + "|" + Key(creds.EquityAPIKey, creds.BrokerToken)

	e, lookup, err := f.snap.Get(ctx, key, func(ctx context.Context) (provider.Price, error) {
		return f.next.FetchPrice(ctx, sym, creds)
	})
	if err != nil {
		if ctx.Err() != nil {
			return provider.Price{}, provider.NewError(f.Name(), provider.KindNetwork, 0, err)
		}
		if errors.Is(err, provider.ErrUnauthenticated) {
			return provider.Price{}, err
		}
		stale, ok := f.snap.Peek(key)
		if !ok {
			return provider.Price{}, err
		}
		f.logger.Warn("serving stale price", "provider", f.Name(), "symbol", sym, "age", f.snap.now().Sub(stale.FetchedAt).Round(time.Second), "err", err)
		e, lookup = stale, Stale
	}
	f.metrics.CacheLookup(f.Name(), string(lookup))
	return e.Data, nil
}
