// Package resolver turns a (symbol, asset class) request into a Quote by
// trying the live fetchers registered for the class and falling back to a
// synthetic estimate.
//
// Resolve always returns a Quote priced in US dollars when a rate is known.
// Callers inspect Quote.Source and Quote.Reason to tell live, estimated and
// unavailable prices apart.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wealthprice/internal/fx"
	"wealthprice/internal/logging"
	"wealthprice/internal/metrics"
	"wealthprice/internal/provider"
	"wealthprice/internal/provider/synthetic"
	"wealthprice/internal/symbol"
)

//go:generate mockgen -package=resolver_test -destination=mock_fetcher_test.go wealthprice/internal/provider Fetcher

// Resolver is safe for concurrent use.
type Resolver struct {
	chains     map[provider.AssetClass][]provider.Fetcher
	volatility map[provider.AssetClass]synthetic.Volatility
	generator  *synthetic.Generator
	rates      fx.Rates
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Resolver)

// WithChain registers the fetchers tried, in order, for class.
func WithChain(class provider.AssetClass, fetchers ...provider.Fetcher) Option {
	return func(r *Resolver) {
		chain := make([]provider.Fetcher, 0, len(fetchers))
		for _, f := range fetchers {
			if f != nil {
				chain = append(chain, f)
			}
		}
		r.chains[class] = chain
	}
}

// WithGenerator replaces the synthetic fallback generator.
func WithGenerator(g *synthetic.Generator) Option {
	return func(r *Resolver) { r.generator = g }
}

// WithVolatility sets the jitter band used for class's synthetic prices.
func WithVolatility(class provider.AssetClass, v synthetic.Volatility) Option {
	return func(r *Resolver) { r.volatility[class] = v }
}

// WithRates sets the table used to convert non-USD venue prices.
func WithRates(rates fx.Rates) Option {
	return func(r *Resolver) { r.rates = rates }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithClock sets the clock used to stamp fallback quotes.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func New(options ...Option) *Resolver {
	r := &Resolver{
		chains: make(map[provider.AssetClass][]provider.Fetcher),
		volatility: map[provider.AssetClass]synthetic.Volatility{
			provider.Crypto:        synthetic.High,
			provider.Equity:        synthetic.Normal,
			provider.BrokerTracked: synthetic.Low,
		},
		now: time.Now,
	}
	for _, option := range options {
		option(r)
	}
	if r.generator == nil {
		r.generator = synthetic.New()
	}
	if r.rates == nil {
		r.rates = fx.DefaultRates()
	}
	r.logger = logging.OrDefault(r.logger)
	return r
}

// Resolve prices one symbol.
func (r *Resolver) Resolve(ctx context.Context, raw string, class provider.AssetClass, creds provider.Credentials) provider.Quote {
	sym := symbol.Normalize(raw)
	q := r.resolve(ctx, sym, class, creds)
	r.metrics.Resolved(string(class), string(q.Source))
	return q
}

func (r *Resolver) resolve(ctx context.Context, sym symbol.Symbol, class provider.AssetClass, creds provider.Credentials) provider.Quote {
	if sym == "" {
		return r.unavailable(sym)
	}

	reason := provider.KindNoData
	chain, ok := r.chains[class]
	if !ok {
		r.logger.Warn("no fetchers registered for asset class", "class", class, "symbol", sym)
	}
	for _, f := range chain {
		p, err := r.try(ctx, f, sym, creds)
		if err == nil {
			r.metrics.Fetched(f.Name(), "ok")
			return r.live(sym, p)
		}
		reason = provider.KindOf(err)
		r.metrics.Fetched(f.Name(), string(reason))
		r.logger.Debug("fetcher failed", "fetcher", f.Name(), "symbol", sym, "kind", reason, "err", err)
		if ctx.Err() != nil {
			break
		}
	}

	price, ok := r.generator.Price(sym, r.volatility[class])
	if !ok {
		r.logger.Warn("price unavailable", "symbol", sym, "class", class, "reason", reason)
		return r.unavailable(sym)
	}
	return provider.Quote{
		Symbol:   sym,
		Price:    price,
		Currency: fx.USD,
		Source:   provider.SourceSynthetic,
		AsOf:     r.now().UTC(),
		Reason:   reason,
	}
}

// try calls f, converting a panic into a failure.
func (r *Resolver) try(ctx context.Context, f provider.Fetcher, sym symbol.Symbol, creds provider.Credentials) (p provider.Price, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("fetcher panicked", "fetcher", f.Name(), "symbol", sym, "panic", v)
			err = provider.NewError(f.Name(), provider.KindNoData, 0, fmt.Errorf("panic: %v", v))
		}
	}()
	p, err = f.FetchPrice(ctx, sym, creds)
	if err == nil && !p.Value.IsPositive() {
		err = provider.NewError(f.Name(), provider.KindNoData, 0, errors.New("non-positive price"))
	}
	return p, err
}

// live builds the quote for a fetched price, converting it to USD.
func (r *Resolver) live(sym symbol.Symbol, p provider.Price) provider.Quote {
	q := provider.Quote{Symbol: sym, Price: p.Value, Currency: fx.USD, Source: p.Source, AsOf: r.stamp(p.AsOf)}
	cur := strings.ToUpper(strings.TrimSpace(p.Currency))
	if cur == "" || cur == fx.USD {
		return q
	}
	usd, ok := r.rates.ToUSD(p.Value, cur)
	if !ok {
		r.logger.Warn("no exchange rate, quoting in venue currency", "symbol", sym, "currency", cur)
		q.Currency = cur
		return q
	}
	q.Price = usd
	q.Native = &provider.Amount{Value: p.Value, Currency: cur}
	return q
}

func (r *Resolver) stamp(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return r.now().UTC()
	}
	return asOf.UTC()
}

func (r *Resolver) unavailable(sym symbol.Symbol) provider.Quote {
	return provider.Quote{
		Symbol:   sym,
		Price:    decimal.Zero,
		Currency: fx.USD,
		Source:   provider.SourceUnavailable,
		AsOf:     r.now().UTC(),
		Reason:   provider.KindUnavailable,
	}
}

// Request is one entry of a batch resolution.
type Request struct {
	Symbol string              `json:"symbol"`
	Class  provider.AssetClass `json:"class"`
}

// ResolveAll resolves every request concurrently. The result is in request
// order.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []Request, creds provider.Credentials) []provider.Quote {
	out := make([]provider.Quote, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = r.Resolve(ctx, req.Symbol, req.Class, creds)
		}()
	}
	wg.Wait()
	return out
}
