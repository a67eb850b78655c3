package resolver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"wealthprice/internal/fx"
	"wealthprice/internal/metrics"
	"wealthprice/internal/provider"
	"wealthprice/internal/provider/finnhub"
	"wealthprice/internal/provider/synthetic"
	"wealthprice/internal/resolver"
	"wealthprice/internal/symbol"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var fixed = time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)

func midpoint() float64 { return 0.5 }

func newFetcher(ctrl *gomock.Controller, name string) *MockFetcher {
	f := NewMockFetcher(ctrl)
	f.EXPECT().Name().Return(name).AnyTimes()
	return f
}

func TestResolve_LiveQuote(t *testing.T) {
	t.Parallel()

	// Arrange: a fetcher that returns a live price
	ctrl := gomock.NewController(t)
	f := newFetcher(ctrl, "finnhub")
	f.EXPECT().
		FetchPrice(gomock.Any(), symbol.Symbol("AAPL"), provider.Credentials{EquityAPIKey: "k"}).
		Return(provider.Price{Value: decimal.RequireFromString("190.12"), Source: provider.SourceFinnhub}, nil).
		Times(1)

	r := resolver.New(resolver.WithChain(provider.Equity, f), resolver.WithLogger(quiet), resolver.WithClock(func() time.Time { return fixed }))

	// Act: the raw broker ticker is normalized before dispatch
	q := r.Resolve(t.Context(), " aapl_us_eq ", provider.Equity, provider.Credentials{EquityAPIKey: "k"})

	// Assert
	require.Equal(t, symbol.Symbol("AAPL"), q.Symbol)
	require.Equal(t, provider.SourceFinnhub, q.Source)
	require.True(t, decimal.RequireFromString("190.12").Equal(q.Price))
	require.Equal(t, "USD", q.Currency)
	require.Equal(t, fixed, q.AsOf)
	require.Empty(t, q.Reason)
	require.Nil(t, q.Native)
	require.True(t, q.Live())
}

func TestResolve_RateLimitedEquityFallsBackToSynthetic(t *testing.T) {
	t.Parallel()

	// Arrange: the equity vendor answers 429
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "NVDA", r.URL.Query().Get("symbol"))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	equity := finnhub.New(finnhub.WithBaseURL(srv.URL), finnhub.WithLogger(quiet))
	gen := synthetic.New(synthetic.WithRand(midpoint))
	r := resolver.New(resolver.WithChain(provider.Equity, equity), resolver.WithGenerator(gen), resolver.WithLogger(quiet))

	// Act
	q := r.Resolve(t.Context(), "NVDA", provider.Equity, provider.Credentials{EquityAPIKey: "k"})

	// Assert: a synthetic estimate, not the unavailable sentinel
	require.Equal(t, provider.SourceSynthetic, q.Source)
	require.Equal(t, provider.KindRateLimited, q.Reason)
	base, ok := gen.Base("NVDA")
	require.True(t, ok)
	require.True(t, base.Equal(q.Price))
	require.False(t, q.Live())
}

func TestResolve_UnknownSymbolWithoutKeyIsUnavailable(t *testing.T) {
	t.Parallel()

	// Arrange: no request may reach the vendor without a key
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL)
	}))
	defer srv.Close()

	equity := finnhub.New(finnhub.WithBaseURL(srv.URL), finnhub.WithLogger(quiet))
	r := resolver.New(resolver.WithChain(provider.Equity, equity), resolver.WithLogger(quiet))

	// Act
	q := r.Resolve(t.Context(), "ZZZZ_NOT_REAL", provider.Equity, provider.Credentials{})

	// Assert
	require.Equal(t, provider.SourceUnavailable, q.Source)
	require.Equal(t, provider.KindUnavailable, q.Reason)
	require.True(t, q.Price.IsZero())
	require.Equal(t, symbol.Symbol("ZZZZ"), q.Symbol)
}

func TestResolve_ChainOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	first := newFetcher(ctrl, "first")
	second := newFetcher(ctrl, "second")

	gomock.InOrder(
		first.EXPECT().FetchPrice(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(provider.Price{}, provider.NewError("first", provider.KindNetwork, 0, errors.New("timeout"))),
		second.EXPECT().FetchPrice(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(provider.Price{Value: decimal.NewFromInt(61000), Source: provider.SourceCoinGecko}, nil),
	)

	r := resolver.New(resolver.WithChain(provider.Crypto, first, second), resolver.WithLogger(quiet))

	q := r.Resolve(t.Context(), "BTC", provider.Crypto, provider.Credentials{})
	require.Equal(t, provider.SourceCoinGecko, q.Source)
	require.True(t, decimal.NewFromInt(61000).Equal(q.Price))
}

func TestResolve_SkipsNonPositivePrice(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	f := newFetcher(ctrl, "trading212")
	f.EXPECT().FetchPrice(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(provider.Price{Value: decimal.Zero, Source: provider.SourceTrading212}, nil)

	r := resolver.New(
		resolver.WithChain(provider.BrokerTracked, f),
		resolver.WithGenerator(synthetic.New(synthetic.WithRand(midpoint))),
		resolver.WithLogger(quiet),
	)

	q := r.Resolve(t.Context(), "AAPL", provider.BrokerTracked, provider.Credentials{BrokerToken: "t"})
	require.Equal(t, provider.SourceSynthetic, q.Source)
	require.Equal(t, provider.KindNoData, q.Reason)
}

func TestResolve_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	f := newFetcher(ctrl, "broken")
	f.EXPECT().FetchPrice(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, symbol.Symbol, provider.Credentials) (provider.Price, error) {
			panic("nil map")
		})

	r := resolver.New(resolver.WithChain(provider.Equity, f), resolver.WithLogger(quiet))

	require.NotPanics(t, func() {
		q := r.Resolve(t.Context(), "MSFT", provider.Equity, provider.Credentials{})
		require.Equal(t, provider.SourceSynthetic, q.Source)
	})
}

func TestResolve_SyntheticVolatilityPerClass(t *testing.T) {
	t.Parallel()

	// rnd=0 pushes the factor to the bottom of the band.
	gen := synthetic.New(synthetic.WithRand(func() float64 { return 0 }), synthetic.WithPrices(map[string]float64{"TEST": 1000}))
	r := resolver.New(resolver.WithGenerator(gen), resolver.WithLogger(quiet))

	cases := map[provider.AssetClass]string{
		provider.Crypto:        "997.5",
		provider.Equity:        "998",
		provider.BrokerTracked: "999",
	}
	for class, want := range cases {
		q := r.Resolve(t.Context(), "TEST", class, provider.Credentials{})
		require.Equal(t, provider.SourceSynthetic, q.Source, class)
		low := decimal.RequireFromString(want)
		require.True(t, q.Price.GreaterThanOrEqual(low), "%s: got %s", class, q.Price)
		require.True(t, q.Price.LessThan(low.Add(decimal.RequireFromString("0.001"))), "%s: got %s", class, q.Price)
	}
}

func TestResolve_EmptySymbol(t *testing.T) {
	t.Parallel()

	r := resolver.New(resolver.WithLogger(quiet))

	q := r.Resolve(t.Context(), "   ", provider.Equity, provider.Credentials{})
	require.Equal(t, provider.SourceUnavailable, q.Source)
}

func TestResolve_RecordsMetrics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	f := newFetcher(ctrl, "coingecko")
	f.EXPECT().FetchPrice(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(provider.Price{}, provider.NewError("coingecko", provider.KindRateLimited, 429, nil))

	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	r := resolver.New(resolver.WithChain(provider.Crypto, f), resolver.WithMetrics(m), resolver.WithLogger(quiet))

	r.Resolve(t.Context(), "BTC", provider.Crypto, provider.Credentials{})

	require.InDelta(t, 1, testutil.ToFloat64(m.FetchOutcomes.WithLabelValues("coingecko", "rate_limited")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Resolutions.WithLabelValues("crypto", "synthetic")), 0)
}

func TestResolveAll_PreservesOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	f := newFetcher(ctrl, "finnhub")
	f.EXPECT().FetchPrice(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sym symbol.Symbol, _ provider.Credentials) (provider.Price, error) {
			if sym == "MSFT" {
				time.Sleep(10 * time.Millisecond)
			}
			return provider.Price{Value: decimal.NewFromInt(int64(len(sym))), Source: provider.SourceFinnhub}, nil
		}).
		Times(3)

	r := resolver.New(resolver.WithChain(provider.Equity, f), resolver.WithLogger(quiet))

	quotes := r.ResolveAll(t.Context(), []resolver.Request{
		{Symbol: "MSFT", Class: provider.Equity},
		{Symbol: "O", Class: provider.Equity},
		{Symbol: "ZZZZ", Class: "unknown"},
		{Symbol: "AAPL", Class: provider.Equity},
	}, provider.Credentials{EquityAPIKey: "k"})

	require.Len(t, quotes, 4)
	require.Equal(t, symbol.Symbol("MSFT"), quotes[0].Symbol)
	require.Equal(t, symbol.Symbol("O"), quotes[1].Symbol)
	require.Equal(t, provider.SourceUnavailable, quotes[2].Source)
	require.Equal(t, symbol.Symbol("AAPL"), quotes[3].Symbol)
	require.True(t, decimal.NewFromInt(4).Equal(quotes[3].Price))
}

func TestResolve_ConvertsVenueCurrency(t *testing.T) {
	t.Parallel()

	// Arrange: a broker position listed in London
	ctrl := gomock.NewController(t)
	f := newFetcher(ctrl, "trading212")
	f.EXPECT().
		FetchPrice(gomock.Any(), symbol.Symbol("VUSA"), gomock.Any()).
		Return(provider.Price{Value: decimal.RequireFromString("64.10"), Currency: "GBP", Source: provider.SourceTrading212}, nil).
		Times(1)

	r := resolver.New(resolver.WithChain(provider.BrokerTracked, f), resolver.WithLogger(quiet))

	// Act
	q := r.Resolve(t.Context(), "VUSA_UK_EQ", provider.BrokerTracked, provider.Credentials{BrokerToken: "t"})

	// Assert: the price is in USD and the venue price is kept
	require.Equal(t, "USD", q.Currency)
	require.True(t, decimal.RequireFromString("80.766").Equal(q.Price), q.Price.String())
	require.NotNil(t, q.Native)
	require.Equal(t, "GBP", q.Native.Currency)
	require.True(t, decimal.RequireFromString("64.10").Equal(q.Native.Value))
}

func TestResolve_CustomRatesAndUnknownCurrency(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	f := newFetcher(ctrl, "trading212")
	f.EXPECT().
		FetchPrice(gomock.Any(), symbol.Symbol("SAP"), gomock.Any()).
		Return(provider.Price{Value: decimal.NewFromInt(200), Currency: "EUR", Source: provider.SourceTrading212}, nil)
	f.EXPECT().
		FetchPrice(gomock.Any(), symbol.Symbol("VOLV"), gomock.Any()).
		Return(provider.Price{Value: decimal.NewFromInt(250), Currency: "SEK", Source: provider.SourceTrading212}, nil)

	rates, err := fx.New(map[string]float64{"EUR": 1.1})
	require.NoError(t, err)
	r := resolver.New(resolver.WithChain(provider.BrokerTracked, f), resolver.WithRates(rates), resolver.WithLogger(quiet))

	q := r.Resolve(t.Context(), "SAP_DE_EQ", provider.BrokerTracked, provider.Credentials{})
	require.True(t, decimal.NewFromInt(220).Equal(q.Price))
	require.Equal(t, "USD", q.Currency)

	// Without a rate the venue price is returned as is.
	q = r.Resolve(t.Context(), "VOLV_SE_EQ", provider.BrokerTracked, provider.Credentials{})
	require.True(t, decimal.NewFromInt(250).Equal(q.Price))
	require.Equal(t, "SEK", q.Currency)
	require.Nil(t, q.Native)
}
