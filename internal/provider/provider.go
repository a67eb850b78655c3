package provider

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wealthprice/internal/symbol"
)

// AssetClass selects the adapter chain a request goes through.
type AssetClass string

const (
	Equity        AssetClass = "equity"
	Crypto        AssetClass = "crypto"
	BrokerTracked AssetClass = "broker"
)

// ParseAssetClass accepts the class names and aliases used by callers.
func ParseAssetClass(s string) (AssetClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equity", "stock", "etf", "reit":
		return Equity, true
	case "crypto", "cryptocurrency", "coin":
		return Crypto, true
	case "broker", "broker_tracked", "brokertracked", "trading212", "t212":
		return BrokerTracked, true
	}
	return "", false
}

// Source identifies where a quote's price came from.
type Source string

const (
	SourceCoinGecko  Source = "coingecko"
	SourceFinnhub    Source = "finnhub"
	SourceTrading212 Source = "trading212"
	// SourceTrading212Demo tags prices read from the canned demo snapshot.
	SourceTrading212Demo Source = "trading212:demo"
	SourceSynthetic      Source = "synthetic"
	SourceUnavailable    Source = "unavailable"
)

// Quote is the normalized shape returned to callers.
type Quote struct {
	Symbol   symbol.Symbol   `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Source   Source          `json:"source"`
	AsOf     time.Time       `json:"as_of"`
	// Reason is the failure that pushed resolution to a fallback source.
	Reason Kind `json:"reason,omitempty"`
	// Native is the price as the venue quoted it, set when Price was
	// converted from another currency.
	Native *Amount `json:"native,omitempty"`
}

// Amount is a value in a named currency.
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// Live reports whether the quote came from a genuine upstream response.
// Demo snapshot prices are fabricated and do not count.
func (q Quote) Live() bool {
	switch q.Source {
	case SourceSynthetic, SourceUnavailable, SourceTrading212Demo, "":
		return false
	}
	return true
}

// Price is a successful fetch result.
type Price struct {
	Value  decimal.Decimal
	Source Source
	// AsOf is the upstream timestamp when the vendor reports one.
	AsOf time.Time
	// Currency is the ISO code of Value. Empty means USD.
	Currency string
}

// Credentials are vendor secrets supplied by the caller per request.
type Credentials struct {
	EquityAPIKey string
	BrokerToken  string
}

// Fetcher resolves the price of one symbol from one upstream.
// Implementations never panic; failures are returned as *Error.
type Fetcher interface {
	Name() string
	FetchPrice(ctx context.Context, sym symbol.Symbol, creds Credentials) (Price, error)
}
