package trading212

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"wealthprice/internal/provider"
	"wealthprice/internal/symbol"
)

// Position is one open position in the account portfolio.
type Position struct {
	Ticker       string          `json:"ticker"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	// Currency of CurrentPrice. The portfolio endpoint omits it, so it is
	// filled from the ticker's country segment when missing.
	Currency string `json:"currency,omitempty"`
}

// countryCurrency maps the country segment of a broker ticker to the
// currency its listing trades in.
var countryCurrency = map[string]string{
	"US": "USD",
	"UK": "GBP",
	"GB": "GBP",
	"DE": "EUR",
	"FR": "EUR",
	"NL": "EUR",
	"ES": "EUR",
	"IT": "EUR",
	"BE": "EUR",
	"AT": "EUR",
	"PT": "EUR",
	"IE": "EUR",
	"CA": "CAD",
	"CH": "CHF",
	"JP": "JPY",
	"AU": "AUD",
}

// currencyOf returns the listing currency for ticker, USD when the ticker
// carries no known country.
func currencyOf(ticker string) string {
	if cur, ok := countryCurrency[symbol.Parse(ticker).Country]; ok {
		return cur
	}
	return "USD"
}

func (p *Position) fillCurrency() {
	if p.Currency == "" {
		p.Currency = currencyOf(p.Ticker)
		return
	}
	p.Currency = strings.ToUpper(p.Currency)
}

// Snapshot is the full position list returned by one portfolio call.
type Snapshot struct {
	Positions []Position
	// Demo marks the canned snapshot; it never comes from an authenticated response.
	Demo bool
}

// Source returns the provider source that prices from s must carry.
func (s Snapshot) Source() provider.Source {
	if s.Demo {
		return provider.SourceTrading212Demo
	}
	return provider.SourceTrading212
}

var errMissingToken = errors.New("no api token configured")

// FetchPositions retrieves the open positions for the account owning token.
//
// A 401 is returned as provider.ErrUnauthenticated so the stored credential
// can be fixed. An unreachable API is provider.ErrNetwork.
func (c *Client) FetchPositions(ctx context.Context, token string) (Snapshot, error) {
	if token == "" {
		return Snapshot{}, provider.NewError(c.Name(), provider.KindUnauthenticated, 0, errMissingToken)
	}

	addr := fmt.Sprintf("%s/equity/portfolio", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, http.NoBody)
	if err != nil {
		return c.fail(provider.KindNoData, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header = c.header.Clone()
	req.Header.Set("Authorization", token)

	c.logger.Debug("fetching trading212 portfolio")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(provider.KindNetwork, 0, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusUnauthorized:
		err := provider.NewError(c.Name(), provider.KindUnauthenticated, res.StatusCode, fmt.Errorf("invalid api key"))
		c.logger.Error("trading212 rejected credentials", "status", res.StatusCode)
		return Snapshot{}, err

	case http.StatusTooManyRequests:
		return c.fail(provider.KindRateLimited, res.StatusCode, fmt.Errorf("rate limited"))

	default:
		return c.fail(provider.KindNoData, res.StatusCode, fmt.Errorf("unexpected status code: %d", res.StatusCode))
	}

	var positions []Position
	if err := json.NewDecoder(res.Body).Decode(&positions); err != nil {
		return c.fail(provider.KindNoData, res.StatusCode, fmt.Errorf("decoding portfolio response: %w", err))
	}
	for i := range positions {
		positions[i].fillCurrency()
	}
	c.logger.Debug("fetched trading212 portfolio", "positions", len(positions))
	return Snapshot{Positions: positions}, nil
}

func (c *Client) fail(kind provider.Kind, status int, err error) (Snapshot, error) {
	c.logger.Warn("trading212 portfolio fetch failed", "kind", kind, "status", status, "err", err)
	return Snapshot{}, provider.NewError(c.Name(), kind, status, err)
}
