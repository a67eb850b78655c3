package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"wealthprice/internal/provider"
	"wealthprice/internal/symbol"
)

// Quote is the Finnhub /quote payload.
type Quote struct {
	Current       *decimal.Decimal `json:"c"`
	Change        *decimal.Decimal `json:"d"`
	PercentChange *decimal.Decimal `json:"dp"`
	High          *decimal.Decimal `json:"h"`
	Low           *decimal.Decimal `json:"l"`
	Open          *decimal.Decimal `json:"o"`
	PreviousClose *decimal.Decimal `json:"pc"`
	Timestamp     int64            `json:"t"`
}

var errMissingKey = errors.New("no api key configured")

// FetchPrice returns the current price of an equity.
//
// Outcomes are classified so a calling layer can pick a backoff policy:
// 429 is rate limited, 401/403 unauthenticated, anything else without a
// positive "c" field is no data. A missing key fails without a request.
func (c *Client) FetchPrice(ctx context.Context, sym symbol.Symbol, creds provider.Credentials) (provider.Price, error) {
	if creds.EquityAPIKey == "" {
		return provider.Price{}, provider.NewError(c.Name(), provider.KindUnauthenticated, 0, errMissingKey)
	}

	query := url.Values{}
	query.Set("symbol", sym.String())
	query.Set("token", creds.EquityAPIKey)

	addr := fmt.Sprintf("%s/quote?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, http.NoBody)
	if err != nil {
		return c.fail(sym, provider.KindNoData, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(sym, provider.KindNetwork, 0, fmt.Errorf("performing request: %w", scrub(err)))
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusTooManyRequests:
		return c.fail(sym, provider.KindRateLimited, res.StatusCode, fmt.Errorf("rate limited"))

	case http.StatusUnauthorized, http.StatusForbidden:
		return c.fail(sym, provider.KindUnauthenticated, res.StatusCode, fmt.Errorf("invalid api key"))

	default:
		return c.fail(sym, provider.KindNoData, res.StatusCode, fmt.Errorf("unexpected status code: %d", res.StatusCode))
	}

	var q Quote
	if err := json.NewDecoder(res.Body).Decode(&q); err != nil {
		return c.fail(sym, provider.KindNoData, res.StatusCode, fmt.Errorf("decoding quote response: %w", err))
	}
	if q.Current == nil || !q.Current.IsPositive() {
		return c.fail(sym, provider.KindNoData, res.StatusCode, fmt.Errorf("no current price for %s", sym))
	}

	price := provider.Price{Value: *q.Current, Source: provider.SourceFinnhub}
	if q.Timestamp > 0 {
		price.AsOf = time.Unix(q.Timestamp, 0).UTC()
	}
	return price, nil
}

func (c *Client) fail(sym symbol.Symbol, kind provider.Kind, status int, err error) (provider.Price, error) {
	c.logger.Warn("finnhub price fetch failed", "symbol", sym, "kind", kind, "status", status, "err", err)
	return provider.Price{}, provider.NewError(c.Name(), kind, status, err)
}

// scrub drops the request URL from transport errors so the token query
// parameter never reaches logs.
func scrub(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
