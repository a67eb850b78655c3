package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"wealthprice/internal/provider"
	"wealthprice/internal/symbol"
)

// FetchPrice returns the USD price of a crypto asset. It makes a single
// attempt; unmapped symbols fail with no data without touching the network.
func (c *Client) FetchPrice(ctx context.Context, sym symbol.Symbol, _ provider.Credentials) (provider.Price, error) {
	id, ok := c.ID(sym)
	if !ok {
		return c.fail(sym, provider.KindNoData, 0, fmt.Errorf("no asset id for %s", sym))
	}

	query := url.Values{}
	query.Set("ids", id)
	query.Set("vs_currencies", "usd")

	addr := fmt.Sprintf("%s/simple/price?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, http.NoBody)
	if err != nil {
		return c.fail(sym, provider.KindNoData, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(sym, provider.KindNetwork, 0, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return c.fail(sym, provider.KindForStatus(res.StatusCode), res.StatusCode, fmt.Errorf("unexpected status code: %d", res.StatusCode))
	}

	// {
	//   "bitcoin": { "usd": 62000.12 }
	// }
	var body any
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return c.fail(sym, provider.KindNoData, res.StatusCode, fmt.Errorf("decoding price response: %w", err))
	}

	price, err := extractUSD(body, id)
	if err != nil {
		return c.fail(sym, provider.KindNoData, res.StatusCode, err)
	}
	return provider.Price{Value: price, Source: provider.SourceCoinGecko}, nil
}

func extractUSD(body any, id string) (decimal.Decimal, error) {
	path := fmt.Sprintf("$[%q].usd", id)
	v, err := jsonpath.Get(path, body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading %s: %w", path, err)
	}
	// jsonpath may wrap a single match in a list.
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}

	var price decimal.Decimal
	switch n := v.(type) {
	case json.Number:
		price, err = decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing %s: %w", path, err)
		}
	case float64:
		price = decimal.NewFromFloat(n)
	default:
		return decimal.Zero, fmt.Errorf("%s is not a number: %v", path, v)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s is not positive: %s", path, price)
	}
	return price, nil
}

func (c *Client) fail(sym symbol.Symbol, kind provider.Kind, status int, err error) (provider.Price, error) {
	c.logger.Warn("coingecko price fetch failed", "symbol", sym, "kind", kind, "status", status, "err", err)
	return provider.Price{}, provider.NewError(c.Name(), kind, status, err)
}
