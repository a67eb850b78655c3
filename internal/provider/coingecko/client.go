package coingecko

import (
	"log/slog"
	"net/http"

	"wealthprice/internal/logging"
	"wealthprice/internal/symbol"
)

const baseURL = "https://api.coingecko.com/api/v3"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coingecko_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the crypto price adapter backed by the CoinGecko simple price API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// ids maps canonical symbols to CoinGecko asset ids.
	ids    map[symbol.Symbol]string
	logger *slog.Logger
}

// Option is a configuration option for the CoinGecko client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithAPIKey sends a CoinGecko demo API key, which raises the free rate limit.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.header.Set("x-cg-demo-api-key", key)
		}
	}
}

// WithIDs adds or overrides symbol to CoinGecko id mappings.
func WithIDs(ids map[string]string) Option {
	return func(c *Client) {
		for s, id := range ids {
			c.ids[symbol.Normalize(s)] = id
		}
	}
}

// WithLogger sets the logger used for failure warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a new CoinGecko client.
func New(options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{"Accept": []string{"application/json"}},
		ids:        make(map[symbol.Symbol]string, len(defaultIDs)),
	}
	for s, id := range defaultIDs {
		c.ids[s] = id
	}
	for _, option := range options {
		option(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

func (c *Client) Name() string { return "coingecko" }

// ID returns the CoinGecko asset id for sym.
func (c *Client) ID(sym symbol.Symbol) (string, bool) {
	id, ok := c.ids[sym]
	return id, ok
}

var defaultIDs = map[symbol.Symbol]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"MATIC": "matic-network",
}
