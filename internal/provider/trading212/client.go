package trading212

import (
	"log/slog"
	"net/http"

	"wealthprice/internal/logging"
)

const baseURL = "https://live.trading212.com/api/v0"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=trading212_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads whole-portfolio snapshots from the Trading 212 API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	header     http.Header
	logger     *slog.Logger
}

// Option is a configuration option for the Trading 212 client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API, e.g. the demo environment
// https://demo.trading212.com/api/v0.
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

// WithLogger sets the logger used for failure warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a new Trading 212 client.
func New(options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{"Accept": []string{"application/json"}},
	}
	for _, option := range options {
		option(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

func (c *Client) Name() string { return "trading212" }
