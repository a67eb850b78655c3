package httpx

import (
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client is a small wrapper around http.Client with sane defaults.
// It satisfies the HTTPClient interface the vendor adapters depend on.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
}

func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "wealthprice/1.0"}
}

// Instrument wraps the transport so every upstream call is counted and timed.
// requests must be partitioned by "code" and "method"; latency by "method".
func (c *Client) Instrument(requests *prometheus.CounterVec, latency *prometheus.HistogramVec) {
	rt := c.HTTP.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if latency != nil {
		rt = promhttp.InstrumentRoundTripperDuration(latency, rt)
	}
	if requests != nil {
		rt = promhttp.InstrumentRoundTripperCounter(requests, rt)
	}
	c.HTTP.Transport = rt
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.HTTP.Do(req)
}
