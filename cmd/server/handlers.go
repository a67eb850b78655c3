package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wealthprice/internal/aggregate"
	"wealthprice/internal/app"
	"wealthprice/internal/provider"
	"wealthprice/internal/resolver"
)

type server struct {
	app      *app.App
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	timeout  time.Duration
	maxBatch int
}

type pricesRequest struct {
	Requests []resolver.Request `json:"requests"`
}

type pricesResponse struct {
	Quotes  []provider.Quote  `json:"quotes"`
	Summary aggregate.Summary `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	api.HandleFunc("GET /api/price", s.handlePrice)
	api.HandleFunc("POST /api/prices", s.handlePrices)

	root := http.NewServeMux()
	root.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{DisableCompression: true}))
	root.Handle("/", withJSONHeaders(api))

	return withRequestID(withAccessLog(s.logger, withGzip(recoverPanic(s.logger, limitBody(maxBodyBytes, root)))))
}

func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	sym := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if sym == "" {
		writeError(w, http.StatusBadRequest, "missing symbol query param")
		return
	}
	class, ok := parseClass(r.URL.Query().Get("class"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown asset class")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	q := s.app.Resolver.Resolve(ctx, sym, class, s.credentials(r))
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handlePrices(w http.ResponseWriter, r *http.Request) {
	var b pricesRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(b.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "requests cannot be empty")
		return
	}
	if s.maxBatch > 0 && len(b.Requests) > s.maxBatch {
		writeError(w, http.StatusBadRequest, "too many requests in batch")
		return
	}
	for i, req := range b.Requests {
		class, ok := parseClass(string(req.Class))
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown asset class: "+string(req.Class))
			return
		}
		b.Requests[i].Class = class
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	quotes := s.app.Resolver.ResolveAll(ctx, b.Requests, s.credentials(r))
	writeJSON(w, http.StatusOK, pricesResponse{Quotes: quotes, Summary: aggregate.Summarize(quotes)})
}

// credentials reads per-request vendor secrets, falling back to configured
// ones.
func (s *server) credentials(r *http.Request) provider.Credentials {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	return s.app.Credentials(provider.Credentials{
		EquityAPIKey: strings.TrimSpace(r.Header.Get("X-Equity-Key")),
		BrokerToken:  token,
	})
}

// parseClass defaults to equity when the class is omitted.
func parseClass(s string) (provider.AssetClass, bool) {
	if strings.TrimSpace(s) == "" {
		return provider.Equity, true
	}
	return provider.ParseAssetClass(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
