// Package aggregate condenses resolved quotes for display: per-symbol
// de-duplication and a breakdown of where prices came from.
package aggregate

import (
	"sort"
	"strings"

	"wealthprice/internal/provider"
)

// SplitSource extracts the vendor and variant from a quote Source.
// Rules:
//   - Split on the first ':'
//   - vendor is lower-cased; variant is lower-cased and may be empty
//
// e.g. "trading212:demo" -> ("trading212", "demo"), "finnhub" -> ("finnhub", "").
func SplitSource(src provider.Source) (vendor string, variant string) {
	s := strings.TrimSpace(string(src))
	if s == "" {
		return "", ""
	}
	vendor, variant, _ = strings.Cut(s, ":")
	return strings.ToLower(strings.TrimSpace(vendor)), strings.ToLower(strings.TrimSpace(variant))
}

// Latest collapses quotes by Symbol, keeping the newest.
// Live quotes beat fallback ones regardless of age. For equal timestamps,
// later input wins. Output is sorted by symbol.
func Latest(quotes []provider.Quote) []provider.Quote {
	latest := make(map[string]provider.Quote, len(quotes))

	for _, q := range quotes {
		key := string(q.Symbol)
		cur, ok := latest[key]
		if !ok || newer(q, cur) {
			latest[key] = q
		}
	}

	out := make([]provider.Quote, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func newer(q, cur provider.Quote) bool {
	if q.Live() != cur.Live() {
		return q.Live()
	}
	return !q.AsOf.Before(cur.AsOf)
}

// Summary counts quotes by outcome.
type Summary struct {
	Total       int `json:"total"`
	Live        int `json:"live"`
	Estimated   int `json:"estimated"`
	Unavailable int `json:"unavailable"`
	// Vendors counts quotes per vendor, demo snapshot prices included.
	Vendors map[string]int `json:"vendors,omitempty"`
	// Reasons counts the failures behind estimated and unavailable quotes.
	Reasons map[provider.Kind]int `json:"reasons,omitempty"`
}

// Summarize builds a Summary over quotes.
func Summarize(quotes []provider.Quote) Summary {
	s := Summary{Total: len(quotes)}
	for _, q := range quotes {
		switch {
		case q.Source == provider.SourceUnavailable:
			s.Unavailable++
		case q.Live():
			s.Live++
		default:
			s.Estimated++
		}
		if vendor, _ := SplitSource(q.Source); vendor != "" {
			if s.Vendors == nil {
				s.Vendors = make(map[string]int)
			}
			s.Vendors[vendor]++
		}
		if q.Reason != "" {
			if s.Reasons == nil {
				s.Reasons = make(map[provider.Kind]int)
			}
			s.Reasons[q.Reason]++
		}
	}
	return s
}
