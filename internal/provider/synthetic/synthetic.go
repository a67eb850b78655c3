// Package synthetic produces fallback prices from a static anchor table with
// a small random jitter, so the UI stays populated when every live source
// fails. Values are estimates and must be labelled as such by the caller.
package synthetic

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"wealthprice/internal/symbol"
)

// Volatility selects the jitter band applied around the anchor price.
type Volatility int

const (
	Low Volatility = iota
	Normal
	High
)

// Jitter returns the half-width of the multiplicative band for v.
func (v Volatility) Jitter() float64 {
	switch v {
	case Low:
		return 0.001
	case High:
		return 0.0025
	default:
		return 0.002
	}
}

func (v Volatility) String() string {
	switch v {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "normal"
	}
}

// ParseVolatility maps a config string to a Volatility, defaulting to Normal.
func ParseVolatility(s string) Volatility {
	switch s {
	case "low":
		return Low
	case "high":
		return High
	default:
		return Normal
	}
}

// Generator is safe for concurrent use as long as its random source is.
type Generator struct {
	table map[symbol.Symbol]float64
	rnd   func() float64
}

type Option func(*Generator)

// WithRand replaces the random source. f must return values in [0, 1).
func WithRand(f func() float64) Option {
	return func(g *Generator) { g.rnd = f }
}

// WithPrices adds or overrides anchor prices.
func WithPrices(prices map[string]float64) Option {
	return func(g *Generator) {
		for s, p := range prices {
			if p > 0 {
				g.table[symbol.Normalize(s)] = p
			}
		}
	}
}

// New returns a Generator seeded with the built-in anchor table.
func New(opts ...Option) *Generator {
	g := &Generator{
		table: make(map[symbol.Symbol]float64, len(basePrices)),
		rnd:   rand.Float64,
	}
	for s, p := range basePrices {
		g.table[s] = p
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Base returns the anchor price for sym.
func (g *Generator) Base(sym symbol.Symbol) (decimal.Decimal, bool) {
	p, ok := g.table[sym]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(p), true
}

// Price returns the anchor for sym moved by a random factor in [1-j, 1+j].
// ok is false when sym is not in the table.
func (g *Generator) Price(sym symbol.Symbol, v Volatility) (price decimal.Decimal, ok bool) {
	base, ok := g.Base(sym)
	if !ok {
		return decimal.Zero, false
	}
	j := v.Jitter()
	jd := decimal.NewFromFloat(j)
	lo, hi := decimal.NewFromInt(1).Sub(jd), decimal.NewFromInt(1).Add(jd)

	factor := decimal.NewFromFloat(1 + (g.rnd()*2-1)*j)
	if factor.LessThan(lo) {
		factor = lo
	}
	if factor.GreaterThan(hi) {
		factor = hi
	}
	return base.Mul(factor), true
}
