// Package fx converts venue prices to US dollars with a static rate table.
//
// Rates are indicative. They are meant to put holdings listed in different
// currencies on one scale, not to settle trades.
package fx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// USD is the currency every resolved quote is expressed in.
const USD = "USD"

// Rates maps an ISO 4217 code to the USD value of one unit of it.
type Rates map[string]decimal.Decimal

// DefaultRates returns the built-in table.
func DefaultRates() Rates {
	return Rates{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("1.08"),
		"GBP": decimal.RequireFromString("1.26"),
		"JPY": decimal.RequireFromString("0.0067"),
		"CAD": decimal.RequireFromString("0.73"),
		"AUD": decimal.RequireFromString("0.65"),
		"CHF": decimal.RequireFromString("1.10"),
		"CNY": decimal.RequireFromString("0.14"),
	}
}

// New returns DefaultRates with overrides applied. Codes must be known ISO
// currencies and rates positive; the first offending entry, in code order,
// is reported and nothing is applied.
func New(overrides map[string]float64) (Rates, error) {
	rates := DefaultRates()
	codes := make([]string, 0, len(overrides))
	for code := range overrides {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	applied := make(Rates, len(codes))
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if money.GetCurrency(code) == nil {
			return DefaultRates(), fmt.Errorf("fx: unknown currency %q", raw)
		}
		v := overrides[raw]
		if v <= 0 {
			return DefaultRates(), fmt.Errorf("fx: rate for %s must be positive, got %v", code, v)
		}
		if code == USD && v != 1 {
			return DefaultRates(), fmt.Errorf("fx: USD rate is fixed at 1, got %v", v)
		}
		applied[code] = decimal.NewFromFloat(v)
	}
	for code, v := range applied {
		rates[code] = v
	}
	return rates, nil
}

// ToUSD converts amount quoted in currency. ok is false when the table has
// no rate for it. An empty currency is taken to be USD.
func (r Rates) ToUSD(amount decimal.Decimal, currency string) (usd decimal.Decimal, ok bool) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == USD {
		return amount, true
	}
	rate, ok := r[code]
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(rate), true
}
