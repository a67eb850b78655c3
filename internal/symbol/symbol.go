// Package symbol canonicalizes broker-supplied ticker strings.
//
// Brokers append venue and instrument metadata after an underscore
// (Trading 212 uses AAPL_US_EQ, VUSA_UK_EQ). The segment before the first
// underscore is the canonical root used as the lookup key everywhere else.
package symbol

import "strings"

// Symbol is an uppercase canonical ticker such as AAPL or BTC.
type Symbol string

func (s Symbol) String() string { return string(s) }

// Ticker is a broker ticker split into its parts.
type Ticker struct {
	Root       Symbol
	Country    string
	Instrument string
}

// Normalize maps a raw ticker to its canonical symbol.
// It never fails; malformed input yields a best-effort (possibly empty) symbol.
func Normalize(raw string) Symbol {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[:i]
	}
	return Symbol(s)
}

// Matches reports whether a raw broker ticker refers to canonical.
func Matches(raw string, canonical Symbol) bool {
	want := strings.ToUpper(strings.TrimSpace(string(canonical)))
	if want == "" {
		return false
	}
	got := strings.ToUpper(strings.TrimSpace(raw))
	if got == "" {
		return false
	}
	if got == want {
		return true
	}
	if root, _, ok := strings.Cut(got, "_"); ok && root == want {
		return true
	}
	return strings.HasPrefix(got, want+"_")
}

// Parse splits a broker ticker into root, country and instrument type.
//
//	AAPL_US_EQ -> {AAPL, US, EQ}
//	VUSA_UK_EQ -> {VUSA, UK, EQ}
//	BTC        -> {BTC, "", ""}
func Parse(raw string) Ticker {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(raw)), "_")
	t := Ticker{Root: Symbol(parts[0])}
	switch len(parts) {
	case 1:
	case 2:
		t.Instrument = parts[1]
	default:
		t.Country = parts[1]
		t.Instrument = strings.Join(parts[2:], "_")
	}
	return t
}
