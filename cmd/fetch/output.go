package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"wealthprice/internal/aggregate"
	"wealthprice/internal/provider"
)

func writeJSON(w io.Writer, quotes []provider.Quote) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Quotes  []provider.Quote  `json:"quotes"`
		Summary aggregate.Summary `json:"summary"`
	}{quotes, aggregate.Summarize(quotes)})
}

func writeText(w io.Writer, quotes []provider.Quote) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\tSOURCE\tNOTE")
	for _, q := range quotes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", q.Symbol, display(q), q.Source, note(q))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := aggregate.Summarize(quotes)
	_, err := fmt.Fprintf(w, "\n%d live, %d estimated, %d unavailable\n", s.Live, s.Estimated, s.Unavailable)
	return err
}

// display renders the price in its currency's minor units.
func display(q provider.Quote) string {
	if q.Source == provider.SourceUnavailable {
		return "-"
	}
	return formatMoney(q.Price, q.Currency)
}

func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.String() + " " + currency
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return money.New(minor.IntPart(), cur.Code).Display()
}

func note(q provider.Quote) string {
	if q.Native != nil {
		return "from " + formatMoney(q.Native.Value, q.Native.Currency)
	}
	switch {
	case q.Source == provider.SourceTrading212Demo:
		return "demo data"
	case q.Source == provider.SourceSynthetic:
		return "estimate (" + string(q.Reason) + ")"
	case q.Reason != "":
		return string(q.Reason)
	}
	return ""
}
