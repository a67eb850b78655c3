package trading212

import "github.com/shopspring/decimal"

// DemoSnapshot returns a fixed, realistic portfolio for offline demos.
func DemoSnapshot() Snapshot {
	pos := func(ticker string, qty int64, avg, cur string) Position {
		return Position{
			Ticker:       ticker,
			Currency:     currencyOf(ticker),
			Quantity:     decimal.NewFromInt(qty),
			AveragePrice: decimal.RequireFromString(avg),
			CurrentPrice: decimal.RequireFromString(cur),
		}
	}
	return Snapshot{
		Demo: true,
		Positions: []Position{
			pos("IIPR_US_EQ", 155, "55.00", "55.00"),
			pos("SBR_US_EQ", 250, "75.00", "78.00"),
			pos("DHT_US_EQ", 350, "11.50", "11.80"),
			pos("ABBV_US_EQ", 25, "225.00", "230.00"),
			pos("RMR_US_EQ", 150, "15.50", "15.60"),
			pos("CVX_US_EQ", 10, "152.00", "152.00"),
			pos("VUSA_UK_EQ", 50, "62.20", "64.10"),
		},
	}
}
