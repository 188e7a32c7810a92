package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/date"
)

// Position is one ticker's share count and as-of market value inside a snapshot.
type Position struct {
	Amount int64
	Value  decimal.Decimal
}

// Snapshot is a recorded point-in-time summary of the portfolio: cash, total
// value and every tracked position. Daily snapshots accumulate over a run.
type Snapshot struct {
	On        date.Date
	Cash      decimal.Decimal
	Total     decimal.Decimal
	Positions map[string]Position
}

// newSnapshot captures the portfolio state on a date, valuing positions with
// as-of prices so the total always equals cash plus the sum of position values.
func newSnapshot(p *Portfolio, m *Market, on date.Date) Snapshot {
	s := Snapshot{
		On:        on,
		Cash:      p.Cash(),
		Total:     p.Cash(),
		Positions: make(map[string]Position),
	}
	for _, ticker := range m.Tickers() {
		pos := Position{Amount: p.Shares(ticker), Value: decimal.Zero}
		if pos.Amount != 0 {
			if price, ok := m.AsOfPrice(ticker, on, Close); ok {
				pos.Value = decimal.NewFromFloat(price).Mul(decimal.NewFromInt(pos.Amount))
			}
		}
		s.Positions[ticker] = pos
		s.Total = s.Total.Add(pos.Value)
	}
	return s
}

// MonthlySnapshots resamples daily snapshots to one row per calendar month,
// keeping the chronologically last snapshot of each month.
func MonthlySnapshots(daily []Snapshot) []Snapshot {
	var monthly []Snapshot
	for _, s := range daily {
		if n := len(monthly); n > 0 && monthly[n-1].On.SameMonth(s.On) {
			monthly[n-1] = s
			continue
		}
		monthly = append(monthly, s)
	}
	return monthly
}
