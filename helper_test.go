package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/date"
)

// days returns n consecutive calendar dates starting at 'start'.
func days(start date.Date, n int) []date.Date {
	out := make([]date.Date, n)
	for i := range out {
		out[i] = start.Add(i)
	}
	return out
}

// flatSeries builds a series quoting the same close on every given date.
func flatSeries(ticker string, dates []date.Date, close float64) *Series {
	s := NewSeries(ticker)
	for _, on := range dates {
		s.Append(on, Candle{Open: close, High: close, Low: close, Close: close, Volume: 1000})
	}
	return s
}

// marketOf bundles series into a market.
func marketOf(series ...*Series) *Market {
	m := NewMarket()
	for _, s := range series {
		m.Add(s)
	}
	return m
}

// d is a shorthand for decimal literals in expectations.
func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// buyAlways is a rule firing on every date while the position is flat: with a
// zero cost basis the baseline is the threshold value itself, and any positive
// close clears a tiny positive point target.
func buyAlways(qty OrderSize) TradeAction {
	return TradeAction{
		Indicator: Indicator{Mode: Current, Field: Close},
		Threshold: Threshold{Kind: Point, Value: 0.01},
		Quantity:  qty,
	}
}

// sellNever is a rule that cannot fire: the close never reaches an absolute
// target far above any test price.
func sellNever() TradeAction {
	return TradeAction{
		Indicator: Indicator{Mode: Current, Field: Close},
		Threshold: Threshold{Kind: TargetValue, Value: 1e9},
		Quantity:  OrderSize{Mode: Count, Value: 1},
	}
}
