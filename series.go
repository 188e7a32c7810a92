package backtest

import (
	"fmt"
	"iter"

	"github.com/etnz/backtest/date"
)

// Field identifies one column of a daily price series.
type Field string

const (
	Open      Field = "Open"
	High      Field = "High"
	Low       Field = "Low"
	Close     Field = "Close"
	Volume    Field = "Volume"
	Change    Field = "Change"     // Close minus previous Close
	ChangePct Field = "Change_Pct" // Change over previous Close, in percent
)

// ParseField parses a field name as it appears in strategy documents.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case Open, High, Low, Close, Volume, Change, ChangePct:
		return Field(s), nil
	default:
		return "", fmt.Errorf("unknown price field %q", s)
	}
}

// Candle holds the raw daily quote values for one ticker on one day.
// Change and Change_Pct are derived, see Series.Value.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is the ordered, date-indexed daily price table of one ticker.
//
// It is immutable once loaded: lookups (including as-of lookups on dates
// absent from the series) never modify it.
type Series struct {
	ticker string
	hist   date.History[Candle]
}

// NewSeries returns an empty series for the given ticker.
func NewSeries(ticker string) *Series { return &Series{ticker: ticker} }

// Ticker returns the ticker this series describes.
func (s *Series) Ticker() string { return s.ticker }

// Len returns the number of daily rows.
func (s *Series) Len() int { return s.hist.Len() }

// Append records the candle for a day. An existing candle on the same day is
// overwritten; appending out of order is allowed, the series stays sorted.
func (s *Series) Append(on date.Date, c Candle) { s.hist.Append(on, c) }

// Days returns the trading dates of the series, in chronological order.
func (s *Series) Days() iter.Seq[date.Date] { return s.hist.Days() }

// Get returns the candle at exactly 'on'.
func (s *Series) Get(on date.Date) (Candle, bool) { return s.hist.Get(on) }

// AsOf returns the candle on 'on' or the most recent one before it, with the
// date it was recorded on.
func (s *Series) AsOf(on date.Date) (Candle, date.Date, bool) { return s.hist.AsOf(on) }

// AsOfPrice returns the value of a field on 'on', falling back to the most
// recent row before it.
func (s *Series) AsOfPrice(on date.Date, f Field) (float64, bool) {
	rows := s.hist.Upto(on)
	if len(rows) == 0 {
		return 0, false
	}
	return fieldValue(rows, len(rows)-1, f), true
}

// fieldValue reads field f of rows[i], deriving Change and Change_Pct from the
// previous row's close. The first row of a series has no previous close, so
// its change is zero.
func fieldValue(rows []Candle, i int, f Field) float64 {
	switch f {
	case Open:
		return rows[i].Open
	case High:
		return rows[i].High
	case Low:
		return rows[i].Low
	case Close:
		return rows[i].Close
	case Volume:
		return rows[i].Volume
	case Change, ChangePct:
		if i == 0 {
			return 0
		}
		prev := rows[i-1].Close
		change := rows[i].Close - prev
		if f == Change {
			return change
		}
		if prev == 0 {
			return 0
		}
		return change / prev * 100
	default:
		panic(fmt.Sprintf("unknown price field %q", f))
	}
}

// Current returns the latest value of field f at or before 'on'.
// It fails with InsufficientDataError when no row exists in range.
func (s *Series) Current(on date.Date, f Field) (float64, error) {
	rows := s.hist.Upto(on)
	if len(rows) == 0 {
		return 0, &InsufficientDataError{Ticker: s.ticker, On: on}
	}
	return fieldValue(rows, len(rows)-1, f), nil
}

// Mean returns the mean of field f over the last 'window' rows at or before
// 'on'. A window of 0 means the full history up to 'on'. It fails with
// InsufficientDataError when no row exists in range.
func (s *Series) Mean(on date.Date, f Field, window int) (float64, error) {
	rows := s.hist.Upto(on)
	if len(rows) == 0 {
		return 0, &InsufficientDataError{Ticker: s.ticker, On: on}
	}
	start := 0
	if window > 0 && window < len(rows) {
		start = len(rows) - window
	}
	var sum float64
	for i := start; i < len(rows); i++ {
		sum += fieldValue(rows, i, f)
	}
	return sum / float64(len(rows)-start), nil
}
