package backtest

import (
	"errors"
	"testing"

	"github.com/etnz/backtest/date"
)

func closesSeries(ticker string, start date.Date, closes ...float64) *Series {
	s := NewSeries(ticker)
	for i, c := range closes {
		s.Append(start.Add(i), Candle{Open: c, High: c, Low: c, Close: c, Volume: 100})
	}
	return s
}

func TestSeries_Current(t *testing.T) {
	start := date.New(2023, 1, 2)
	s := closesSeries("AAPL", start, 100, 102, 101)

	got, err := s.Current(start.Add(1), Close)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got != 102 {
		t.Errorf("Current() = %v, want 102", got)
	}

	// as-of: a date after the last row resolves to the last row
	got, err = s.Current(start.Add(10), Close)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got != 101 {
		t.Errorf("Current() as-of = %v, want 101", got)
	}

	// before the first row there is nothing to resolve to
	_, err = s.Current(start.Add(-1), Close)
	var ide *InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("Current() before first row, error = %v, want InsufficientDataError", err)
	}
	if ide.Ticker != "AAPL" {
		t.Errorf("InsufficientDataError.Ticker = %q, want AAPL", ide.Ticker)
	}
}

func TestSeries_Mean(t *testing.T) {
	start := date.New(2023, 1, 2)
	s := closesSeries("AAPL", start, 100, 110, 120, 130)

	// full history when the window is 0
	got, err := s.Mean(start.Add(3), Close, 0)
	if err != nil {
		t.Fatalf("Mean() error = %v", err)
	}
	if got != 115 {
		t.Errorf("Mean(full) = %v, want 115", got)
	}

	// windowed: last 2 rows only
	got, err = s.Mean(start.Add(3), Close, 2)
	if err != nil {
		t.Fatalf("Mean() error = %v", err)
	}
	if got != 125 {
		t.Errorf("Mean(window=2) = %v, want 125", got)
	}

	// a window larger than the history falls back to the full history
	got, err = s.Mean(start.Add(1), Close, 30)
	if err != nil {
		t.Fatalf("Mean() error = %v", err)
	}
	if got != 105 {
		t.Errorf("Mean(window=30) = %v, want 105", got)
	}
}

func TestSeries_DerivedFields(t *testing.T) {
	start := date.New(2023, 1, 2)
	s := closesSeries("AAPL", start, 200, 198, 202)

	// the first row has no previous close
	got, err := s.Current(start, Change)
	if err != nil {
		t.Fatalf("Current(Change) error = %v", err)
	}
	if got != 0 {
		t.Errorf("Change on first row = %v, want 0", got)
	}

	got, err = s.Current(start.Add(1), Change)
	if err != nil {
		t.Fatalf("Current(Change) error = %v", err)
	}
	if got != -2 {
		t.Errorf("Change = %v, want -2", got)
	}

	got, err = s.Current(start.Add(1), ChangePct)
	if err != nil {
		t.Fatalf("Current(Change_Pct) error = %v", err)
	}
	if got != -1 {
		t.Errorf("Change_Pct = %v, want -1", got)
	}

	// the derivation window moves with the as-of date
	got, err = s.Mean(start.Add(2), ChangePct, 0)
	if err != nil {
		t.Fatalf("Mean(Change_Pct) error = %v", err)
	}
	want := (0 - 1 + 202.0/198*100 - 100) / 3
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Mean(Change_Pct) = %v, want %v", got, want)
	}
}

func TestSeries_LookupDoesNotMutate(t *testing.T) {
	start := date.New(2023, 1, 2)
	s := closesSeries("AAPL", start, 100, 101)

	if _, ok := s.AsOfPrice(start.Add(30), Close); !ok {
		t.Fatalf("AsOfPrice() after last row, ok = false")
	}
	if _, ok := s.AsOfPrice(start.Add(-30), Close); ok {
		t.Fatalf("AsOfPrice() before first row, ok = true")
	}
	if s.Len() != 2 {
		t.Errorf("Len() after lookups = %d, want 2", s.Len())
	}
}

func TestParseField(t *testing.T) {
	if _, err := ParseField("Close"); err != nil {
		t.Errorf("ParseField(Close) error = %v", err)
	}
	if _, err := ParseField("Change_Pct"); err != nil {
		t.Errorf("ParseField(Change_Pct) error = %v", err)
	}
	if _, err := ParseField("close"); err == nil {
		t.Errorf("ParseField(close) expected an error, field names are case sensitive")
	}
}
