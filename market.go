package backtest

import (
	"fmt"
	"slices"

	"github.com/etnz/backtest/date"
)

// Market holds the price series of the set of tracked tickers.
type Market struct {
	series []*Series
	index  map[string]*Series
}

// NewMarket returns a new empty market data collection.
func NewMarket() *Market {
	return &Market{
		series: make([]*Series, 0),
		index:  make(map[string]*Series),
	}
}

// Has reports whether a series is loaded for the ticker.
func (m *Market) Has(ticker string) bool {
	_, ok := m.index[ticker]
	return ok
}

// Get returns the series for ticker, or nil.
func (m *Market) Get(ticker string) *Series { return m.index[ticker] }

// Add registers a series, replacing any previous series for the same ticker.
func (m *Market) Add(s *Series) {
	if prev, ok := m.index[s.ticker]; ok {
		for i, it := range m.series {
			if it == prev {
				m.series[i] = s
				break
			}
		}
		m.index[s.ticker] = s
		return
	}
	m.series = append(m.series, s)
	m.index[s.ticker] = s
}

// Tickers returns the tracked tickers, in insertion order.
func (m *Market) Tickers() []string {
	out := make([]string, 0, len(m.series))
	for _, s := range m.series {
		out = append(out, s.ticker)
	}
	return out
}

// AsOfPrice returns the value of a field for a ticker on 'on', using as-of
// semantics (most recent row at or before the date).
func (m *Market) AsOfPrice(ticker string, on date.Date, f Field) (float64, bool) {
	s, ok := m.index[ticker]
	if !ok {
		return 0, false
	}
	return s.AsOfPrice(on, f)
}

// CommonDates returns the sorted intersection of all tracked tickers' trading
// dates. An empty market has no dates.
func (m *Market) CommonDates() []date.Date {
	if len(m.series) == 0 {
		return nil
	}
	counts := make(map[date.Date]int)
	for _, s := range m.series {
		for on := range s.Days() {
			counts[on]++
		}
	}
	out := make([]date.Date, 0, len(counts))
	for on, n := range counts {
		if n == len(m.series) {
			out = append(out, on)
		}
	}
	slices.SortFunc(out, date.Date.Compare)
	return out
}

func (m *Market) String() string {
	return fmt.Sprintf("market of %d series", len(m.series))
}
