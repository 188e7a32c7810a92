package backtest

import (
	"fmt"
	"net/url"

	"github.com/PaesslerAG/jsonpath"

	"github.com/etnz/backtest/date"
)

// This file retrieves daily candles from the Yahoo Finance chart endpoint.
// The simulation core never calls it: price retrieval is a collaborator the
// CLI uses to populate the local market data folder.

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// FetchDailyCandles downloads the daily candles of one ticker over a date
// range (inclusive) and returns them as a Series. Responses are cached on
// disk for the day.
func FetchDailyCandles(ticker string, from, to date.Date) (*Series, error) {
	addr := yahooChartURL + url.PathEscape(ticker) + fmt.Sprintf(
		"?period1=%d&period2=%d&interval=1d&events=history",
		from.Unix(), to.Add(1).Unix())

	var jobj any
	if err := jwget(daily(), addr, &jobj); err != nil {
		return nil, fmt.Errorf("error retrieving %q: %w", ticker, err)
	}

	// the provider reports errors inside the payload with a 200 status
	if jerr, err := jsonpath.Get("$.chart.error.description", jobj); err == nil {
		if desc, ok := jerr.(string); ok && desc != "" {
			return nil, fmt.Errorf("provider error for %q: %s", ticker, desc)
		}
	}

	timestamps, err := jlist("$.chart.result[0].timestamp", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", ticker, err)
	}
	quote := "$.chart.result[0].indicators.quote[0]."
	opens, err := jlist(quote+"open", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", ticker, err)
	}
	highs, err := jlist(quote+"high", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", ticker, err)
	}
	lows, err := jlist(quote+"low", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", ticker, err)
	}
	closes, err := jlist(quote+"close", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", ticker, err)
	}
	volumes, err := jlist(quote+"volume", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", ticker, err)
	}

	s := NewSeries(ticker)
	for i, ts := range timestamps {
		sec, ok := ts.(float64)
		if !ok {
			continue
		}
		c := Candle{
			Open:   jfloat(opens, i),
			High:   jfloat(highs, i),
			Low:    jfloat(lows, i),
			Close:  jfloat(closes, i),
			Volume: jfloat(volumes, i),
		}
		if c.Close == 0 {
			// the provider pads non-trading days with nulls
			continue
		}
		s.Append(date.FromUnix(int64(sec)), c)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("no candles returned for %q between %s and %s", ticker, from, to)
	}
	return s, nil
}

// jlist evaluates a jsonpath expected to yield a list.
func jlist(path string, jobj any) ([]any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	list, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("%q: not a list: %v", path, jval)
	}
	return list, nil
}

// jfloat reads list[i] as a float64, tolerating nulls and short lists.
func jfloat(list []any, i int) float64 {
	if i >= len(list) {
		return 0
	}
	v, ok := list[i].(float64)
	if !ok {
		return 0
	}
	return v
}
