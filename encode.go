package backtest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/etnz/backtest/date"
)

// This file persists market data in a folder of JSONL files, one file per
// ticker, one candle per line, so the data stays human-readable and
// git-friendly.

const candleFilesGlob = "*.jsonl"

// jcandle is the wire object for one daily row.
type jcandle struct {
	Ticker string    `json:"ticker"`
	On     date.Date `json:"on"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume,omitempty"`
}

// decodeCandles parses one JSONL candle file into the market.
// filename is for error messages only.
func (m *Market) decodeCandles(filename string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		n++
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var jc jcandle
		if err := json.Unmarshal(line, &jc); err != nil {
			return fmt.Errorf("format error in %q line %d: %w", filename, n, err)
		}
		if jc.Ticker == "" {
			log.Printf("skipping line %d in %q: missing ticker", n, filename)
			continue
		}
		s := m.Get(jc.Ticker)
		if s == nil {
			s = NewSeries(jc.Ticker)
			m.Add(s)
		}
		s.Append(jc.On, Candle{Open: jc.Open, High: jc.High, Low: jc.Low, Close: jc.Close, Volume: jc.Volume})
	}
	return scanner.Err()
}

// DecodeMarket reads all candle files in a folder into a new Market.
func DecodeMarket(path string) (*Market, error) {
	files, err := filepath.Glob(filepath.Join(path, candleFilesGlob))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		// distinguish a missing folder from an empty one
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
	}
	sort.Strings(files)

	m := NewMarket()
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		err = m.decodeCandles(file, f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// EncodeMarket writes every series of the market as one JSONL file per ticker
// in the given folder, creating it if needed.
func EncodeMarket(path string, m *Market) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	for _, ticker := range m.Tickers() {
		s := m.Get(ticker)
		filename := filepath.Join(path, ticker+".jsonl")
		f, err := os.Create(filename)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)
		enc := json.NewEncoder(w)
		for on, c := range s.hist.Values() {
			jc := jcandle{Ticker: ticker, On: on, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume}
			if err := enc.Encode(jc); err != nil {
				f.Close()
				return fmt.Errorf("encoding %q: %w", filename, err)
			}
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
