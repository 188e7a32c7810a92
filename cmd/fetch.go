package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/google/subcommands"
)

type fetchCmd struct {
	from string
	to   string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetches daily candles from Yahoo Finance" }
func (*fetchCmd) Usage() string {
	return `bt fetch [-from <date>] [-to <date>] <ticker...>

  Fetches daily candles for the given tickers and writes them to the market
  data folder, one JSONL file per ticker. Existing candles on the same dates
  are overwritten.

  When no ticker is given, every ticker of the strategy document is fetched.

Usage Examples:
# Fetch two years of AAPL and MSFT.
$ bt fetch -from 2022-01-01 AAPL MSFT

`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First date to fetch (YYYY-MM-DD, defaults to one year ago)")
	f.StringVar(&c.to, "to", "", "Last date to fetch (YYYY-MM-DD, defaults to today)")
}

func (c *fetchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from := date.Today().Add(-365)
	if c.from != "" {
		var err error
		if from, err = date.Parse(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -from: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	to := date.Today()
	if c.to != "" {
		var err error
		if to, err = date.Parse(c.to); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -to: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	tickers := f.Args()
	if len(tickers) == 0 {
		doc, err := DecodeStrategies()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		tickers = doc.Tickers()
	}
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no ticker to fetch.")
		f.Usage()
		return subcommands.ExitUsageError
	}

	m, err := DecodeMarket()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fetched := 0
	for _, ticker := range tickers {
		s, err := backtest.FetchDailyCandles(ticker, from, to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching %q: %v\n", ticker, err)
			// Don't exit, other tickers might succeed.
			continue
		}
		dst := m.Get(ticker)
		if dst == nil {
			m.Add(s)
		} else {
			for on := range s.Days() {
				c, _ := s.Get(on)
				dst.Append(on, c)
			}
		}
		fetched++
		fmt.Printf("Fetched %d candles for %q.\n", s.Len(), ticker)
	}

	if fetched == 0 {
		fmt.Fprintln(os.Stderr, "Error: nothing fetched.")
		return subcommands.ExitFailure
	}
	if err := EncodeMarket(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing market data: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("✅ Successfully updated %d tickers in %s.\n", fetched, *marketPath)
	return subcommands.ExitSuccess
}
