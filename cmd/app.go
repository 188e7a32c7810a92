// Package cmd implements the CLI application to backtest trading strategies.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/backtest"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&runCmd{}, "backtest")
	c.Register(&monthlyCmd{}, "backtest")

	c.Register(&fetchCmd{}, "market data")

	c.Register(&fmtCmd{}, "strategies")

	c.Register(&AssistCmd{}, "assist")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var marketPath = flag.String("market-path", ".market", "Path to the market data folder (one JSONL file per ticker)")
var strategiesFile = flag.String("strategies-file", "strategies.json", "Path to the strategy document (JSON)")
var currency = flag.String("currency", "USD", "ISO 4217 code used to format money in reports")

// DecodeMarket decodes the market data from the app market path folder.
func DecodeMarket() (m *backtest.Market, err error) {
	m, err = backtest.DecodeMarket(*marketPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, market data folder does not exist, starting empty")
		m, err = backtest.NewMarket(), nil
	}
	return
}

// EncodeMarket encodes the market data into the app market path folder.
func EncodeMarket(m *backtest.Market) error {
	return backtest.EncodeMarket(*marketPath, m)
}

// DecodeStrategies decodes and validates the app strategy document.
func DecodeStrategies() (*backtest.StrategyWrapper, error) {
	f, err := os.Open(*strategiesFile)
	if err != nil {
		return nil, fmt.Errorf("could not open strategies file %q: %w", *strategiesFile, err)
	}
	defer f.Close()
	w, err := backtest.DecodeStrategies(f)
	if err != nil {
		return nil, fmt.Errorf("invalid strategies file %q: %w", *strategiesFile, err)
	}
	return w, nil
}

// strategyName is the display name of the app strategy document.
func strategyName() string {
	base := filepath.Base(*strategiesFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the terminal cannot be styled.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		if rendered, err := r.Render(md); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Print(md)
}
