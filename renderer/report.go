// Package renderer renders simulation results as markdown reports.
package renderer

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Rhymond/go-money"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/etnz/backtest"
)

// Money formats a decimal amount in the given currency.
func Money(v decimal.Decimal, currency string) string {
	cur := money.New(0, currency).Currency()
	dec := v.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// ResultMarkdown renders one strategy's run: performance summary, trade log
// and monthly snapshots.
func ResultMarkdown(r *backtest.Result, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Backtest Report - %s", r.Name))

	last, _ := r.Values.Latest()
	doc.Table(md.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Initial Capital", Money(r.InitialCapital, currency)},
			{"Final Value", Money(decimal.NewFromFloat(r.FinalValue()), currency)},
			{"Final Profit Rate", fmt.Sprintf("%.3f", r.ProfitRate())},
			{"Last Date", last.String()},
			{"Trades", fmt.Sprintf("%d", len(r.Trades))},
			{"Warnings", fmt.Sprintf("%d", len(r.Warnings))},
		},
	})

	if r.Err != nil {
		doc.H2("Run Aborted")
		doc.PlainText(fmt.Sprintf("The run stopped early: %v. Figures above cover the dates up to the failure.", r.Err))
	}

	if len(r.Trades) > 0 {
		doc.H2("Trades")
		table := md.TableSet{Header: []string{"Date", "Ticker", "Side", "Quantity", "Price"}}
		for _, t := range r.Trades {
			table.Rows = append(table.Rows, []string{
				t.On.String(),
				t.Ticker,
				string(t.Side),
				fmt.Sprintf("%d", t.Quantity),
				Money(t.Price, currency),
			})
		}
		doc.Table(table)
	}

	if monthly := r.Monthly(); len(monthly) > 0 {
		doc.H2("Monthly Snapshots")
		doc.PlainText(SnapshotsMarkdown(monthly, currency))
	}

	if len(r.Warnings) > 0 {
		doc.H2("Warnings")
		var lines []string
		for _, w := range r.Warnings {
			lines = append(lines, w.String())
		}
		doc.BulletList(lines...)
	}

	return doc.String()
}

// SnapshotsMarkdown renders a snapshot sequence as a markdown table with one
// amount and one value column per tracked ticker.
func SnapshotsMarkdown(snaps []backtest.Snapshot, currency string) string {
	if len(snaps) == 0 {
		return ""
	}
	// column order follows the first snapshot's tickers, sorted for stability
	tickers := make([]string, 0, len(snaps[0].Positions))
	for ticker := range snaps[0].Positions {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	header := []string{"Date", "Cash", "Total_Value"}
	for _, ticker := range tickers {
		header = append(header, "Stock_Amount_"+ticker, "Stock_Value_"+ticker)
	}

	table := md.TableSet{Header: header}
	for _, s := range snaps {
		row := []string{s.On.String(), Money(s.Cash, currency), Money(s.Total, currency)}
		for _, ticker := range tickers {
			pos := s.Positions[ticker]
			row = append(row, fmt.Sprintf("%d", pos.Amount), Money(pos.Value, currency))
		}
		table.Rows = append(table.Rows, row)
	}

	var buf bytes.Buffer
	return md.NewMarkdown(&buf).Table(table).String()
}
