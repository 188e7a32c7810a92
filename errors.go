package backtest

import (
	"fmt"

	"github.com/etnz/backtest/date"
)

// This file defines the error taxonomy of a simulation run.
//
// Fatal conditions are typed errors so a caller can match them with errors.As;
// recoverable conditions (buys scaled down or skipped) are Warnings, recorded
// on the run result instead of aborting it.

// SchemaError reports a malformed strategy document. It is raised during
// validation, before any simulation starts, and names the offending field.
type SchemaError struct {
	Field  string // dotted path to the field, e.g. "AAPL.buy.criteria"
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("strategy schema: field %q: %s", e.Field, e.Reason)
}

// InsufficientDataError reports that a rule referenced a ticker/date with no
// price rows in range.
type InsufficientDataError struct {
	Ticker string
	On     date.Date
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("no price data for %q on or before %s", e.Ticker, e.On)
}

// MissingReferenceDataError reports that a rule's reference or traded ticker
// has no price series loaded at all.
type MissingReferenceDataError struct {
	Ticker string
}

func (e *MissingReferenceDataError) Error() string {
	return fmt.Sprintf("ticker %q has no price series loaded", e.Ticker)
}

// OversellError reports a sell order exceeding the held shares. It is fatal:
// it means the rule evaluator and the portfolio have diverged, so the run for
// that strategy aborts rather than guessing a partial fill.
type OversellError struct {
	On        date.Date
	Ticker    string
	Requested int64
	Held      int64
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("cannot sell %d shares of %q on %s: only %d held",
		e.Requested, e.Ticker, e.On, e.Held)
}

// WarningKind classifies non-fatal execution conditions.
type WarningKind string

const (
	// WarnNoCash means all buys of a batch were skipped: no cash available.
	WarnNoCash WarningKind = "no-cash"
	// WarnInsufficientCash means buy quantities were scaled down by a uniform ratio.
	WarnInsufficientCash WarningKind = "insufficient-cash"
	// WarnBuySkipped means a single rescaled buy failed the final cash check.
	WarnBuySkipped WarningKind = "buy-skipped"
)

// Warning is a structured, non-fatal execution note. The run continues; the
// warning is kept on the result for observability.
type Warning struct {
	Kind   WarningKind
	On     date.Date
	Ticker string  // only for WarnBuySkipped
	Ratio  float64 // only for WarnInsufficientCash: the uniform scale applied
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnNoCash:
		return fmt.Sprintf("%s: no cash available to process buy orders", w.On)
	case WarnInsufficientCash:
		return fmt.Sprintf("%s: insufficient cash, scaling down buy orders by ratio %.4f", w.On, w.Ratio)
	case WarnBuySkipped:
		return fmt.Sprintf("%s: skipping buy for %q: cash check failed after scaling", w.On, w.Ticker)
	default:
		return fmt.Sprintf("%s: %s", w.On, w.Kind)
	}
}
