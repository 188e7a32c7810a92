package backtest

import (
	"log"

	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/date"
)

// RebalancePolicy is the explicit rebalancing cadence of a simulation.
type RebalancePolicy int

const (
	// RebalanceNever disables rebalancing; only the buy/sell rules trade.
	RebalanceNever RebalancePolicy = iota
	// RebalanceDaily rebalances on every simulated date.
	RebalanceDaily
	// RebalanceMonthly rebalances on the last trading date of each month.
	RebalanceMonthly
)

// Simulation replays strategies over the historical dates shared by every
// tracked ticker. It is single-threaded by design: each date must observe the
// portfolio exactly as the previous date left it.
type Simulation struct {
	market     *Market
	evaluators []*Evaluator
	initial    decimal.Decimal
	end        date.Date
	rebalance  RebalancePolicy
}

// NewSimulation returns a simulation of the given strategies over the market,
// each starting from the same initial capital.
func NewSimulation(m *Market, initialCapital float64, evaluators ...*Evaluator) *Simulation {
	return &Simulation{
		market:     m,
		evaluators: evaluators,
		initial:    decimal.NewFromFloat(initialCapital),
	}
}

// SetEnd truncates the simulated date axis at 'on' (inclusive).
func (s *Simulation) SetEnd(on date.Date) { s.end = on }

// SetRebalance sets the rebalancing cadence. The default is RebalanceNever.
func (s *Simulation) SetRebalance(p RebalancePolicy) { s.rebalance = p }

// Result is the outcome of one strategy's run: the audit trail, the valuation
// curve, the daily snapshots and the warnings collected along the way.
//
// Err carries the fatal error that stopped the run, if any; the other fields
// then hold the partial results up to the failing date.
type Result struct {
	Name           string
	InitialCapital decimal.Decimal
	Trades         []Trade
	Values         date.History[float64]
	Daily          []Snapshot
	Warnings       []Warning
	Err            error
}

// Value returns the total portfolio value as of a date.
func (r *Result) Value(on date.Date) (float64, bool) { return r.Values.ValueAsOf(on) }

// FinalValue returns the portfolio value on the last simulated date.
func (r *Result) FinalValue() float64 {
	_, v := r.Values.Latest()
	return v
}

// ProfitRate returns the ratio of final value to initial capital.
func (r *Result) ProfitRate() float64 {
	initial := r.InitialCapital.InexactFloat64()
	if initial == 0 {
		return 0
	}
	return r.FinalValue() / initial
}

// Monthly returns the monthly view of the daily snapshots.
func (r *Result) Monthly() []Snapshot { return MonthlySnapshots(r.Daily) }

// Dates returns the simulated date axis: the sorted intersection of all
// tracked tickers' trading dates, truncated at the configured end date.
func (s *Simulation) Dates() []date.Date {
	dates := s.market.CommonDates()
	if s.end.IsZero() {
		return dates
	}
	for i, on := range dates {
		if on.After(s.end) {
			return dates[:i]
		}
	}
	return dates
}

// Run simulates every strategy independently and returns one result each.
// A fatal error terminates that strategy's run only; other strategies are
// unaffected.
func (s *Simulation) Run() []Result {
	dates := s.Dates()
	results := make([]Result, 0, len(s.evaluators))
	for _, ev := range s.evaluators {
		log.Printf("running strategy %q over %d dates", ev.Name(), len(dates))
		results = append(results, s.run(ev, dates))
	}
	return results
}

// run replays one strategy over the date axis with a fresh portfolio.
func (s *Simulation) run(ev *Evaluator, dates []date.Date) Result {
	p := NewPortfolio(s.initial)
	res := Result{Name: ev.Name(), InitialCapital: s.initial}

	for i, on := range dates {
		orders, err := ev.Apply(p, s.market, on)
		if err != nil {
			res.Err = err
			return res
		}
		if s.rebalanceDue(dates, i) {
			rb, err := ev.Rebalance(p, s.market, on)
			if err != nil {
				res.Err = err
				return res
			}
			orders = append(orders, rb...)
		}

		trades, warnings, err := executeOrders(p, orders, on)
		res.Trades = append(res.Trades, trades...)
		res.Warnings = append(res.Warnings, warnings...)
		for _, w := range warnings {
			log.Printf("strategy %q: %s", ev.Name(), w)
		}
		if err != nil {
			res.Err = err
			return res
		}

		res.Values.Append(on, p.Value(s.market, on).InexactFloat64())
		res.Daily = append(res.Daily, newSnapshot(p, s.market, on))
	}
	return res
}

// rebalanceDue reports whether the cadence triggers on dates[i].
func (s *Simulation) rebalanceDue(dates []date.Date, i int) bool {
	switch s.rebalance {
	case RebalanceDaily:
		return true
	case RebalanceMonthly:
		// last trading date of its calendar month
		return i == len(dates)-1 || !dates[i].SameMonth(dates[i+1])
	default:
		return false
	}
}
