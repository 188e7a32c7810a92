package backtest

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/date"
)

// Evaluator turns a strategy document into concrete orders for one date.
// It only reads the portfolio and the market; sizing feasibility is clamped
// here, fairness across competing buys is the execution engine's concern.
type Evaluator struct {
	name string
	doc  *StrategyWrapper
}

// NewEvaluator returns an evaluator for a validated strategy document.
func NewEvaluator(name string, doc *StrategyWrapper) *Evaluator {
	return &Evaluator{name: name, doc: doc}
}

// Name returns the strategy's display name.
func (e *Evaluator) Name() string { return e.name }

// Apply evaluates the buy and sell rule of every traded ticker, in document
// order, and returns the concatenated orders. Each rule yields zero or one
// order; orders with a resolved quantity of zero are dropped silently.
func (e *Evaluator) Apply(p *Portfolio, m *Market, on date.Date) ([]Order, error) {
	var orders []Order
	for _, ticker := range e.doc.Tickers() {
		cfg, _ := e.doc.Config(ticker)
		for _, rule := range []struct {
			side   Side
			action TradeAction
		}{{Buy, cfg.Buy}, {Sell, cfg.Sell}} {
			order, err := e.evalRule(p, m, on, ticker, rule.action, rule.side, cfg.Weight)
			if err != nil {
				return nil, err
			}
			if order != nil {
				orders = append(orders, *order)
			}
		}
	}
	return orders, nil
}

// evalRule applies one rule for one traded ticker and returns at most one order.
func (e *Evaluator) evalRule(p *Portfolio, m *Market, on date.Date, traded string, a TradeAction, side Side, weight float64) (*Order, error) {
	ref := a.Ticker
	if ref == "" {
		ref = traded
	}
	if !m.Has(ref) {
		return nil, &MissingReferenceDataError{Ticker: ref}
	}
	if !m.Has(traded) {
		return nil, &MissingReferenceDataError{Ticker: traded}
	}

	indicator, err := indicatorValue(m.Get(ref), a, on)
	if err != nil {
		return nil, err
	}
	if !fires(a.Threshold, p.CostBasis(traded), indicator) {
		return nil, nil
	}

	pricePoint := a.PricePoint
	if pricePoint == "" {
		pricePoint = Close
	}
	price, err := m.Get(traded).Current(on, pricePoint)
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, nil
	}
	pd := decimal.NewFromFloat(price)

	qty := resolveQuantity(p, a.Quantity, weight, traded, pd)
	qty = clamp(p, side, traded, qty, pd)
	if qty <= 0 {
		return nil, nil
	}
	return &Order{Ticker: traded, Side: side, Quantity: qty, Price: pd}, nil
}

// indicatorValue computes the rule's signal from the reference series.
func indicatorValue(s *Series, a TradeAction, on date.Date) (float64, error) {
	switch a.Indicator.Mode {
	case Average:
		return s.Mean(on, a.Indicator.Field, a.Window)
	default:
		return s.Current(on, a.Indicator.Field)
	}
}

// fires evaluates the threshold against the indicator.
//
// The baseline derives from the traded ticker's cost basis, adjusted by kind;
// the sign of the threshold value picks the direction: a value ≤ 0 is a
// cheap/falling trigger (indicator ≤ baseline), a value > 0 an
// expensive/rising one (indicator ≥ baseline).
func fires(t Threshold, basis decimal.Decimal, indicator float64) bool {
	b := basis.InexactFloat64()
	var baseline float64
	switch t.Kind {
	case Point:
		baseline = b + t.Value
	case ProfitRate:
		baseline = b * (100 + t.Value) / 100
	default: // PercentChange and TargetValue are absolute targets
		baseline = t.Value
	}
	if t.Value <= 0 {
		return indicator <= baseline
	}
	return indicator >= baseline
}

// resolveQuantity turns the rule's quantity clause into a share count at the
// given execution price.
func resolveQuantity(p *Portfolio, q OrderSize, weight float64, traded string, price decimal.Decimal) int64 {
	switch q.Mode {
	case Percent:
		held := p.Shares(traded)
		if held == 0 {
			return 0
		}
		n := decimal.NewFromInt(held).
			Mul(decimal.NewFromFloat(q.Value)).
			Div(decimal.NewFromInt(100)).
			IntPart()
		if n < 1 {
			n = 1
		}
		return n
	case CashValue:
		return decimal.NewFromFloat(q.Value).Div(price).IntPart()
	case Split:
		// a weighted 1/N slice of the initial capital per trigger, so the
		// strategy averages into the position over repeated signals.
		slice := p.InitialCapital().
			Div(decimal.NewFromFloat(q.Value)).
			Mul(decimal.NewFromFloat(weight))
		return slice.Div(price).IntPart()
	default: // Count
		return int64(q.Value)
	}
}

// clamp applies the feasibility bound: buys never exceed what cash can pay,
// sells never exceed the held position.
func clamp(p *Portfolio, side Side, ticker string, qty int64, price decimal.Decimal) int64 {
	if qty <= 0 {
		return 0
	}
	if side == Sell {
		if held := p.Shares(ticker); qty > held {
			return held
		}
		return qty
	}
	if price.Mul(decimal.NewFromInt(qty)).GreaterThan(p.Cash()) {
		affordable := p.Cash().Div(price).IntPart()
		if affordable < 0 {
			return 0
		}
		return affordable
	}
	return qty
}

// Rebalance proposes the orders moving the portfolio toward the configured
// target weights of its total value on 'on'. Sells are sorted before buys so
// reductions fund increases within the same execution step; buy sizing is not
// pre-clamped to cash for the same reason.
func (e *Evaluator) Rebalance(p *Portfolio, m *Market, on date.Date) ([]Order, error) {
	total := p.Value(m, on)
	var orders []Order
	for _, ticker := range e.doc.Tickers() {
		cfg, _ := e.doc.Config(ticker)
		if cfg.Weight == 0 {
			continue
		}
		if !m.Has(ticker) {
			return nil, &MissingReferenceDataError{Ticker: ticker}
		}
		price, ok := m.AsOfPrice(ticker, on, Close)
		if !ok || price <= 0 {
			continue
		}
		pd := decimal.NewFromFloat(price)
		target := total.Mul(decimal.NewFromFloat(cfg.Weight))
		current := pd.Mul(decimal.NewFromInt(p.Shares(ticker)))
		diff := target.Sub(current)

		qty := diff.Abs().Div(pd).IntPart()
		if qty <= 0 {
			continue
		}
		if diff.IsNegative() {
			if held := p.Shares(ticker); qty > held {
				qty = held
			}
			if qty > 0 {
				orders = append(orders, Order{Ticker: ticker, Side: Sell, Quantity: qty, Price: pd})
			}
			continue
		}
		orders = append(orders, Order{Ticker: ticker, Side: Buy, Quantity: qty, Price: pd})
	}
	// sells first, stable within each side
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Side == Sell && orders[j].Side == Buy
	})
	return orders, nil
}
