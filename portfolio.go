package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/date"
)

// Portfolio is the running state of one strategy run: cash, per-ticker share
// counts and per-ticker average cost basis.
//
// It is created fresh at the start of a run and mutated only by the execution
// engine. Share counts never go negative; the cost basis is zero whenever the
// position is zero.
type Portfolio struct {
	initial decimal.Decimal
	cash    decimal.Decimal
	shares  map[string]int64
	basis   map[string]decimal.Decimal
}

// NewPortfolio returns a portfolio holding only the initial capital.
func NewPortfolio(initialCapital decimal.Decimal) *Portfolio {
	return &Portfolio{
		initial: initialCapital,
		cash:    initialCapital,
		shares:  make(map[string]int64),
		basis:   make(map[string]decimal.Decimal),
	}
}

// InitialCapital returns the capital the portfolio started with.
func (p *Portfolio) InitialCapital() decimal.Decimal { return p.initial }

// Cash returns the available cash.
func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

// Shares returns the number of shares held for a ticker.
func (p *Portfolio) Shares(ticker string) int64 { return p.shares[ticker] }

// CostBasis returns the volume-weighted average purchase price of the
// currently open position, or zero when no position is open.
func (p *Portfolio) CostBasis(ticker string) decimal.Decimal { return p.basis[ticker] }

// buy debits cash and updates the weighted average cost basis.
// The caller has already validated that cash covers the cost.
func (p *Portfolio) buy(ticker string, quantity int64, price decimal.Decimal) {
	q := decimal.NewFromInt(quantity)
	cost := price.Mul(q)

	held := decimal.NewFromInt(p.shares[ticker])
	current := held.Mul(p.basis[ticker])

	p.cash = p.cash.Sub(cost)
	p.shares[ticker] += quantity
	p.basis[ticker] = current.Add(cost).Div(held.Add(q))
}

// sell credits cash, reduces the position and resets the basis when it closes.
// The caller has already validated that the position covers the quantity.
func (p *Portfolio) sell(ticker string, quantity int64, price decimal.Decimal) {
	q := decimal.NewFromInt(quantity)
	p.cash = p.cash.Add(price.Mul(q))
	p.shares[ticker] -= quantity
	if p.shares[ticker] <= 0 {
		p.basis[ticker] = decimal.Zero
	}
}

// Value returns the total portfolio value on a date: cash plus the as-of
// close value of every open position.
func (p *Portfolio) Value(m *Market, on date.Date) decimal.Decimal {
	total := p.cash
	for _, ticker := range m.Tickers() {
		held := p.shares[ticker]
		if held == 0 {
			continue
		}
		price, ok := m.AsOfPrice(ticker, on, Close)
		if !ok {
			continue
		}
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(held)))
	}
	return total
}
