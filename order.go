package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/date"
)

// Side is the direction of an order or trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Order is a proposed trade for one ticker on one date, sized by the rule
// evaluator at a given execution price. Orders are immutable: rescaling
// produces a new Order.
type Order struct {
	Ticker   string
	Side     Side
	Quantity int64
	Price    decimal.Decimal
}

// Cost returns price times quantity.
func (o Order) Cost() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(o.Quantity))
}

// rescaled returns a copy of the order with its quantity scaled down by
// ratio, floored. Ratio is at most 1 so scaling never increases a quantity.
func (o Order) rescaled(ratio decimal.Decimal) Order {
	o.Quantity = decimal.NewFromInt(o.Quantity).Mul(ratio).IntPart()
	return o
}

func (o Order) String() string {
	return fmt.Sprintf("%s %d %s @ %s", o.Side, o.Quantity, o.Ticker, o.Price)
}

// Trade is one executed order, as recorded in the audit trail of a run.
type Trade struct {
	On       date.Date
	Ticker   string
	Side     Side
	Quantity int64
	Price    decimal.Decimal
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %s %d %s @ %s", t.On, t.Side, t.Quantity, t.Ticker, t.Price)
}
