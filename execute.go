package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/date"
)

// executeOrders executes one date's order batch against the portfolio.
//
// Sells run first, in batch order, so their proceeds fund the buys of the
// same step. A sell exceeding the held position is fatal: it returns an
// OversellError without executing that order, and the trades already executed
// stand (the caller reports partial results).
//
// Buys are rationed fairly: when their total cost exceeds available cash, one
// uniform ratio scales every pending buy down (floored), instead of a greedy
// first-come allocation. Cash never goes negative; a rescaled buy that still
// fails the cash check (floating-point residue) is skipped with a warning,
// not an error.
func executeOrders(p *Portfolio, orders []Order, on date.Date) (trades []Trade, warnings []Warning, err error) {
	var sells, buys []Order
	for _, o := range orders {
		if o.Quantity <= 0 {
			continue
		}
		switch o.Side {
		case Sell:
			sells = append(sells, o)
		case Buy:
			buys = append(buys, o)
		}
	}

	for _, o := range sells {
		held := p.Shares(o.Ticker)
		if held < o.Quantity {
			return trades, warnings, &OversellError{On: on, Ticker: o.Ticker, Requested: o.Quantity, Held: held}
		}
		p.sell(o.Ticker, o.Quantity, o.Price)
		trades = append(trades, Trade{On: on, Ticker: o.Ticker, Side: Sell, Quantity: o.Quantity, Price: o.Price})
	}

	if len(buys) == 0 {
		return trades, warnings, nil
	}

	total := decimal.Zero
	for _, o := range buys {
		total = total.Add(o.Cost())
	}
	available := p.Cash()

	ratio := decimal.NewFromInt(1)
	if total.GreaterThan(available) {
		if !available.IsPositive() {
			warnings = append(warnings, Warning{Kind: WarnNoCash, On: on})
			return trades, warnings, nil
		}
		ratio = available.Div(total)
		warnings = append(warnings, Warning{Kind: WarnInsufficientCash, On: on, Ratio: ratio.InexactFloat64()})
	}

	for _, o := range buys {
		scaled := o.rescaled(ratio)
		if scaled.Quantity <= 0 {
			continue
		}
		if p.Cash().LessThan(scaled.Cost()) {
			warnings = append(warnings, Warning{Kind: WarnBuySkipped, On: on, Ticker: o.Ticker})
			continue
		}
		p.buy(scaled.Ticker, scaled.Quantity, scaled.Price)
		trades = append(trades, Trade{On: on, Ticker: scaled.Ticker, Side: Buy, Quantity: scaled.Quantity, Price: scaled.Price})
	}
	return trades, warnings, nil
}
