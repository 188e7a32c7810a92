package backtest

import (
	"errors"
	"testing"

	"github.com/etnz/backtest/date"
)

func TestEvaluator_SplitPurchase(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(closesSeries("AAPL", start, 100))

	doc := new(StrategyWrapper).Set("AAPL", StrategyConfig{
		Buy:    buyAlways(OrderSize{Mode: Split, Value: 2}),
		Sell:   sellNever(),
		Weight: 1,
	})
	ev := NewEvaluator("split", doc)
	p := NewPortfolio(d(1000))

	orders, err := ev.Apply(p, m, start)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("Apply() = %d orders, want 1", len(orders))
	}
	// one of 2 slices of 1000, at 100 a share
	want := Order{Ticker: "AAPL", Side: Buy, Quantity: 5, Price: d(100)}
	if orders[0].Ticker != want.Ticker || orders[0].Side != want.Side ||
		orders[0].Quantity != want.Quantity || !orders[0].Price.Equal(want.Price) {
		t.Errorf("Apply() = %s, want %s", orders[0], want)
	}
}

func TestEvaluator_SplitWeighted(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(closesSeries("AAPL", start, 100))

	doc := new(StrategyWrapper).Set("AAPL", StrategyConfig{
		Buy:    buyAlways(OrderSize{Mode: Split, Value: 2}),
		Sell:   sellNever(),
		Weight: 0.5,
	})
	ev := NewEvaluator("split", doc)

	orders, err := ev.Apply(NewPortfolio(d(1000)), m, start)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(orders) != 1 || orders[0].Quantity != 2 {
		t.Fatalf("Apply() = %v, want one buy of 2 (half of a 250 slice at 100)", orders)
	}
}

func TestEvaluator_PercentSell(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(closesSeries("AAPL", start, 120))

	doc := new(StrategyWrapper).Set("AAPL", StrategyConfig{
		Buy: sellNever(), // never fires
		Sell: TradeAction{
			Indicator: Indicator{Mode: Current, Field: Close},
			Threshold: Threshold{Kind: ProfitRate, Value: 10},
			Quantity:  OrderSize{Mode: Percent, Value: 50},
		},
	})
	ev := NewEvaluator("take-profit", doc)

	p := NewPortfolio(d(10000))
	p.buy("AAPL", 10, d(100))

	// basis 100, +10% profit target = 110, close 120 clears it
	orders, err := ev.Apply(p, m, start)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("Apply() = %d orders, want 1", len(orders))
	}
	if orders[0].Side != Sell || orders[0].Quantity != 5 {
		t.Errorf("Apply() = %s, want sell of 5 (50%% of 10)", orders[0])
	}
}

func TestEvaluator_PercentSellFlatPosition(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(closesSeries("AAPL", start, 120))

	doc := new(StrategyWrapper).Set("AAPL", StrategyConfig{
		Buy: sellNever(),
		Sell: TradeAction{
			Indicator: Indicator{Mode: Current, Field: Close},
			Threshold: Threshold{Kind: Point, Value: 1},
			Quantity:  OrderSize{Mode: Percent, Value: 50},
		},
	})
	ev := NewEvaluator("take-profit", doc)

	// nothing held: the rule fires but sizes to zero, no order
	orders, err := ev.Apply(NewPortfolio(d(1000)), m, start)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("Apply() = %v, want no orders", orders)
	}
}

func TestEvaluator_FallingTrigger(t *testing.T) {
	start := date.New(2023, 1, 2)
	s := NewSeries("AAPL")
	s.Append(start, Candle{Close: 200})
	s.Append(start.Add(1), Candle{Close: 198}) // -1%
	m := marketOf(s)

	doc := new(StrategyWrapper).Set("AAPL", StrategyConfig{
		Buy: TradeAction{
			Indicator: Indicator{Mode: Current, Field: ChangePct},
			Threshold: Threshold{Kind: PercentChange, Value: -0.5},
			Quantity:  OrderSize{Mode: Count, Value: 3},
		},
		Sell: sellNever(),
	})
	ev := NewEvaluator("dip", doc)
	p := NewPortfolio(d(10000))

	// day one: change is 0, above the -0.5 target, no fire
	orders, err := ev.Apply(p, m, start)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("Apply() day 1 = %v, want no orders", orders)
	}

	// day two: -1% is at or below -0.5, the falling trigger fires
	orders, err = ev.Apply(p, m, start.Add(1))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(orders) != 1 || orders[0].Side != Buy || orders[0].Quantity != 3 {
		t.Errorf("Apply() day 2 = %v, want a buy of 3", orders)
	}
}

func TestEvaluator_ReferenceTicker(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(
		closesSeries("SPY", start, 400),
		closesSeries("AAPL", start, 100),
	)

	// trade AAPL on SPY's signal
	doc := new(StrategyWrapper).Set("AAPL", StrategyConfig{
		Buy: TradeAction{
			Ticker:    "SPY",
			Indicator: Indicator{Mode: Current, Field: Close},
			Threshold: Threshold{Kind: TargetValue, Value: 350},
			Quantity:  OrderSize{Mode: Count, Value: 2},
		},
		Sell: sellNever(),
	})
	ev := NewEvaluator("follow", doc)

	orders, err := ev.Apply(NewPortfolio(d(1000)), m, start)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("Apply() = %d orders, want 1", len(orders))
	}
	// signal from SPY, execution priced on AAPL
	if orders[0].Ticker != "AAPL" || !orders[0].Price.Equal(d(100)) {
		t.Errorf("Apply() = %s, want a buy of AAPL at 100", orders[0])
	}
}

func TestEvaluator_MissingReference(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(closesSeries("AAPL", start, 100))

	doc := new(StrategyWrapper).Set("AAPL", StrategyConfig{
		Buy: TradeAction{
			Ticker:    "SPY",
			Indicator: Indicator{Mode: Current, Field: Close},
			Threshold: Threshold{Kind: TargetValue, Value: 350},
			Quantity:  OrderSize{Mode: Count, Value: 2},
		},
		Sell: sellNever(),
	})
	ev := NewEvaluator("follow", doc)

	_, err := ev.Apply(NewPortfolio(d(1000)), m, start)
	var mre *MissingReferenceDataError
	if !errors.As(err, &mre) {
		t.Fatalf("Apply() error = %v, want MissingReferenceDataError", err)
	}
	if mre.Ticker != "SPY" {
		t.Errorf("MissingReferenceDataError.Ticker = %q, want SPY", mre.Ticker)
	}
}

func TestEvaluator_BuyClampedToCash(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(closesSeries("AAPL", start, 100))

	doc := new(StrategyWrapper).Set("AAPL", StrategyConfig{
		Buy:  buyAlways(OrderSize{Mode: Count, Value: 100}),
		Sell: sellNever(),
	})
	ev := NewEvaluator("greedy", doc)

	orders, err := ev.Apply(NewPortfolio(d(550)), m, start)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(orders) != 1 || orders[0].Quantity != 5 {
		t.Errorf("Apply() = %v, want a buy clamped to 5", orders)
	}
}

func TestEvaluator_Rebalance(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(
		closesSeries("AAPL", start, 100),
		closesSeries("GOOG", start, 100),
	)

	doc := new(StrategyWrapper).
		Set("AAPL", StrategyConfig{Buy: sellNever(), Sell: sellNever(), Weight: 0.5}).
		Set("GOOG", StrategyConfig{Buy: sellNever(), Sell: sellNever(), Weight: 0.5})
	ev := NewEvaluator("balanced", doc)

	// all-in on AAPL, no cash: rebalancing must sell AAPL to fund GOOG
	p := NewPortfolio(d(2000))
	p.buy("AAPL", 20, d(100))

	orders, err := ev.Rebalance(p, m, start)
	if err != nil {
		t.Fatalf("Rebalance() error = %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("Rebalance() = %d orders, want 2", len(orders))
	}
	// sells sorted first so proceeds fund the buys of the same step
	if orders[0].Side != Sell || orders[0].Ticker != "AAPL" || orders[0].Quantity != 10 {
		t.Errorf("Rebalance()[0] = %s, want sell 10 AAPL", orders[0])
	}
	if orders[1].Side != Buy || orders[1].Ticker != "GOOG" || orders[1].Quantity != 10 {
		t.Errorf("Rebalance()[1] = %s, want buy 10 GOOG", orders[1])
	}

	// executing the step lands on target
	trades, warnings, err := executeOrders(p, orders, start)
	if err != nil {
		t.Fatalf("executeOrders() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("executeOrders() warnings = %v, want none", warnings)
	}
	if len(trades) != 2 {
		t.Fatalf("executeOrders() = %d trades, want 2", len(trades))
	}
	if p.Shares("AAPL") != 10 || p.Shares("GOOG") != 10 || !p.Cash().IsZero() {
		t.Errorf("after rebalance: AAPL=%d GOOG=%d cash=%s, want 10/10/0",
			p.Shares("AAPL"), p.Shares("GOOG"), p.Cash())
	}
}

func TestEvaluator_RebalanceBalancedNoop(t *testing.T) {
	start := date.New(2023, 1, 2)
	m := marketOf(
		closesSeries("AAPL", start, 100),
		closesSeries("GOOG", start, 100),
	)
	doc := new(StrategyWrapper).
		Set("AAPL", StrategyConfig{Buy: sellNever(), Sell: sellNever(), Weight: 0.5}).
		Set("GOOG", StrategyConfig{Buy: sellNever(), Sell: sellNever(), Weight: 0.5})
	ev := NewEvaluator("balanced", doc)

	p := NewPortfolio(d(2000))
	p.buy("AAPL", 10, d(100))
	p.buy("GOOG", 10, d(100))

	orders, err := ev.Rebalance(p, m, start)
	if err != nil {
		t.Fatalf("Rebalance() error = %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("Rebalance() on a balanced book = %v, want no orders", orders)
	}
}
