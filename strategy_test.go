package backtest

import (
	"errors"
	"strings"
	"testing"
)

const sampleDoc = `{
  "MSFT": {
    "buy":  {"ticker": "MSFT", "by": ["current", "Change_Pct"], "period": false,
             "criteria": ["percent-change", -0.5], "quantity": ["count", 10], "trade_as": "Close"},
    "sell": {"ticker": "MSFT", "by": ["current", "Close"], "period": false,
             "criteria": ["profit-rate", 10], "quantity": ["percent", 100], "trade_as": "Close"},
    "portfolio_weight": 0.5
  },
  "AAPL": {
    "buy":  {"by": ["average", "Close"], "period": 20,
             "criteria": ["value", -150], "quantity": ["split", 4], "trade_as": "Open"},
    "sell": {"by": ["current", "Close"], "period": false,
             "criteria": ["point", 30], "quantity": ["percent", 50]},
    "portfolio_weight": 0.5
  }
}`

func TestDecodeStrategies(t *testing.T) {
	w, err := DecodeStrategies(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("DecodeStrategies() error = %v", err)
	}
	if w.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", w.Len())
	}
	// document order is preserved, not alphabetical
	if got := w.Tickers(); got[0] != "MSFT" || got[1] != "AAPL" {
		t.Errorf("Tickers() = %v, want [MSFT AAPL]", got)
	}

	msft, ok := w.Config("MSFT")
	if !ok {
		t.Fatalf("Config(MSFT) not found")
	}
	if msft.Buy.Indicator != (Indicator{Mode: Current, Field: ChangePct}) {
		t.Errorf("MSFT buy indicator = %+v", msft.Buy.Indicator)
	}
	if msft.Buy.Threshold != (Threshold{Kind: PercentChange, Value: -0.5}) {
		t.Errorf("MSFT buy threshold = %+v", msft.Buy.Threshold)
	}
	if msft.Sell.Quantity != (OrderSize{Mode: Percent, Value: 100}) {
		t.Errorf("MSFT sell quantity = %+v", msft.Sell.Quantity)
	}
	if msft.Weight != 0.5 {
		t.Errorf("MSFT weight = %v, want 0.5", msft.Weight)
	}

	aapl, _ := w.Config("AAPL")
	if aapl.Buy.Ticker != "" {
		t.Errorf("AAPL buy reference ticker = %q, want empty (trade the signal's ticker)", aapl.Buy.Ticker)
	}
	if aapl.Buy.Window != 20 {
		t.Errorf("AAPL buy window = %d, want 20", aapl.Buy.Window)
	}
	if aapl.Buy.PricePoint != Open {
		t.Errorf("AAPL buy price point = %q, want Open", aapl.Buy.PricePoint)
	}
	// trade_as defaults to Close
	if aapl.Sell.PricePoint != Close {
		t.Errorf("AAPL sell price point = %q, want Close", aapl.Sell.PricePoint)
	}
}

func TestDecodeStrategies_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			"unknown threshold kind",
			`{"AAPL": {"buy": {"by": ["current", "Close"], "period": false,
				"criteria": ["sideways", 1], "quantity": ["count", 1], "trade_as": "Close"},
				"sell": {"by": ["current", "Close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"}}}`,
			"AAPL.buy.criteria",
		},
		{
			"missing sell rule",
			`{"AAPL": {"buy": {"by": ["current", "Close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"}}}`,
			"AAPL.sell",
		},
		{
			"bad indicator field",
			`{"AAPL": {"buy": {"by": ["current", "close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"},
				"sell": {"by": ["current", "Close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"}}}`,
			"AAPL.buy.by",
		},
		{
			"derived field as execution price",
			`{"AAPL": {"buy": {"by": ["current", "Close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Change_Pct"},
				"sell": {"by": ["current", "Close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"}}}`,
			"AAPL.buy.trade_as",
		},
		{
			"negative period",
			`{"AAPL": {"buy": {"by": ["average", "Close"], "period": -3,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"},
				"sell": {"by": ["current", "Close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"}}}`,
			"AAPL.buy.period",
		},
		{
			"weight out of range",
			`{"AAPL": {"buy": {"by": ["current", "Close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"},
				"sell": {"by": ["current", "Close"], "period": false,
				"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"},
				"portfolio_weight": 1.5}}`,
			"AAPL.portfolio_weight",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStrategies(strings.NewReader(tt.doc))
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("DecodeStrategies() error = %v, want SchemaError", err)
			}
			if se.Field != tt.field {
				t.Errorf("SchemaError.Field = %q, want %q", se.Field, tt.field)
			}
		})
	}
}

func TestDecodeStrategies_DuplicateTicker(t *testing.T) {
	doc := `{
		"AAPL": {"buy": {"by": ["current", "Close"], "period": false,
			"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"},
			"sell": {"by": ["current", "Close"], "period": false,
			"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"}},
		"AAPL": {"buy": {"by": ["current", "Close"], "period": false,
			"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"},
			"sell": {"by": ["current", "Close"], "period": false,
			"criteria": ["point", 1], "quantity": ["count", 1], "trade_as": "Close"}}
	}`
	_, err := DecodeStrategies(strings.NewReader(doc))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("DecodeStrategies() error = %v, want SchemaError", err)
	}
	if se.Field != "AAPL" {
		t.Errorf("SchemaError.Field = %q, want AAPL", se.Field)
	}
}

func TestStrategyWrapper_MarshalRoundtrip(t *testing.T) {
	w, err := DecodeStrategies(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("DecodeStrategies() error = %v", err)
	}
	raw, err := w.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	again, err := DecodeStrategies(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("DecodeStrategies(marshalled) error = %v", err)
	}
	if got, want := again.Tickers(), w.Tickers(); len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("roundtrip ticker order = %v, want %v", got, want)
	}
	a1, _ := w.Config("AAPL")
	a2, _ := again.Config("AAPL")
	if a1 != a2 {
		t.Errorf("roundtrip config = %+v, want %+v", a2, a1)
	}
}
