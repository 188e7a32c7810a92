package backtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// This file models the declarative strategy document: a mapping from traded
// ticker to its buy rule, sell rule and portfolio weight. The document is data,
// not code: every mode is an enum-tagged value validated at decode time, so a
// malformed document fails fast with a SchemaError naming the offending field.
//
// The wire format is the original pair-encoded one:
//
//	{
//	  "AAPL": {
//	    "buy":  {"ticker": "AAPL", "by": ["current", "Close"], "period": false,
//	             "criteria": ["percent-change", -0.5], "quantity": ["count", 10],
//	             "trade_as": "Close"},
//	    "sell": {...},
//	    "portfolio_weight": 0.5
//	  }
//	}

// IndicatorMode selects how the indicator value is derived from the series.
type IndicatorMode string

const (
	Current IndicatorMode = "current" // the field's value on the last row
	Average IndicatorMode = "average" // the mean of the field over the window
)

// Indicator is the signal source of a rule: an aggregation mode over a field.
type Indicator struct {
	Mode  IndicatorMode
	Field Field
}

// ThresholdKind selects how the trigger baseline is derived.
type ThresholdKind string

const (
	// PercentChange uses the threshold value as an absolute target for the
	// field, ignoring the cost basis.
	PercentChange ThresholdKind = "percent-change"
	// Point offsets the cost basis by the threshold value.
	Point ThresholdKind = "point"
	// ProfitRate scales the cost basis by (100+value)/100.
	ProfitRate ThresholdKind = "profit-rate"
	// TargetValue uses the threshold value as an absolute target, like
	// PercentChange but intended for price-level fields.
	TargetValue ThresholdKind = "value"
)

// Threshold is the trigger condition of a rule. The sign of Value doubles as
// the trigger direction: a value ≤ 0 fires when the indicator falls to or
// below the baseline, a value > 0 fires when it rises to or above it.
type Threshold struct {
	Kind  ThresholdKind
	Value float64
}

// QuantityMode selects how the order quantity is resolved.
type QuantityMode string

const (
	Count     QuantityMode = "count"   // literal share count
	Percent   QuantityMode = "percent" // percent of the held position
	CashValue QuantityMode = "value"   // target cash amount divided by price
	Split     QuantityMode = "split"   // weighted 1/N slice of initial capital
)

// OrderSize is the quantity clause of a rule.
type OrderSize struct {
	Mode  QuantityMode
	Value float64
}

// TradeAction is one buy or sell rule.
//
// Ticker is the reference series the signal is computed from; it may differ
// from the traded ticker (trade B on A's signal). Empty means the traded
// ticker. A Window of 0 means the full history.
type TradeAction struct {
	Ticker     string
	Indicator  Indicator
	Window     int
	Threshold  Threshold
	Quantity   OrderSize
	PricePoint Field // execution price field, defaults to Close
}

// StrategyConfig pairs the buy and sell rules of one traded ticker with its
// target allocation weight (used only by rebalancing).
type StrategyConfig struct {
	Buy    TradeAction
	Sell   TradeAction
	Weight float64
}

// StrategyWrapper is the whole strategy document. It preserves the document's
// key order, so order evaluation is deterministic.
type StrategyWrapper struct {
	tickers []string
	configs map[string]StrategyConfig
}

// Len returns the number of traded tickers in the document.
func (w *StrategyWrapper) Len() int { return len(w.tickers) }

// Tickers returns the traded tickers in document order.
func (w *StrategyWrapper) Tickers() []string { return w.tickers }

// Config returns the configuration of a traded ticker.
func (w *StrategyWrapper) Config(ticker string) (StrategyConfig, bool) {
	c, ok := w.configs[ticker]
	return c, ok
}

// Set adds or replaces the configuration of a traded ticker, appending new
// tickers at the end of the document order.
func (w *StrategyWrapper) Set(ticker string, cfg StrategyConfig) *StrategyWrapper {
	if w.configs == nil {
		w.configs = make(map[string]StrategyConfig)
	}
	if _, ok := w.configs[ticker]; !ok {
		w.tickers = append(w.tickers, ticker)
	}
	w.configs[ticker] = cfg
	return w
}

// DecodeStrategies reads and validates a strategy document.
func DecodeStrategies(r io.Reader) (*StrategyWrapper, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading strategy document: %w", err)
	}
	w := new(StrategyWrapper)
	if err := w.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return w, nil
}

// --- wire decoding ---

// schemaErr builds a SchemaError for a dotted field path.
func schemaErr(field, format string, args ...any) *SchemaError {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// prefixed re-roots a SchemaError under an outer field. Other errors pass through.
func prefixed(err error, outer string) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SchemaError); ok {
		field := outer
		if se.Field != "" {
			field = outer + "." + se.Field
		}
		return &SchemaError{Field: field, Reason: se.Reason}
	}
	return err
}

// decodePair decodes a ["kind", value] wire pair.
func decodePair(raw json.RawMessage, field string) (kind string, value float64, err error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return "", 0, schemaErr(field, "want a [kind, value] pair")
	}
	if err := json.Unmarshal(pair[0], &kind); err != nil {
		return "", 0, schemaErr(field, "kind must be a string")
	}
	if err := json.Unmarshal(pair[1], &value); err != nil {
		return "", 0, schemaErr(field, "value must be a number")
	}
	return kind, value, nil
}

func (a *TradeAction) UnmarshalJSON(raw []byte) error {
	// local wire struct with tag annotations, per the persistence idiom.
	type jaction struct {
		Ticker   string          `json:"ticker"`
		By       []string        `json:"by"`
		Period   json.RawMessage `json:"period"`
		Criteria json.RawMessage `json:"criteria"`
		Quantity json.RawMessage `json:"quantity"`
		TradeAs  string          `json:"trade_as"`
	}
	var ja jaction
	if err := json.Unmarshal(raw, &ja); err != nil {
		return schemaErr("", "not a rule object: %v", err)
	}
	a.Ticker = ja.Ticker

	if len(ja.By) != 2 {
		return schemaErr("by", "want [mode, field]")
	}
	switch IndicatorMode(ja.By[0]) {
	case Current, Average:
		a.Indicator.Mode = IndicatorMode(ja.By[0])
	default:
		return schemaErr("by", "unknown indicator mode %q", ja.By[0])
	}
	f, err := ParseField(ja.By[1])
	if err != nil {
		return schemaErr("by", "%v", err)
	}
	a.Indicator.Field = f

	// period is either false (full history) or a positive day count.
	a.Window = 0
	if len(ja.Period) > 0 && !bytes.Equal(ja.Period, []byte("false")) && !bytes.Equal(ja.Period, []byte("null")) {
		var days int
		if err := json.Unmarshal(ja.Period, &days); err != nil || days < 1 {
			return schemaErr("period", "want false or a positive day count")
		}
		a.Window = days
	}

	kind, value, err := decodePair(ja.Criteria, "criteria")
	if err != nil {
		return err
	}
	switch ThresholdKind(kind) {
	case PercentChange, Point, ProfitRate, TargetValue:
		a.Threshold = Threshold{Kind: ThresholdKind(kind), Value: value}
	default:
		return schemaErr("criteria", "unknown threshold kind %q", kind)
	}

	kind, value, err = decodePair(ja.Quantity, "quantity")
	if err != nil {
		return err
	}
	switch QuantityMode(kind) {
	case Count, Percent, CashValue, Split:
		a.Quantity = OrderSize{Mode: QuantityMode(kind), Value: value}
	default:
		return schemaErr("quantity", "unknown quantity mode %q", kind)
	}
	if a.Quantity.Value < 0 {
		return schemaErr("quantity", "value must not be negative")
	}
	if a.Quantity.Mode == Split && a.Quantity.Value < 1 {
		return schemaErr("quantity", "split wants at least 1 slice")
	}

	a.PricePoint = Close
	if ja.TradeAs != "" {
		f, err := ParseField(ja.TradeAs)
		if err != nil {
			return schemaErr("trade_as", "%v", err)
		}
		switch f {
		case Open, High, Low, Close:
			a.PricePoint = f
		default:
			return schemaErr("trade_as", "%q is not a price field", ja.TradeAs)
		}
	}
	return nil
}

func (a TradeAction) MarshalJSON() ([]byte, error) {
	type jaction struct {
		Ticker   string `json:"ticker,omitempty"`
		By       []any  `json:"by"`
		Period   any    `json:"period"`
		Criteria []any  `json:"criteria"`
		Quantity []any  `json:"quantity"`
		TradeAs  string `json:"trade_as"`
	}
	var period any = false
	if a.Window > 0 {
		period = a.Window
	}
	tradeAs := a.PricePoint
	if tradeAs == "" {
		tradeAs = Close
	}
	return json.Marshal(jaction{
		Ticker:   a.Ticker,
		By:       []any{a.Indicator.Mode, a.Indicator.Field},
		Period:   period,
		Criteria: []any{a.Threshold.Kind, a.Threshold.Value},
		Quantity: []any{a.Quantity.Mode, a.Quantity.Value},
		TradeAs:  string(tradeAs),
	})
}

func (c *StrategyConfig) UnmarshalJSON(raw []byte) error {
	type jconfig struct {
		Buy    json.RawMessage `json:"buy"`
		Sell   json.RawMessage `json:"sell"`
		Weight *float64        `json:"portfolio_weight"`
	}
	var jc jconfig
	if err := json.Unmarshal(raw, &jc); err != nil {
		return schemaErr("", "not a strategy object: %v", err)
	}
	if jc.Buy == nil {
		return schemaErr("buy", "missing buy rule")
	}
	if jc.Sell == nil {
		return schemaErr("sell", "missing sell rule")
	}
	if err := prefixed(c.Buy.UnmarshalJSON(jc.Buy), "buy"); err != nil {
		return err
	}
	if err := prefixed(c.Sell.UnmarshalJSON(jc.Sell), "sell"); err != nil {
		return err
	}
	if jc.Weight != nil {
		if *jc.Weight < 0 || *jc.Weight > 1 {
			return schemaErr("portfolio_weight", "want a fraction in [0,1], got %v", *jc.Weight)
		}
		c.Weight = *jc.Weight
	}
	return nil
}

func (c StrategyConfig) MarshalJSON() ([]byte, error) {
	type jconfig struct {
		Buy    TradeAction `json:"buy"`
		Sell   TradeAction `json:"sell"`
		Weight float64     `json:"portfolio_weight"`
	}
	return json.Marshal(jconfig{Buy: c.Buy, Sell: c.Sell, Weight: c.Weight})
}

// UnmarshalJSON decodes the whole document, preserving key order.
func (w *StrategyWrapper) UnmarshalJSON(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return schemaErr("", "not a strategy document: %v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return schemaErr("", "want a ticker to strategy mapping")
	}
	w.tickers = nil
	w.configs = make(map[string]StrategyConfig)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return schemaErr("", "truncated document: %v", err)
		}
		ticker := keyTok.(string)
		if _, dup := w.configs[ticker]; dup {
			return schemaErr(ticker, "duplicate ticker")
		}
		var cfg StrategyConfig
		if err := dec.Decode(&cfg); err != nil {
			return prefixed(err, ticker)
		}
		w.Set(ticker, cfg)
	}
	return nil
}

// MarshalJSON encodes the document in its canonical form, preserving order.
func (w *StrategyWrapper) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ticker := range w.tickers {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ticker)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(w.configs[ticker])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
