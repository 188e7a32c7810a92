// Package backtest replays declarative trading strategies over historical
// daily prices. It is designed to be local-first and auditable: the market
// data lives in plain JSONL files, the strategies in a plain JSON document,
// and every simulated trade is recorded.
//
// The core functionalities include:
//   - Market Data: Date-indexed daily price series per ticker, with as-of
//     lookups and derived fields (change, percent change).
//   - Strategy Documents: A validated, order-preserving mapping from traded
//     ticker to its buy rule, sell rule and target portfolio weight.
//   - Rule Evaluation: Turning rules into concrete orders for one date, from
//     indicators (current or averaged fields) and cost-basis-aware triggers.
//   - Order Execution: Sells before buys, cash never negative, and fair
//     rationing of competing buys by a uniform scale-down ratio.
//   - Simulation: Replaying each strategy over the dates shared by every
//     tracked ticker, recording trades, warnings, valuations and snapshots.
//   - Data Persistence: Encoding and decoding market data to and from
//     human-readable, version-controllable JSONL files.
//
// This package serves as the foundational logic for the `bt` command-line
// tool, ensuring that every report derives from the same simulation core.
package backtest
