package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
)

type runCmd struct {
	capital   float64
	end       string
	rebalance string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "replay the strategies over the historical prices" }
func (*runCmd) Usage() string {
	return `bt run [-capital <amount>] [-end <date>] [-rebalance never|daily|monthly]

  Replays the strategy document over the dates shared by every tracked ticker
  and displays one report: trades, warnings, final value and monthly snapshots.

Usage Examples:
# Backtest with 50000 of initial capital, rebalancing monthly.
$ bt run -capital 50000 -rebalance monthly

`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.capital, "capital", 10000, "Initial capital of the simulated portfolio")
	f.StringVar(&c.end, "end", "", "Last simulated date (YYYY-MM-DD, defaults to the full history)")
	f.StringVar(&c.rebalance, "rebalance", "never", "Rebalancing cadence (never, daily, monthly)")
}

func (c *runCmd) simulation() (*backtest.Simulation, error) {
	m, err := DecodeMarket()
	if err != nil {
		return nil, err
	}
	doc, err := DecodeStrategies()
	if err != nil {
		return nil, err
	}

	sim := backtest.NewSimulation(m, c.capital, backtest.NewEvaluator(strategyName(), doc))
	if c.end != "" {
		end, err := date.Parse(c.end)
		if err != nil {
			return nil, err
		}
		sim.SetEnd(end)
	}
	switch c.rebalance {
	case "never":
	case "daily":
		sim.SetRebalance(backtest.RebalanceDaily)
	case "monthly":
		sim.SetRebalance(backtest.RebalanceMonthly)
	default:
		return nil, fmt.Errorf("unknown rebalancing cadence %q", c.rebalance)
	}
	return sim, nil
}

func (c *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sim, err := c.simulation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	for _, r := range sim.Run() {
		printMarkdown(renderer.ResultMarkdown(&r, *currency))
		if r.Err != nil {
			status = subcommands.ExitFailure
		}
	}
	return status
}
