package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
)

type monthlyCmd struct {
	run runCmd
}

func (*monthlyCmd) Name() string     { return "monthly" }
func (*monthlyCmd) Synopsis() string { return "display the monthly snapshots of a backtest" }
func (*monthlyCmd) Usage() string {
	return `bt monthly [-capital <amount>] [-end <date>] [-rebalance never|daily|monthly]

  Replays the strategy document and displays one row per calendar month: cash,
  total value and every position, taken on the last trading date of the month.
`
}

func (c *monthlyCmd) SetFlags(f *flag.FlagSet) {
	c.run.SetFlags(f)
}

func (c *monthlyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sim, err := c.run.simulation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	for _, r := range sim.Run() {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: strategy %q: %v\n", r.Name, r.Err)
			status = subcommands.ExitFailure
		}
		printMarkdown(renderer.SnapshotsMarkdown(r.Monthly(), *currency))
	}
	return status
}
