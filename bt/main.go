package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/backtest/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// install or answer shell completion requests, then return immediately
	// when invoked by the shell.
	completion().Complete("bt")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() *complete.Command {
	runFlags := map[string]complete.Predictor{
		"capital":   predict.Something,
		"end":       predict.Something,
		"rebalance": predict.Set{"never", "daily", "monthly"},
	}
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"market-path":     predict.Dirs("*"),
			"strategies-file": predict.Files("*.json"),
			"currency":        predict.Something,
		},
		Sub: map[string]*complete.Command{
			"run":     {Flags: runFlags},
			"monthly": {Flags: runFlags},
			"assist":  {Flags: runFlags},
			"fetch": {Flags: map[string]complete.Predictor{
				"from": predict.Something,
				"to":   predict.Something,
			}},
			"fmt": {Flags: map[string]complete.Predictor{
				"w": predict.Nothing,
			}},
			"topic": {Args: predict.Set{"readme", "strategies", "market", "rebalancing"}},
		},
	}
}
