package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/backtest/agent"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// AssistCmd is the subcommand for the AI assistant.
type AssistCmd struct {
	run runCmd
}

// Name returns the name of the command.
func (*AssistCmd) Name() string { return "assist" }

// Synopsis returns a short-one line synopsis of the command.
func (*AssistCmd) Synopsis() string { return "Start an interactive session with the AI assistant." }

// Usage returns a long-form usage string.
func (*AssistCmd) Usage() string {
	return `assist [question...]:
  Start an interactive session with the AI assistant. It reads the strategy
  document, replays it over the market data, and discusses the results.
  Requires a Gemini API key in the GEMINI_API_KEY environment variable.
`
}

// SetFlags sets the flags for the command.
func (c *AssistCmd) SetFlags(f *flag.FlagSet) {
	c.run.SetFlags(f)
}

// Execute executes the command.
func (c *AssistCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	trader := agent.NewTrader()
	quant := agent.NewQuant(
		agent.NewStrategiesTool(c.readStrategies),
		agent.NewReportTool(c.report),
	)
	a := agent.New(os.Stdout, os.Stdin, trader, quant)

	if err := a.Run(ctx, client, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// readStrategies returns the canonical strategy document for the Quant.
func (c *AssistCmd) readStrategies() (string, error) {
	doc, err := DecodeStrategies()
	if err != nil {
		return "", err
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// report replays the strategies and returns the markdown reports for the Quant.
func (c *AssistCmd) report() (string, error) {
	sim, err := c.run.simulation()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, r := range sim.Run() {
		b.WriteString(renderer.ResultMarkdown(&r, *currency))
		b.WriteString("\n")
	}
	return b.String(), nil
}
