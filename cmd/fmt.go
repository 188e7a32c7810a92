package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type fmtCmd struct {
	write bool
}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the strategy document into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `bt fmt [-w]

  Validates the strategy document and prints it back in a canonical, indented
  JSON form: ticker order preserved, defaults made explicit. With -w the file
  is rewritten in place instead.

Usage Examples:
# Check the default strategies file and print its canonical form.
$ bt fmt

`
}

func (p *fmtCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.write, "w", false, "Write the canonical form back to the strategies file.")
}

func (p *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	doc, err := DecodeStrategies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	raw, err := doc.MarshalJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding strategies: %v\n", err)
		return subcommands.ExitFailure
	}
	var pretty json.RawMessage = raw
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting strategies: %v\n", err)
		return subcommands.ExitFailure
	}
	out = append(out, '\n')

	if !p.write {
		os.Stdout.Write(out)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(*strategiesFile, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing strategies file: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "✅ Successfully formatted %s.\n", *strategiesFile)
	return subcommands.ExitSuccess
}
