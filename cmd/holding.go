package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	source
	json bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the holdings of every account for a specific date" }
func (*holdingCmd) Usage() string {
	return `rebal holding [-d <date>] [-vanguard <download.csv>] [-quotes yahoo|alpaca|none] [-json]

  Displays the shares and market value of every fund held, per account, on
  a given date. Holdings are aggregated from the ledger, or read from a
  Vanguard download.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	c.source.setFlags(f)
	f.BoolVar(&c.json, "json", false, "Print the holdings as json")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in the fund catalog: %v\n", err)
		return subcommands.ExitFailure
	}

	h, err := c.load(ctx, cfg, catalog, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading holdings: %v\n", err)
		return subcommands.ExitFailure
	}

	report := renderer.NewHolding(h.snapshot, catalog)
	if c.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding holdings: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.HoldingMarkdown(report))
	return subcommands.ExitSuccess
}
