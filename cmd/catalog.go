package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

type catalogCmd struct{}

func (*catalogCmd) Name() string     { return "catalog" }
func (*catalogCmd) Synopsis() string { return "list the funds allocated to, riskiest first" }
func (*catalogCmd) Usage() string {
	return `rebal catalog

  Lists the funds of the catalog with their asset class, weight within the
  class and risk rank, in the order used to fill the Roth account. Funds held
  according to the ledger are marked.
`
}

func (*catalogCmd) SetFlags(f *flag.FlagSet) {}

func (*catalogCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	// held marks are a bonus: a broken ledger does not prevent the listing.
	var snapshot *rebalance.Snapshot
	if l, err := DecodeLedger(ledgerPath(cfg), cfg.Currency); err == nil {
		snapshot, err = rebalance.BuildSnapshot(catalog, knownOnly(catalog, l), date.Today(), cfg.Currency, nil)
		if err != nil {
			slog.Debug("cannot mark held funds", "error", err)
		}
	}

	printMarkdown(renderer.CatalogMarkdown(catalog, snapshot))
	return subcommands.ExitSuccess
}
