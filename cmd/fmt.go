package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type fmtCmd struct {
	outputFile string
}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `rebal fmt [-o <file>]

  Validates and formats the ledger file. This command reads all transactions,
  validates them, sorts them by date, and writes them back in a canonical
  JSONL format. By default, the ledger is formatted in-place.

Usage Examples:
# Writes to the default ledger file.
$ rebal fmt

`
}

func (p *fmtCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.outputFile, "o", "", "Write the formatted ledger to this file instead of in-place.")
}

func (p *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	path := ledgerPath(cfg)
	ledger, err := DecodeLedger(path, cfg.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	formatted, err := ledger.Fmt()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting ledger %q: %v\n", path, err)
		return subcommands.ExitFailure
	}

	output := path
	if p.outputFile != "" {
		output = p.outputFile
	}
	if err := EncodeLedger(output, formatted); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving formatted ledger %q: %v\n", output, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Formatted %d transactions into %s.\n", formatted.Len(), output)
	return subcommands.ExitSuccess
}
