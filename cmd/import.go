package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/vanguard"
	"github.com/google/subcommands"
)

type importCmd struct {
	skipUnknown bool
	dryRun      bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import the trades of a Vanguard download into the ledger" }
func (*importCmd) Usage() string {
	return `rebal import [-skip-unknown] [-n] <download.csv>

  Reads the transaction section of a Vanguard CSV download and appends its
  trades to the ledger. Trades already in the ledger are not added twice, so
  overlapping downloads can be imported in turn. Settlement fund movements
  are ignored.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.skipUnknown, "skip-unknown", false, "Skip trades of symbols not in the catalog instead of failing")
	f.BoolVar(&c.dryRun, "n", false, "Dry run: report what would be imported without writing the ledger")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: want exactly one Vanguard download file\n")
		return subcommands.ExitUsageError
	}
	file := f.Arg(0)

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

	r, err := os.Open(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer r.Close()
	download, err := vanguard.Decode(r, cfg.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", file, err)
		return subcommands.ExitFailure
	}
	imported, err := download.Ledger(catalog, c.skipUnknown)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	path := ledgerPath(cfg)
	ledger, err := DecodeLedger(path, cfg.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	added := merge(ledger, imported)
	fmt.Fprintf(stdout, "%d new transactions in %s, %d already in %s.\n", added, file, imported.Len()-added, path)
	if added == 0 || c.dryRun {
		return subcommands.ExitSuccess
	}

	formatted, err := ledger.Fmt()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := EncodeLedger(path, formatted); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// merge appends to l the transactions of imported it does not have yet, and
// returns how many were added. Identical trades are counted, so that two
// same-day identical purchases are both kept.
func merge(l, imported *rebalance.Ledger) int {
	key := func(tx rebalance.Transaction) string {
		return fmt.Sprintf("%s|%s|%s|%s|%s|%s", tx.Date, tx.Account, tx.Symbol, tx.Shares, tx.Amount.Decimal(), tx.Amount.Currency())
	}
	have := make(map[string]int)
	for _, tx := range l.Transactions() {
		have[key(tx)]++
	}
	var added []rebalance.Transaction
	for _, tx := range imported.Transactions() {
		k := key(tx)
		if have[k] > 0 {
			have[k]--
			continue
		}
		added = append(added, tx)
	}
	l.Append(added...)
	return len(added)
}
