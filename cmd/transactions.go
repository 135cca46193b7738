package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// appendTransaction validates a trade against the catalog and appends it to
// the ledger file.
func appendTransaction(tx rebalance.Transaction) subcommands.ExitStatus {
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
	if !catalog.Has(tx.Symbol) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", &rebalance.UnknownSymbolError{Symbol: tx.Symbol, Where: "trade"})
		return subcommands.ExitUsageError
	}
	if tx.Amount.Currency() == "" {
		tx.Amount = rebalance.M(tx.Amount.Decimal(), cfg.Currency)
	}
	if err := tx.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	filename := ledgerPath(cfg)
	// Open the file in append mode, creating it if it doesn't exist.
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger file %q: %v\n", filename, err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	if err := rebalance.EncodeTransaction(f, tx); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to ledger file %q: %v\n", filename, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(stdout, "Successfully appended transaction to %s\n", filename)
	return subcommands.ExitSuccess
}

// trade holds the flags shared by buy and sell.
type trade struct {
	date     string
	account  string
	symbol   string
	quantity float64
	price    float64
	memo     string
}

func (c *trade) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.account, "a", "", "Account identifier")
	f.StringVar(&c.symbol, "s", "", "Fund symbol")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
}

// transaction returns the trade of c, with a negative share count and
// amount when sign is negative.
func (c *trade) transaction(f *flag.FlagSet, sign int64) (rebalance.Transaction, subcommands.ExitStatus) {
	if c.account == "" || c.symbol == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return rebalance.Transaction{}, subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return rebalance.Transaction{}, subcommands.ExitUsageError
	}
	shares := decimal.NewFromFloat(c.quantity).Mul(decimal.NewFromInt(sign))
	amount := decimal.NewFromFloat(c.price).Mul(shares)
	return rebalance.Transaction{
		Date:    day,
		Account: c.account,
		Symbol:  c.symbol,
		Shares:  rebalance.Q(shares),
		Amount:  rebalance.M(amount, ""),
		Memo:    c.memo,
	}, subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct{ trade }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase of shares in the ledger" }
func (*buyCmd) Usage() string {
	return `rebal buy -a <account> -s <symbol> -q <quantity> -p <price> [-d <date>] [-m <memo>]

  Records the purchase of shares of a fund, typically an order of a
  rebalancing plan once it has been executed.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tx, status := c.transaction(f, 1)
	if status != subcommands.ExitSuccess {
		return status
	}
	return appendTransaction(tx)
}

// --- Sell Command ---

type sellCmd struct{ trade }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale of shares in the ledger" }
func (*sellCmd) Usage() string {
	return `rebal sell -a <account> -s <symbol> -q <quantity> -p <price> [-d <date>] [-m <memo>]

  Records the sale of shares of a fund. Rebalancing plans never sell, but
  withdrawals do.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tx, status := c.transaction(f, -1)
	if status != subcommands.ExitSuccess {
		return status
	}
	return appendTransaction(tx)
}
