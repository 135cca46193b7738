package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/config"
	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/quote"
	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// kindFlag collects repeated "kind=value" flags, like -cash roth=1000.
type kindFlag map[rebalance.AccountKind]string

func (k *kindFlag) String() string {
	if k == nil || *k == nil {
		return ""
	}
	var parts []string
	for kind, v := range *k {
		parts = append(parts, kind.String()+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (k *kindFlag) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("want kind=value, got %q", v)
	}
	kind, err := rebalance.ParseAccountKind(name)
	if err != nil {
		return err
	}
	if *k == nil {
		*k = make(kindFlag)
	}
	(*k)[kind] = strings.TrimSpace(value)
	return nil
}

type planCmd struct {
	source
	cash       kindFlag
	split      kindFlag
	sweep      bool
	outside    bool
	json       bool
	outputFile string
}

// alpacaEquity returns the equity of the Alpaca account.
var alpacaEquity = func(ctx context.Context) (rebalance.Money, error) {
	return quote.NewAlpaca().Equity(ctx)
}

func (*planCmd) Name() string     { return "plan" }
func (*planCmd) Synopsis() string { return "compute the purchases that rebalance the accounts" }
func (*planCmd) Usage() string {
	return `rebal plan [-cash <kind>=<amount>]... [-split <kind>=<stock>/<bond>]... [-vanguard <download.csv> [-sweep]] [-quotes yahoo|alpaca|none] [-outside=false] [-json] [-o <file>]

  Computes a target for every fund of every configured account, places the
  riskiest funds in the Roth account, and turns the cash added to each
  account into buy orders. Nothing is ever sold.

  Accounts, their split and the cash to invest come from the configuration
  file; -cash and -split override them by account kind (brokerage, roth,
  traditional).

  Holdings outside the managed accounts, listed in the "outside" section of
  the configuration, count toward the brokerage account: its total grows by
  their value and the targets of the funds they stand for shrink by it. When
  the section is absent and Alpaca credentials are set, the Alpaca account
  equity counts as US stocks (VV, VO, VB).

Usage Examples:
# Invest 5000 in the brokerage account and 7000 in the Roth IRA.
$ rebal plan -cash brokerage=5000 -cash roth=7000

# Use a Vanguard download and also invest the settlement fund balance.
$ rebal plan -vanguard OfxDownload.csv -sweep

# Keep a copy of the plan.
$ rebal plan -o "$(date +%F)_rebalance.md"
`
}

func (c *planCmd) SetFlags(f *flag.FlagSet) {
	c.source.setFlags(f)
	f.Var(&c.cash, "cash", "Cash added to an account, as kind=amount. Repeatable.")
	f.Var(&c.split, "split", "Stock/bond split of an account, as kind=60/40. Repeatable.")
	f.BoolVar(&c.sweep, "sweep", false, "Invest the settlement fund balance of a Vanguard download too")
	f.BoolVar(&c.outside, "outside", true, "Count the holdings outside the managed accounts")
	f.BoolVar(&c.json, "json", false, "Print the plan as json")
	f.StringVar(&c.outputFile, "o", "", "Also write the plan (markdown, or json with -json) to this file")
}

func (c *planCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	accounts, err := c.accounts(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	h, err := c.load(ctx, cfg, catalog, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	if h.download != nil {
		for i, a := range accounts {
			if err := h.download.Check(a.ID); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
			sweep := h.download.Sweep[a.ID]
			switch {
			case !sweep.IsPositive():
			case c.sweep:
				accounts[i].Cash = accounts[i].Cash.Add(sweep)
			default:
				slog.Info("settlement fund balance is not invested, use -sweep to invest it", "account", a.ID, "balance", sweep)
			}
		}
	}

	var outside []rebalance.Outside
	if c.outside {
		if outside, err = resolveOutside(ctx, cfg, accounts); err != nil {
			fmt.Fprintf(os.Stderr, "Error valuing outside holdings: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	plan, err := rebalance.NewPlan(rebalance.Input{
		Catalog:  catalog,
		Snapshot: h.snapshot,
		Accounts: accounts,
		Prices:   h.prices,
		Outside:  outside,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing the plan: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, w := range plan.Warnings {
		slog.Warn(w.Error())
	}

	report := renderer.NewPlan(plan, catalog)
	var md string
	if c.json {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding the plan: %v\n", err)
			return subcommands.ExitFailure
		}
		md = string(data) + "\n"
		fmt.Fprint(stdout, md)
	} else {
		md = renderer.PlanMarkdown(report)
		printMarkdown(md)
	}
	if c.outputFile != "" {
		if err := os.WriteFile(c.outputFile, []byte(md), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing the plan: %v\n", err)
			return subcommands.ExitFailure
		}
		slog.Info("plan written", "file", c.outputFile)
	}
	return subcommands.ExitSuccess
}

// resolveOutside values the outside holdings of the configuration. Without
// any, the Alpaca account counts when its credentials are set.
func resolveOutside(ctx context.Context, cfg *config.Config, accounts []rebalance.Account) ([]rebalance.Outside, error) {
	entries := cfg.Outside
	if len(entries) == 0 && quote.HasAlpacaCredentials() {
		entries = []config.Outside{{Source: config.SourceAlpaca}}
	}
	if len(entries) == 0 {
		return nil, nil
	}
	if !slices.ContainsFunc(accounts, func(a rebalance.Account) bool { return a.Kind == rebalance.Brokerage }) {
		slog.Info("outside holdings are ignored, there is no brokerage account")
		return nil, nil
	}

	var outside []rebalance.Outside
	for _, e := range entries {
		o := rebalance.Outside{Name: e.Title(), Symbols: e.FundSymbols()}
		switch e.Source {
		case "":
			o.Value = rebalance.M(e.Value.Decimal, cfg.Currency)
		case config.SourceAlpaca:
			if cfg.Currency != "USD" {
				return nil, fmt.Errorf("%s: alpaca accounts are in USD, the configuration is in %s", o.Name, cfg.Currency)
			}
			equity, err := alpacaEquity(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", o.Name, err)
			}
			o.Value = equity
		default:
			return nil, fmt.Errorf("%s: unknown source %q, want alpaca", o.Name, e.Source)
		}
		slog.Debug("outside holdings", "name", o.Name, "value", o.Value, "symbols", o.Symbols)
		outside = append(outside, o)
	}
	return outside, nil
}

// accounts returns the configured accounts with the -cash and -split
// overrides applied.
func (c *planCmd) accounts(cfg *config.Config) ([]rebalance.Account, error) {
	accounts, err := cfg.EngineAccounts()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no account configured, add them to the configuration file")
	}
	find := func(name string, kind rebalance.AccountKind) (int, error) {
		i := slices.IndexFunc(accounts, func(a rebalance.Account) bool { return a.Kind == kind })
		if i < 0 {
			return 0, fmt.Errorf("-%s %s: no %s account in the configuration", name, kind, kind.Title())
		}
		return i, nil
	}
	for kind, v := range c.cash {
		i, err := find("cash", kind)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(v, "$"), ",", ""))
		if err != nil {
			return nil, fmt.Errorf("-cash %s: invalid amount %q", kind, v)
		}
		accounts[i].Cash = rebalance.M(amount, cfg.Currency)
	}
	for kind, v := range c.split {
		i, err := find("split", kind)
		if err != nil {
			return nil, err
		}
		if accounts[i].Split, err = rebalance.ParseSplit(v); err != nil {
			return nil, fmt.Errorf("-split %s: %w", kind, err)
		}
	}
	return accounts, nil
}
