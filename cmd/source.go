package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/config"
	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/quote"
	"github.com/etnz/rebalance/vanguard"
)

// source holds the flags selecting where holdings are read from and how
// they are priced. It is shared by the commands that need holdings.
type source struct {
	date        string
	vanguard    string
	quotes      string
	skipUnknown bool
}

func (s *source) setFlags(f *flag.FlagSet) {
	f.StringVar(&s.date, "d", date.Today().String(), "Date of the holdings. Current prices are only fetched for today.")
	f.StringVar(&s.vanguard, "vanguard", "", "Read holdings from a Vanguard CSV download instead of the ledger")
	f.StringVar(&s.quotes, "quotes", "", "Source of current prices: yahoo, alpaca or none (default from the configuration, or yahoo)")
	f.BoolVar(&s.skipUnknown, "skip-unknown", false, "Skip positions and trades of symbols not in the catalog instead of failing")
}

// holdings is what the reports need.
type holdings struct {
	snapshot *rebalance.Snapshot
	prices   map[string]rebalance.Money // of catalog symbols, possibly incomplete
	download *vanguard.Download         // nil when read from the ledger
}

// load reads the holdings on a day and fetches the current prices.
func (s *source) load(ctx context.Context, cfg *config.Config, catalog *rebalance.Catalog, on date.Date) (*holdings, error) {
	if s.vanguard != "" {
		return s.loadVanguard(ctx, cfg, catalog, on)
	}

	l, err := DecodeLedger(ledgerPath(cfg), cfg.Currency)
	if err != nil {
		return nil, err
	}
	if s.skipUnknown {
		l = knownOnly(catalog, l)
	}
	last := catalogOnly(catalog, rebalance.NewLedger(l.Until(on)...).LastPrices())
	p, err := s.provider(cfg, on, quote.Static(last))
	if err != nil {
		return nil, err
	}
	prices, err := quote.Fill(ctx, p, catalog, nil)
	if err != nil {
		return nil, err
	}
	snapshot, err := rebalance.BuildSnapshot(catalog, l, on, cfg.Currency, prices)
	if err != nil {
		return nil, err
	}
	return &holdings{snapshot: snapshot, prices: prices}, nil
}

func (s *source) loadVanguard(ctx context.Context, cfg *config.Config, catalog *rebalance.Catalog, on date.Date) (*holdings, error) {
	f, err := os.Open(s.vanguard)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := vanguard.Decode(f, cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.vanguard, err)
	}
	snapshot, err := d.Snapshot(catalog, on, s.skipUnknown)
	if err != nil {
		return nil, err
	}
	known := catalogOnly(catalog, d.Prices())
	p, err := s.provider(cfg, on, quote.Static(known))
	if err != nil {
		return nil, err
	}
	prices, err := quote.Fill(ctx, p, catalog, known)
	if err != nil {
		return nil, err
	}
	return &holdings{snapshot: snapshot, prices: prices, download: d}, nil
}

// provider returns the quote provider selected by -quotes, falling back on
// the prices already known.
func (s *source) provider(cfg *config.Config, on date.Date, fallback quote.Static) (quote.Provider, error) {
	name := s.quotes
	if name == "" {
		name = cfg.Quotes
	}
	if name == "" {
		name = "yahoo"
	}
	switch name {
	case "none", "yahoo":
	case "alpaca":
		if cfg.Currency != "USD" {
			return nil, fmt.Errorf("alpaca quotes are in USD, the portfolio is in %s", cfg.Currency)
		}
	default:
		return nil, fmt.Errorf("invalid quote source %q, want yahoo, alpaca or none", name)
	}
	if name != "none" && on != date.Today() {
		slog.Debug("not fetching current prices for a past day", "date", on)
		name = "none"
	}

	var online quote.Provider
	switch name {
	case "yahoo":
		online = quote.NewCached(quote.NewYahoo(cfg.Currency), time.Hour, 200*time.Millisecond, 5)
	case "alpaca":
		// the free plan allows 200 requests a minute.
		online = quote.NewCached(quote.NewAlpaca(), time.Hour, 300*time.Millisecond, 5)
	default:
		return fallback, nil
	}
	return quote.Chain{online, fallback}, nil
}

// catalogOnly returns the prices of catalog symbols.
func catalogOnly(catalog *rebalance.Catalog, prices map[string]rebalance.Money) map[string]rebalance.Money {
	known := make(map[string]rebalance.Money, len(prices))
	for symbol, p := range prices {
		if catalog.Has(symbol) {
			known[symbol] = p
		}
	}
	return known
}

// knownOnly returns the ledger without the transactions of symbols absent
// from the catalog.
func knownOnly(catalog *rebalance.Catalog, l *rebalance.Ledger) *rebalance.Ledger {
	var txs []rebalance.Transaction
	for _, tx := range l.Transactions() {
		if !catalog.Has(tx.Symbol) {
			slog.Warn("skipping transaction not in the catalog", "account", tx.Account, "symbol", tx.Symbol, "date", tx.Date)
			continue
		}
		txs = append(txs, tx)
	}
	return rebalance.NewLedger(txs...)
}
