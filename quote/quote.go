// Package quote provides the current price of catalog symbols.
//
// The rebalancing engine never fetches anything: prices are looked up before
// a run, with a Provider, and handed to it in memory.
package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/etnz/rebalance"
)

// ErrNoPrice is returned by a Provider that has no price for a symbol.
var ErrNoPrice = errors.New("no price")

// Provider returns the current price of one share of a symbol.
type Provider interface {
	Price(ctx context.Context, symbol string) (rebalance.Money, error)
}

// Static is a Provider backed by a fixed price list.
type Static map[string]rebalance.Money

func (s Static) Price(_ context.Context, symbol string) (rebalance.Money, error) {
	p, ok := s[symbol]
	if !ok {
		return rebalance.Money{}, fmt.Errorf("%s: %w", symbol, ErrNoPrice)
	}
	return p, nil
}

// FromLedger returns the price of the last trade of each symbol in a ledger.
func FromLedger(l *rebalance.Ledger) Static { return Static(l.LastPrices()) }

// Chain tries each Provider in turn and returns the first price found.
type Chain []Provider

func (c Chain) Price(ctx context.Context, symbol string) (rebalance.Money, error) {
	var errs []error
	for _, p := range c {
		m, err := p.Price(ctx, symbol)
		if err == nil {
			return m, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return rebalance.Money{}, fmt.Errorf("%s: %w", symbol, ErrNoPrice)
	}
	return rebalance.Money{}, errors.Join(errs...)
}

// Fill returns a copy of prices completed with a price for every catalog
// symbol it misses. Only missing symbols are fetched.
//
// A symbol the provider cannot price is logged and left out: the engine then
// plans its purchase in dollars and warns about it. Fill only fails when ctx
// is done.
func Fill(ctx context.Context, p Provider, catalog *rebalance.Catalog, prices map[string]rebalance.Money) (map[string]rebalance.Money, error) {
	filled := make(map[string]rebalance.Money, catalog.Len())
	for symbol, m := range prices {
		filled[symbol] = m
	}
	for _, symbol := range catalog.Symbols() {
		if m, ok := filled[symbol]; ok && m.IsPositive() {
			continue
		}
		m, err := p.Price(ctx, symbol)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetching price of %s: %w", symbol, ctxErr)
		}
		if err != nil {
			slog.Warn("no current price", "symbol", symbol, "error", err)
			continue
		}
		slog.Debug("fetched price", "symbol", symbol, "price", m)
		filled[symbol] = m
	}
	return filled, nil
}
