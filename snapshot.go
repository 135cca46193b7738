package rebalance

import (
	"fmt"
	"slices"

	"github.com/etnz/rebalance/date"
)

// Holding is the aggregated position of one symbol in one account.
type Holding struct {
	Account     string
	Symbol      string
	Shares      Quantity
	MarketValue Money
}

// Price returns the value of one share, and false if the holding has no shares.
func (h Holding) Price() (Money, bool) {
	if !h.Shares.IsPositive() {
		return Money{}, false
	}
	return h.MarketValue.Div(h.Shares), true
}

// Snapshot is the per-account, per-symbol view of the holdings at a point in
// time. It is built once per run and never mutated by the engine.
type Snapshot struct {
	on       date.Date
	currency string
	holdings map[string]map[string]Holding // account -> symbol -> holding
}

// NewSnapshot builds a Snapshot from already valued holdings, such as the
// holdings section of a brokerage export. Holdings of the same account and
// symbol are added up.
func NewSnapshot(catalog *Catalog, on date.Date, currency string, holdings ...Holding) (*Snapshot, error) {
	s := &Snapshot{on: on, currency: currency, holdings: make(map[string]map[string]Holding)}
	for _, h := range holdings {
		if !catalog.Has(h.Symbol) {
			return nil, &UnknownSymbolError{Symbol: h.Symbol, Where: "holding of account " + h.Account}
		}
		if h.Shares.IsNegative() || h.MarketValue.IsNegative() {
			return nil, fmt.Errorf("account %s: holding of %s is negative (%s shares, %s)", h.Account, h.Symbol, h.Shares, h.MarketValue)
		}
		s.add(h)
	}
	return s, nil
}

// BuildSnapshot aggregates a ledger, up to and including a day, into
// holdings valued with prices. A symbol missing from prices is valued at its
// last trade price in the ledger.
func BuildSnapshot(catalog *Catalog, ledger *Ledger, on date.Date, currency string, prices map[string]Money) (*Snapshot, error) {
	for symbol := range prices {
		if !catalog.Has(symbol) {
			return nil, &UnknownSymbolError{Symbol: symbol, Where: "price list"}
		}
	}

	type key struct{ account, symbol string }
	shares := make(map[key]Quantity)
	var keys []key
	last := make(map[string]Money)
	for _, tx := range ledger.Until(on) {
		if !catalog.Has(tx.Symbol) {
			return nil, &UnknownSymbolError{Symbol: tx.Symbol, Where: fmt.Sprintf("transaction of account %s on %s", tx.Account, tx.Date)}
		}
		k := key{tx.Account, tx.Symbol}
		if _, exists := shares[k]; !exists {
			keys = append(keys, k)
		}
		shares[k] = shares[k].Add(tx.Shares)
		if p, ok := tx.UnitPrice(); ok && p.IsPositive() {
			last[tx.Symbol] = p
		}
	}

	s := &Snapshot{on: on, currency: currency, holdings: make(map[string]map[string]Holding)}
	for _, k := range keys {
		q := shares[k]
		if q.IsNegative() {
			return nil, fmt.Errorf("account %s: %s shares of %s on %s, more shares sold than bought", k.account, q, k.symbol, on)
		}
		if q.IsZero() {
			continue
		}
		price, ok := prices[k.symbol]
		if !ok {
			price, ok = last[k.symbol]
		}
		if !ok {
			return nil, fmt.Errorf("account %s: cannot value %s shares of %s, no price and no trade value", k.account, q, k.symbol)
		}
		s.add(Holding{Account: k.account, Symbol: k.symbol, Shares: q, MarketValue: price.Mul(q).Round()})
	}
	return s, nil
}

func (s *Snapshot) add(h Holding) {
	account, ok := s.holdings[h.Account]
	if !ok {
		account = make(map[string]Holding)
		s.holdings[h.Account] = account
	}
	if old, ok := account[h.Symbol]; ok {
		h.Shares = h.Shares.Add(old.Shares)
		h.MarketValue = h.MarketValue.Add(old.MarketValue)
	}
	account[h.Symbol] = h
}

// On returns the date of the snapshot.
func (s *Snapshot) On() date.Date { return s.on }

// Currency returns the currency holdings are valued in.
func (s *Snapshot) Currency() string { return s.currency }

// HasAccount reports whether the snapshot holds anything for an account.
func (s *Snapshot) HasAccount(account string) bool {
	_, ok := s.holdings[account]
	return ok
}

// Accounts returns the account identifiers in lexical order.
func (s *Snapshot) Accounts() []string {
	accounts := make([]string, 0, len(s.holdings))
	for a := range s.holdings {
		accounts = append(accounts, a)
	}
	slices.Sort(accounts)
	return accounts
}

// Holding returns the holding of a symbol in an account. The zero Holding
// (no shares, zero value) is returned if nothing is held.
func (s *Snapshot) Holding(account, symbol string) Holding {
	if h, ok := s.holdings[account][symbol]; ok {
		return h
	}
	return Holding{Account: account, Symbol: symbol, MarketValue: M(0, s.currency)}
}

// Holdings returns all the holdings of an account sorted by symbol.
func (s *Snapshot) Holdings(account string) []Holding {
	holdings := make([]Holding, 0, len(s.holdings[account]))
	for _, h := range s.holdings[account] {
		holdings = append(holdings, h)
	}
	slices.SortFunc(holdings, func(a, b Holding) int {
		switch {
		case a.Symbol < b.Symbol:
			return -1
		case a.Symbol > b.Symbol:
			return 1
		}
		return 0
	})
	return holdings
}

// MarketValue returns the value of a symbol in an account.
func (s *Snapshot) MarketValue(account, symbol string) Money {
	return s.Holding(account, symbol).MarketValue
}

// TotalValue returns the value of all the holdings of an account.
func (s *Snapshot) TotalValue(account string) Money {
	total := M(0, s.currency)
	for _, h := range s.holdings[account] {
		total = total.Add(h.MarketValue)
	}
	return total
}

// Prices returns the price derived from the holdings for each symbol.
func (s *Snapshot) Prices() map[string]Money {
	prices := make(map[string]Money)
	for _, account := range s.Accounts() {
		for _, h := range s.Holdings(account) {
			if p, ok := h.Price(); ok {
				prices[h.Symbol] = p
			}
		}
	}
	return prices
}
