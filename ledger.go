package rebalance

import (
	"fmt"
	"iter"
	"slices"

	"github.com/etnz/rebalance/date"
)

// Ledger represents the transaction history of all the accounts.
//
// In a Ledger transactions are always in chronological order.
type Ledger struct {
	transactions []Transaction
}

// NewLedger creates a ledger.
func NewLedger(txs ...Transaction) *Ledger {
	l := &Ledger{}
	l.Append(txs...)
	return l
}

// Append adds transactions, keeping the ledger sorted.
func (l *Ledger) Append(txs ...Transaction) {
	l.transactions = append(l.transactions, txs...)
	l.stableSort()
}

// Len returns the number of transactions.
func (l *Ledger) Len() int { return len(l.transactions) }

// Transactions returns an iterator over the transactions in chronological order.
func (l *Ledger) Transactions() iter.Seq2[int, Transaction] {
	return func(yield func(int, Transaction) bool) {
		for i, tx := range l.transactions {
			if !yield(i, tx) {
				return
			}
		}
	}
}

// Until returns the transactions on or before a day.
func (l *Ledger) Until(on date.Date) []Transaction {
	var txs []Transaction
	for _, tx := range l.transactions {
		if tx.Date.After(on) {
			break // sorted
		}
		txs = append(txs, tx)
	}
	return txs
}

// Accounts returns the account identifiers in the ledger, in order of appearance.
func (l *Ledger) Accounts() []string {
	var accounts []string
	for _, tx := range l.transactions {
		if !slices.Contains(accounts, tx.Account) {
			accounts = append(accounts, tx.Account)
		}
	}
	return accounts
}

// NewestTransactionDate returns the date of the latest transaction in the ledger.
func (l *Ledger) NewestTransactionDate() date.Date {
	if len(l.transactions) == 0 {
		return date.Date{}
	}
	return l.transactions[len(l.transactions)-1].Date
}

// LastPrices returns, for each symbol, the unit price of its most recent trade.
func (l *Ledger) LastPrices() map[string]Money {
	prices := make(map[string]Money)
	for _, tx := range l.transactions {
		if p, ok := tx.UnitPrice(); ok && p.IsPositive() {
			prices[tx.Symbol] = p
		}
	}
	return prices
}

// Fmt validates every transaction and returns a canonical copy of the ledger.
func (l *Ledger) Fmt() (*Ledger, error) {
	for i, tx := range l.transactions {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("invalid transaction #%d: %w", i+1, err)
		}
	}
	return NewLedger(slices.Clone(l.transactions)...), nil
}

// stableSort sorts the ledger by transaction date. The sort is stable, meaning
// transactions on the same day maintain their original relative order.
func (l *Ledger) stableSort() {
	slices.SortStableFunc(l.transactions, func(a, b Transaction) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		default:
			return 0
		}
	})
}
