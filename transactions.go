package rebalance

import (
	"fmt"

	"github.com/etnz/rebalance/date"
)

// Transaction is one trade of the transaction history: a change of the number
// of shares of a symbol in an account.
//
// Shares is the signed delta (positive for a buy or a reinvested dividend,
// negative for a sale) and Amount is the signed trade value, with the same
// sign as Shares.
type Transaction struct {
	Date    date.Date
	Account string
	Symbol  string
	Shares  Quantity
	Amount  Money
	Memo    string
}

// NewTrade creates a transaction from a signed share count and its total value.
func NewTrade(on date.Date, account, symbol string, shares float64, amount Money) Transaction {
	return Transaction{Date: on, Account: account, Symbol: symbol, Shares: Q(shares), Amount: amount}
}

// UnitPrice returns the price per share of the trade, and false if the
// trade has no shares.
func (tx Transaction) UnitPrice() (Money, bool) {
	if tx.Shares.IsZero() {
		return Money{}, false
	}
	return tx.Amount.Abs().Div(Quantity{value: tx.Shares.value.Abs()}), true
}

// Validate checks that the transaction is self consistent.
func (tx Transaction) Validate() error {
	switch {
	case tx.Date.IsZero():
		return fmt.Errorf("transaction has no date")
	case tx.Account == "":
		return fmt.Errorf("transaction on %s has no account", tx.Date)
	case tx.Symbol == "":
		return fmt.Errorf("transaction on %s in account %s has no symbol", tx.Date, tx.Account)
	case tx.Shares.IsZero():
		return fmt.Errorf("transaction on %s for %s has no shares", tx.Date, tx.Symbol)
	case tx.Amount.IsNegative() != tx.Shares.IsNegative() && !tx.Amount.IsZero():
		return fmt.Errorf("transaction on %s for %s: shares %s and amount %s have opposite signs", tx.Date, tx.Symbol, tx.Shares, tx.Amount)
	}
	return nil
}
