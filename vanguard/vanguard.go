// Package vanguard decodes the CSV file downloaded from a Vanguard account
// ("Download center", CSV format).
//
// The file has two sections, each starting with its own header row:
//
//	Account Number,Investment Name,Symbol,Shares,Share Price,Total Value,
//	12345678,VANGUARD LARGE-CAP ETF,VV,10.5,250.12,2626.26,
//	...
//	Account Number,Trade Date,Settlement Date,Transaction Type,Transaction Description,Investment Name,Symbol,Shares,Share Price,Principal Amount,Commissions and Fees,Net Amount,Accrued Interest,Account Type,
//	12345678,2025-01-02,2025-01-03,Buy,Buy,VANGUARD LARGE-CAP ETF,VV,10.5,250.12,-2626.26,0.0,-2626.26,0.0,CASH,
//
// Columns are matched by header name, so their order does not matter.
package vanguard

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/shopspring/decimal"
)

// SettlementFunds are money market funds Vanguard uses as the cash sweep of
// an account. They are not part of any allocation.
var SettlementFunds = []string{"VMFXX", "VMRXX", "VUSXX"}

// Position is one row of the holdings section.
type Position struct {
	Account string
	Name    string
	Symbol  string
	Shares  rebalance.Quantity
	Price   rebalance.Money
	Value   rebalance.Money
}

// Download is the decoded content of a Vanguard CSV download.
type Download struct {
	Currency     string
	Positions    []Position                 // invested positions, settlement funds excluded
	Sweep        map[string]rebalance.Money // settlement fund value per account
	Transactions []rebalance.Transaction    // trades, in file order
	accounts     []string
}

// AccountNotFoundError is returned when an account is not in the download.
type AccountNotFoundError struct {
	Account string
	Found   []string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %s not found in the Vanguard download, found accounts: %s", e.Account, strings.Join(e.Found, ", "))
}

// section of the file being read.
type section int

const (
	none section = iota
	holdings
	transactions
)

// Decode reads a Vanguard CSV download. Amounts are in currency.
func Decode(r io.Reader, currency string) (*Download, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	d := &Download{Currency: currency, Sweep: make(map[string]rebalance.Money)}
	current := none
	var header map[string]int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read Vanguard download: %w", err)
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		if strings.TrimSpace(record[0]) == "Account Number" {
			header = columns(record)
			current = holdings
			if _, ok := header["Trade Date"]; ok {
				current = transactions
			}
			continue
		}

		rec := row{record: record, header: header}
		switch current {
		case holdings:
			err = d.addPosition(rec)
		case transactions:
			err = d.addTransaction(rec)
		default:
			// preamble before the first header.
			continue
		}
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return d, nil
}

func (d *Download) addAccount(account string) {
	if !slices.Contains(d.accounts, account) {
		d.accounts = append(d.accounts, account)
	}
}

func (d *Download) addPosition(r row) error {
	account, symbol := r.get("Account Number"), r.get("Symbol")
	if account == "" {
		return nil
	}
	d.addAccount(account)
	if len(symbol) < 2 {
		// cash rows have no symbol.
		return nil
	}
	shares, err := r.decimal("Shares")
	if err != nil {
		return err
	}
	price, err := r.decimal("Share Price")
	if err != nil {
		return err
	}
	value, err := r.decimal("Total Value")
	if err != nil {
		return err
	}
	if slices.Contains(SettlementFunds, symbol) {
		d.Sweep[account] = rebalance.M(value, d.Currency).Add(d.Sweep[account])
		return nil
	}
	d.Positions = append(d.Positions, Position{
		Account: account,
		Name:    r.get("Investment Name"),
		Symbol:  symbol,
		Shares:  rebalance.Q(shares),
		Price:   rebalance.M(price, d.Currency),
		Value:   rebalance.M(value, d.Currency),
	})
	return nil
}

func (d *Download) addTransaction(r row) error {
	account, symbol := r.get("Account Number"), r.get("Symbol")
	if account == "" || len(symbol) < 2 || slices.Contains(SettlementFunds, symbol) {
		return nil
	}
	d.addAccount(account)
	shares, err := r.decimal("Shares")
	if err != nil {
		return err
	}
	if shares.IsZero() {
		// cash dividends, fees and transfers do not change the position.
		return nil
	}
	on, err := date.Parse(r.get("Trade Date"))
	if err != nil {
		return err
	}

	// Net Amount is the cash side of the trade: negative for a buy.
	amount, err := r.decimal("Net Amount")
	if err != nil {
		return err
	}
	if amount.IsZero() {
		if price, err := r.decimal("Share Price"); err == nil {
			amount = price.Mul(shares)
		}
	}
	amount = amount.Abs()
	if shares.IsNegative() {
		amount = amount.Neg()
	}

	d.Transactions = append(d.Transactions, rebalance.Transaction{
		Date:    on,
		Account: account,
		Symbol:  symbol,
		Shares:  rebalance.Q(shares),
		Amount:  rebalance.M(amount, d.Currency),
		Memo:    r.get("Transaction Type"),
	})
	return nil
}

// Accounts returns the account numbers found, in file order.
func (d *Download) Accounts() []string { return slices.Clone(d.accounts) }

// Check returns an *AccountNotFoundError if account is not in the download.
func (d *Download) Check(account string) error {
	if slices.Contains(d.accounts, account) {
		return nil
	}
	return &AccountNotFoundError{Account: account, Found: d.Accounts()}
}

// Prices returns the share price of every position.
func (d *Download) Prices() map[string]rebalance.Money {
	prices := make(map[string]rebalance.Money)
	for _, p := range d.Positions {
		if p.Price.IsPositive() {
			prices[p.Symbol] = p.Price
		}
	}
	return prices
}

// Snapshot returns the positions as a holdings Snapshot.
//
// A position not in the catalog is an *rebalance.UnknownSymbolError, unless
// skipUnknown is set, in which case it is logged and left out.
func (d *Download) Snapshot(catalog *rebalance.Catalog, on date.Date, skipUnknown bool) (*rebalance.Snapshot, error) {
	var held []rebalance.Holding
	for _, p := range d.Positions {
		if !catalog.Has(p.Symbol) {
			if !skipUnknown {
				return nil, &rebalance.UnknownSymbolError{Symbol: p.Symbol, Where: "Vanguard position of account " + p.Account}
			}
			slog.Warn("skipping position not in the catalog", "account", p.Account, "symbol", p.Symbol, "value", p.Value)
			continue
		}
		held = append(held, rebalance.Holding{Account: p.Account, Symbol: p.Symbol, Shares: p.Shares, MarketValue: p.Value})
	}
	return rebalance.NewSnapshot(catalog, on, d.Currency, held...)
}

// Ledger returns the trades as a Ledger, with the same unknown symbol
// handling as Snapshot.
func (d *Download) Ledger(catalog *rebalance.Catalog, skipUnknown bool) (*rebalance.Ledger, error) {
	var txs []rebalance.Transaction
	for _, tx := range d.Transactions {
		if !catalog.Has(tx.Symbol) {
			if !skipUnknown {
				return nil, &rebalance.UnknownSymbolError{Symbol: tx.Symbol, Where: fmt.Sprintf("Vanguard trade of account %s on %s", tx.Account, tx.Date)}
			}
			slog.Warn("skipping trade not in the catalog", "account", tx.Account, "symbol", tx.Symbol, "date", tx.Date)
			continue
		}
		txs = append(txs, tx)
	}
	return rebalance.NewLedger(txs...), nil
}

// columns indexes a header row by column name.
func columns(record []string) map[string]int {
	header := make(map[string]int, len(record))
	for i, name := range record {
		if name = strings.TrimSpace(name); name != "" {
			header[name] = i
		}
	}
	return header
}

// row is a record read through its section header.
type row struct {
	record []string
	header map[string]int
}

func (r row) get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r row) decimal(column string) (decimal.Decimal, error) {
	v := strings.ReplaceAll(strings.TrimPrefix(r.get(column), "$"), ",", "")
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", column, v, err)
	}
	return d, nil
}
