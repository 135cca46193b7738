package rebalance

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/rebalance/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// jtransaction is the ledger line as written in the JSONL file.
type jtransaction struct {
	Date     date.Date       `json:"date"`
	Account  string          `json:"account"`
	Symbol   string          `json:"symbol"`
	Shares   decimal.Decimal `json:"shares"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Memo     string          `json:"memo"`
}

// DecodeLedger decodes transactions from a stream of JSONL data, one
// transaction per line, and returns a sorted Ledger.
// A line without currency uses defaultCurrency.
func DecodeLedger(r io.Reader, defaultCurrency string) (*Ledger, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var jt jtransaction
		if err := json.Unmarshal(lineBytes, &jt); err != nil {
			return nil, fmt.Errorf("line %d: could not decode transaction %q: %w", line, string(lineBytes), err)
		}
		if jt.Currency == "" {
			jt.Currency = defaultCurrency
		}
		tx := Transaction{
			Date:    jt.Date,
			Account: jt.Account,
			Symbol:  jt.Symbol,
			Shares:  Q(jt.Shares),
			Amount:  M(jt.Amount, jt.Currency),
			Memo:    jt.Memo,
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read ledger: %w", err)
	}
	return NewLedger(txs...), nil
}

// MarshalJSON writes a transaction with a stable field order.
func (tx Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", tx.Date)
	w.Append("account", tx.Account)
	w.Append("symbol", tx.Symbol)
	w.Append("shares", tx.Shares)
	w.Append("amount", tx.Amount.Decimal())
	w.Optional("currency", tx.Amount.Currency())
	w.Optional("memo", tx.Memo)
	return w.MarshalJSON()
}

// EncodeTransaction writes a single transaction as one JSONL line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	b, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("could not encode transaction on %s: %w", tx.Date, err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// EncodeLedger writes the ledger in its canonical JSONL form.
func EncodeLedger(w io.Writer, l *Ledger) error {
	bw := bufio.NewWriter(w)
	for _, tx := range l.Transactions() {
		if err := EncodeTransaction(bw, tx); err != nil {
			return err
		}
	}
	return bw.Flush()
}
