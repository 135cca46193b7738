package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	md "github.com/nao1215/markdown"
)

// Holding is the content of the holdings snapshot, in json or markdown.
type Holding struct {
	Date     date.Date        `json:"date"`
	Currency string           `json:"currency"`
	Total    rebalance.Money  `json:"total"`
	Accounts []HoldingAccount `json:"accounts"`
}

// HoldingAccount lists the positions of one account.
type HoldingAccount struct {
	ID        string            `json:"id"`
	Total     rebalance.Money   `json:"total"`
	Positions []HoldingPosition `json:"positions"`
}

// HoldingPosition is a single symbol held.
type HoldingPosition struct {
	Symbol      string             `json:"symbol"`
	Shares      rebalance.Quantity `json:"shares"`
	Price       rebalance.Money    `json:"price"`
	MarketValue rebalance.Money    `json:"marketValue"`
	Description string             `json:"description,omitempty"`
}

// NewHolding creates a Holding from a snapshot. Accounts are in lexical
// order, positions by symbol.
func NewHolding(s *rebalance.Snapshot, c *rebalance.Catalog) *Holding {
	h := &Holding{
		Date:     s.On(),
		Currency: s.Currency(),
		Total:    rebalance.M(0, s.Currency()),
		Accounts: make([]HoldingAccount, 0),
	}
	for _, account := range s.Accounts() {
		ha := HoldingAccount{ID: account, Total: s.TotalValue(account)}
		for _, pos := range s.Holdings(account) {
			price, _ := pos.Price()
			var description string
			if f, err := c.Fund(pos.Symbol); err == nil {
				description = f.Description
			}
			ha.Positions = append(ha.Positions, HoldingPosition{
				Symbol:      pos.Symbol,
				Shares:      pos.Shares,
				Price:       price,
				MarketValue: pos.MarketValue,
				Description: description,
			})
		}
		h.Total = h.Total.Add(ha.Total)
		h.Accounts = append(h.Accounts, ha)
	}
	return h
}

// HoldingMarkdown renders the holdings, one table per account.
func HoldingMarkdown(h *Holding) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Holdings on %s", h.Date))
	doc.PlainText(fmt.Sprintf("Total Market Value: %s", h.Total))
	doc.LF()

	for _, a := range h.Accounts {
		doc.H2(fmt.Sprintf("Account %s", a.ID))
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignLeft,
			},
			Header: []string{"Symbol", "Shares", "Price", "Market Value", "Description"},
		}
		for _, p := range a.Positions {
			table.Rows = append(table.Rows, []string{
				p.Symbol,
				p.Shares.String(),
				p.Price.String(),
				p.MarketValue.String(),
				p.Description,
			})
		}
		table.Rows = append(table.Rows, []string{md.Bold("Total"), "", "", md.Bold(a.Total.String()), ""})
		doc.Table(table)
	}
	return doc.String()
}
