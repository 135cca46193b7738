package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
)

// CatalogMarkdown renders the fund catalog, riskiest first, marking the funds
// currently held in any account of s. s may be nil.
func CatalogMarkdown(c *rebalance.Catalog, s *rebalance.Snapshot) string {
	held := make(map[string]bool)
	if s != nil {
		for _, account := range s.Accounts() {
			for _, h := range s.Holdings(account) {
				held[h.Symbol] = held[h.Symbol] || h.Shares.IsPositive()
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Fund Catalog\n\n")
	fmt.Fprintln(&b, "| Symbol | Held | Class | Weight | Risk | Whole Shares | Description |")
	fmt.Fprintln(&b, "|:---|:---:|:---|---:|---:|:---:|:---|")

	for _, f := range c.RoutingOrder() {
		mark := " "
		if held[f.Symbol] {
			mark = "X"
		}
		whole := " "
		if f.WholeShares {
			whole = "X"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %s | %s |\n",
			f.Symbol,
			mark,
			f.Class,
			rebalance.PercentOf(f.Weight),
			f.Risk,
			whole,
			f.Description,
		)
	}
	return b.String()
}
