package rebalance

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// TargetEntry is the dollar amount an account should hold of a symbol.
type TargetEntry struct {
	Account string
	Symbol  string
	Value   Money
}

// Targets is the set of TargetEntry of one account, one entry per catalog
// symbol, sorted by symbol.
type Targets []TargetEntry

// Value returns the target of a symbol, zero if absent.
func (t Targets) Value(symbol string) Money {
	for _, e := range t {
		if e.Symbol == symbol {
			return e.Value
		}
	}
	return Money{}
}

// Total returns the sum of all target values.
func (t Targets) Total() Money {
	var total Money
	for _, e := range t {
		total = total.Add(e.Value)
	}
	return total
}

// ClassTotal returns the sum of target values of one asset class.
func (t Targets) ClassTotal(c *Catalog, class AssetClass) Money {
	var total Money
	for _, e := range t {
		if f, err := c.Fund(e.Symbol); err == nil && f.Class == class {
			total = total.Add(e.Value)
		}
	}
	return total
}

func (t Targets) sorted() Targets {
	slices.SortFunc(t, func(a, b TargetEntry) int { return strings.Compare(a.Symbol, b.Symbol) })
	return t
}

// Targets computes the target of every catalog symbol for an account worth
// total: total × split(class) × weight, rounded to the minor unit.
//
// The sum of the targets equals total within one minor unit per symbol. A
// zero total yields zero targets.
func (c *Catalog) Targets(account Account, total Money) (Targets, error) {
	split := account.EffectiveSplit()
	if err := split.Validate(); err != nil {
		err.(*InvalidSplitError).Account = account.ID
		return nil, err
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("account %s: total value %s is negative", account.ID, total)
	}
	targets := make(Targets, 0, len(c.funds))
	for _, f := range c.funds {
		value := total.Scale(split.Fraction(f.Class).Mul(f.Weight)).Round()
		targets = append(targets, TargetEntry{Account: account.ID, Symbol: f.Symbol, Value: value})
	}
	return targets, nil
}

// Offset lowers the targets by the value of outside holdings. Each Outside
// value is spread over its symbols in proportion to their weight, and no
// target goes below zero.
func (c *Catalog) Offset(targets Targets, outside []Outside) Targets {
	offset := slices.Clone(targets)
	for _, o := range outside {
		sum := decimal.Zero
		for _, symbol := range o.Symbols {
			if f, err := c.Fund(symbol); err == nil {
				sum = sum.Add(f.Weight)
			}
		}
		if !sum.IsPositive() || !o.Value.IsPositive() {
			continue
		}
		for _, symbol := range o.Symbols {
			f, err := c.Fund(symbol)
			if err != nil {
				continue
			}
			share := o.Value.Scale(f.Weight.Div(sum)).Round()
			for i := range offset {
				if offset[i].Symbol == symbol {
					offset[i].Value = offset[i].Value.Sub(share).PositivePart()
				}
			}
		}
	}
	return offset
}
