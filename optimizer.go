package rebalance

import (
	"slices"
	"strings"
)

// Deficit is the shortfall of a symbol in an account: how much must be bought
// to reach its target. It is never negative: over-target holdings are not sold.
type Deficit struct {
	Symbol  string
	Target  Money
	Current Money
	Amount  Money // max(0, Target-Current)
}

// Deficits computes the deficit of every target, largest first. Equal
// deficits are ordered by symbol.
func Deficits(targets Targets, current map[string]Money) []Deficit {
	deficits := make([]Deficit, 0, len(targets))
	for _, t := range targets {
		cur := current[t.Symbol]
		deficits = append(deficits, Deficit{
			Symbol:  t.Symbol,
			Target:  t.Value,
			Current: cur,
			Amount:  t.Value.Sub(cur).PositivePart(),
		})
	}
	slices.SortStableFunc(deficits, func(a, b Deficit) int {
		if c := b.Amount.Decimal().Cmp(a.Amount.Decimal()); c != 0 {
			return c
		}
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return deficits
}

// Allocation is the cash assigned to a symbol, before lot rounding.
type Allocation struct {
	Symbol  string
	Deficit Money
	Amount  Money
}

// Distribute shares cash among the deficits.
//
// When cash does not cover the deficits, each symbol receives cash in
// proportion to its deficit. Otherwise every deficit is filled and the
// surplus is spread along the baseline mix split(class) × weight, so no cash
// is left idle. Allocations keep the order of deficits and zero allocations
// are dropped.
func (c *Catalog) Distribute(cash Money, deficits []Deficit, split Split) []Allocation {
	if !cash.IsPositive() {
		return nil
	}
	var total Money
	for _, d := range deficits {
		total = total.Add(d.Amount)
	}

	allocations := make([]Allocation, 0, len(deficits))
	if cash.LessThanOrEqual(total) {
		allocated := M(0, cash.Currency())
		for _, d := range deficits {
			amount := cash.Scale(d.Amount.Ratio(total))
			if amount.IsPositive() {
				allocations = append(allocations, Allocation{Symbol: d.Symbol, Deficit: d.Amount, Amount: amount})
				allocated = allocated.Add(amount)
			}
		}
		// ratios are inexact: the last allocation absorbs the difference.
		if n := len(allocations); n > 0 {
			last := &allocations[n-1]
			last.Amount = last.Amount.Add(cash.Sub(allocated))
		}
		return allocations
	}

	surplus := cash.Sub(total)
	for _, d := range deficits {
		f, err := c.Fund(d.Symbol)
		if err != nil {
			continue // targets come from this catalog
		}
		amount := d.Amount.Add(surplus.Scale(split.Fraction(f.Class).Mul(f.Weight)))
		if amount.IsPositive() {
			allocations = append(allocations, Allocation{Symbol: d.Symbol, Deficit: d.Amount, Amount: amount})
		}
	}
	return allocations
}

// Order is an instruction to buy a symbol in an account. It is never a sale.
type Order struct {
	Account string
	Symbol  string
	Amount  Money
	Shares  Quantity // Amount/price, meaningful only if Priced
	Priced  bool
}

func (o Order) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("account", o.Account)
	w.Append("symbol", o.Symbol)
	w.Append("amount", o.Amount.Round().Decimal())
	if o.Priced {
		w.Append("shares", o.Shares)
	} else {
		w.Append("shares", nil)
	}
	return w.MarshalJSON()
}

// sharePrecision is the number of decimals of a fractional share count.
const sharePrecision = 4

// RoundLots turns allocations into orders.
//
// Allocations are taken in order. For a fund bought in whole shares the
// amount is floored to a whole number of shares at its price, otherwise to
// the currency minor unit. What rounding leaves is carried to the next
// allocation; the final remainder is returned as leftover, so the orders
// never exceed the allocated cash.
//
// An allocation without a price is still ordered, in dollars, and reported
// with an *InsufficientDataError warning.
func (c *Catalog) RoundLots(account string, allocations []Allocation, prices map[string]Money) (orders []Order, leftover Money, warnings []error) {
	var carry Money
	for _, a := range allocations {
		amount := a.Amount.Add(carry)
		price, priced := prices[a.Symbol]
		priced = priced && price.IsPositive()
		whole := false
		if f, err := c.Fund(a.Symbol); err == nil {
			whole = f.WholeShares
		}

		var rounded Money
		var shares Quantity
		switch {
		case priced && whole:
			shares = amount.DivPrice(price).Floor()
			rounded = price.Mul(shares)
			if rounded.GreaterThan(amount) {
				// the division was rounded up to a whole share.
				shares = shares.Sub(Q(1))
				rounded = price.Mul(shares)
			}
		case priced:
			rounded = amount.RoundDown()
			shares = rounded.DivPrice(price).Round(sharePrecision)
		default:
			rounded = amount.RoundDown()
		}
		carry = amount.Sub(rounded)

		if !rounded.IsPositive() {
			continue
		}
		orders = append(orders, Order{Account: account, Symbol: a.Symbol, Amount: rounded, Shares: shares, Priced: priced})
		if !priced {
			warnings = append(warnings, &InsufficientDataError{Account: account, Symbol: a.Symbol, Amount: rounded})
		}
	}
	return orders, carry, warnings
}

// Optimize computes the buy orders of an account: the deficits of targets
// against current holdings, the distribution of the account cash, and the
// lot rounding. No cash means no orders.
func (c *Catalog) Optimize(account Account, targets Targets, current map[string]Money, prices map[string]Money) (orders []Order, leftover Money, warnings []error) {
	if !account.Cash.IsPositive() {
		return nil, M(0, account.Cash.Currency()), nil
	}
	deficits := Deficits(targets, current)
	allocations := c.Distribute(account.Cash, deficits, account.EffectiveSplit())
	orders, leftover, warnings = c.RoundLots(account.ID, allocations, prices)
	if leftover.Currency() == "" {
		leftover = M(leftover.Decimal(), account.Cash.Currency())
	}
	return orders, leftover, warnings
}
