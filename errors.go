package rebalance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnknownSymbolError is returned when a holding, a price or a configuration
// entry references a symbol that is not in the Catalog. It is fatal: targets
// would be silently incomplete.
type UnknownSymbolError struct {
	Symbol string
	Where  string // what referenced the symbol, e.g. "holding 1234"
}

func (e *UnknownSymbolError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("unknown symbol %q: not in the fund catalog", e.Symbol)
	}
	return fmt.Sprintf("unknown symbol %q in %s: not in the fund catalog", e.Symbol, e.Where)
}

// InvalidSplitError is returned when a stock/bond split has a negative
// fraction or does not sum to 1.
type InvalidSplitError struct {
	Account     string
	Stock, Bond decimal.Decimal
}

func (e *InvalidSplitError) Error() string {
	msg := fmt.Sprintf("invalid stock/bond split %s/%s", e.Stock, e.Bond)
	if e.Account != "" {
		msg = fmt.Sprintf("account %s: %s", e.Account, msg)
	}
	if e.Stock.IsNegative() || e.Bond.IsNegative() {
		return msg + ": fractions must not be negative"
	}
	return msg + fmt.Sprintf(": fractions sum to %s, want 1", e.Stock.Add(e.Bond))
}

// InsufficientDataError reports a symbol that received an allocation but has
// no current price: the order stands in dollars, without a share count.
// It is a warning, never returned as a fatal error.
type InsufficientDataError struct {
	Account string
	Symbol  string
	Amount  Money
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("account %s: no current price for %s, order of %s has no share count", e.Account, e.Symbol, e.Amount)
}

// NegativeCashError is returned when a cash addition is negative.
type NegativeCashError struct {
	Account string
	Amount  Money
}

func (e *NegativeCashError) Error() string {
	return fmt.Sprintf("account %s: cash addition %s is negative", e.Account, e.Amount)
}
