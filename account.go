package rebalance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountKind is the tax treatment of an account.
type AccountKind int

const (
	Brokerage AccountKind = iota + 1
	RothIRA
	TraditionalIRA
)

func (k AccountKind) String() string {
	switch k {
	case Brokerage:
		return "brokerage"
	case RothIRA:
		return "roth"
	case TraditionalIRA:
		return "traditional"
	default:
		return fmt.Sprintf("AccountKind(%d)", int(k))
	}
}

// Title returns a human readable name of the kind.
func (k AccountKind) Title() string {
	switch k {
	case Brokerage:
		return "Brokerage"
	case RothIRA:
		return "Roth IRA"
	case TraditionalIRA:
		return "Traditional IRA"
	default:
		return k.String()
	}
}

// ParseAccountKind parses "brokerage", "roth" or "traditional".
func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brokerage", "taxable":
		return Brokerage, nil
	case "roth", "roth-ira", "rothira":
		return RothIRA, nil
	case "traditional", "trad", "traditional-ira", "traditionalira":
		return TraditionalIRA, nil
	default:
		return 0, fmt.Errorf("invalid account kind %q, want \"brokerage\", \"roth\" or \"traditional\"", s)
	}
}

// IsRetirement reports whether the account is tax advantaged.
func (k AccountKind) IsRetirement() bool { return k == RothIRA || k == TraditionalIRA }

// DefaultSplit returns the stock/bond split used when none is configured.
func (k AccountKind) DefaultSplit() Split {
	if k.IsRetirement() {
		return Split{Stock: decimal.RequireFromString("0.9"), Bond: decimal.RequireFromString("0.1")}
	}
	return Split{Stock: decimal.RequireFromString("0.6"), Bond: decimal.RequireFromString("0.4")}
}

// Split is the fraction of an account targeted at stocks and bonds.
type Split struct {
	Stock decimal.Decimal
	Bond  decimal.Decimal
}

// NewSplit returns a validated Split from two fractions.
func NewSplit(stock, bond decimal.Decimal) (Split, error) {
	s := Split{Stock: stock, Bond: bond}
	return s, s.Validate()
}

// ParseSplit parses a split written in percent "60/40" or in fractions "0.6/0.4".
func ParseSplit(str string) (Split, error) {
	a, b, ok := strings.Cut(str, "/")
	if !ok {
		return Split{}, fmt.Errorf("invalid split %q, want \"stock/bond\" like \"60/40\"", str)
	}
	stock, err := decimal.NewFromString(strings.TrimSpace(a))
	if err != nil {
		return Split{}, fmt.Errorf("invalid split %q: %w", str, err)
	}
	bond, err := decimal.NewFromString(strings.TrimSpace(b))
	if err != nil {
		return Split{}, fmt.Errorf("invalid split %q: %w", str, err)
	}
	// anything above 1 is read as percent.
	if stock.GreaterThan(decimal.NewFromInt(1)) || bond.GreaterThan(decimal.NewFromInt(1)) {
		stock, bond = stock.Shift(-2), bond.Shift(-2)
	}
	return NewSplit(stock, bond)
}

// Validate returns an *InvalidSplitError if a fraction is negative or if they
// do not sum to exactly 1.
func (s Split) Validate() error {
	if s.Stock.IsNegative() || s.Bond.IsNegative() || !s.Stock.Add(s.Bond).Equal(decimal.NewFromInt(1)) {
		return &InvalidSplitError{Stock: s.Stock, Bond: s.Bond}
	}
	return nil
}

// Fraction returns the fraction of the split for an asset class.
func (s Split) Fraction(c AssetClass) decimal.Decimal {
	switch c {
	case Stock:
		return s.Stock
	case Bond:
		return s.Bond
	default:
		return decimal.Zero
	}
}

func (s Split) IsZero() bool { return s.Stock.IsZero() && s.Bond.IsZero() }

func (s Split) String() string {
	return fmt.Sprintf("%s/%s", s.Stock.Shift(2).String(), s.Bond.Shift(2).String())
}

// Account is one of the portfolio accounts and the cash being added to it.
type Account struct {
	ID    string
	Kind  AccountKind
	Split Split // zero means the kind's default
	Cash  Money // pending addition, never negative
}

// EffectiveSplit returns the account's split, or the kind's default one.
func (a Account) EffectiveSplit() Split {
	if a.Split.IsZero() {
		return a.Kind.DefaultSplit()
	}
	return a.Split
}

// Validate checks the split and the cash addition of the account.
func (a Account) Validate() error {
	if err := a.EffectiveSplit().Validate(); err != nil {
		err.(*InvalidSplitError).Account = a.ID
		return err
	}
	if a.Cash.IsNegative() {
		return &NegativeCashError{Account: a.ID, Amount: a.Cash}
	}
	return nil
}

func (a Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Kind.Title(), a.ID)
}
