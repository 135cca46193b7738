package rebalance

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetClass is the top-level grouping a stock/bond split applies to.
type AssetClass int

const (
	Stock AssetClass = iota + 1
	Bond
)

func (c AssetClass) String() string {
	switch c {
	case Stock:
		return "stock"
	case Bond:
		return "bond"
	default:
		return fmt.Sprintf("AssetClass(%d)", int(c))
	}
}

// ParseAssetClass parses "stock" or "bond", case insensitive.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock", "stocks":
		return Stock, nil
	case "bond", "bonds":
		return Bond, nil
	default:
		return 0, fmt.Errorf("invalid asset class %q, want \"stock\" or \"bond\"", s)
	}
}

// weightTolerance is how far from 1 the weights of one class may sum.
var weightTolerance = decimal.New(1, -9)

// Fund is one index fund of the Catalog.
type Fund struct {
	Symbol      string
	Class       AssetClass
	Weight      decimal.Decimal // share of the fund within its asset class
	Risk        int             // higher is riskier
	WholeShares bool            // only whole shares can be purchased
	Description string
}

// Catalog is the immutable table of funds the engine allocates to.
// It is built once with NewCatalog and can be shared without locking.
type Catalog struct {
	funds []Fund // sorted by symbol
	index map[string]int
}

// NewCatalog validates and builds a Catalog.
//
// Symbols must be unique, weights in (0,1], and for each asset class the
// weights must sum to 1. Both classes must be represented.
func NewCatalog(funds ...Fund) (*Catalog, error) {
	c := &Catalog{
		funds: slices.Clone(funds),
		index: make(map[string]int, len(funds)),
	}
	slices.SortFunc(c.funds, func(a, b Fund) int { return strings.Compare(a.Symbol, b.Symbol) })

	sums := map[AssetClass]decimal.Decimal{Stock: decimal.Zero, Bond: decimal.Zero}
	counts := map[AssetClass]int{}
	for i, f := range c.funds {
		if f.Symbol == "" {
			return nil, fmt.Errorf("invalid catalog: fund with an empty symbol")
		}
		if _, exists := c.index[f.Symbol]; exists {
			return nil, fmt.Errorf("invalid catalog: symbol %q is defined twice", f.Symbol)
		}
		if f.Class != Stock && f.Class != Bond {
			return nil, fmt.Errorf("invalid catalog: symbol %q has no asset class", f.Symbol)
		}
		if !f.Weight.IsPositive() || f.Weight.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("invalid catalog: symbol %q weight %s is not in (0,1]", f.Symbol, f.Weight)
		}
		c.index[f.Symbol] = i
		sums[f.Class] = sums[f.Class].Add(f.Weight)
		counts[f.Class]++
	}

	for _, class := range []AssetClass{Stock, Bond} {
		if counts[class] == 0 {
			return nil, fmt.Errorf("invalid catalog: no %s fund", class)
		}
		if diff := sums[class].Sub(decimal.NewFromInt(1)).Abs(); diff.GreaterThan(weightTolerance) {
			return nil, fmt.Errorf("invalid catalog: %s weights sum to %s, want 1", class, sums[class])
		}
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on error.
func MustCatalog(funds ...Fund) *Catalog {
	c, err := NewCatalog(funds...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the default three-fund-per-region table.
func DefaultCatalog() *Catalog {
	w := decimal.RequireFromString
	return MustCatalog(
		Fund{Symbol: "VV", Class: Stock, Weight: w("0.30"), Risk: 3, Description: "US large cap"},
		Fund{Symbol: "VO", Class: Stock, Weight: w("0.15"), Risk: 4, Description: "US mid cap"},
		Fund{Symbol: "VB", Class: Stock, Weight: w("0.15"), Risk: 5, Description: "US small cap"},
		Fund{Symbol: "VXUS", Class: Stock, Weight: w("0.27"), Risk: 6, Description: "Total international stock"},
		Fund{Symbol: "VWO", Class: Stock, Weight: w("0.13"), Risk: 7, Description: "Emerging markets stock"},
		Fund{Symbol: "BNDX", Class: Bond, Weight: w("0.40"), Risk: 2, Description: "Total international bond"},
		Fund{Symbol: "VTC", Class: Bond, Weight: w("0.60"), Risk: 1, Description: "US total corporate bond"},
	)
}

// Len returns the number of funds.
func (c *Catalog) Len() int { return len(c.funds) }

// Has reports whether symbol is in the catalog.
func (c *Catalog) Has(symbol string) bool {
	_, ok := c.index[symbol]
	return ok
}

// Fund returns the fund for symbol.
func (c *Catalog) Fund(symbol string) (Fund, error) {
	i, ok := c.index[symbol]
	if !ok {
		return Fund{}, &UnknownSymbolError{Symbol: symbol}
	}
	return c.funds[i], nil
}

// ClassWeight returns the weight of symbol within its asset class.
func (c *Catalog) ClassWeight(symbol string) (decimal.Decimal, error) {
	f, err := c.Fund(symbol)
	return f.Weight, err
}

// AssetClass returns the asset class of symbol.
func (c *Catalog) AssetClass(symbol string) (AssetClass, error) {
	f, err := c.Fund(symbol)
	return f.Class, err
}

// RiskRank returns the risk rank of symbol.
func (c *Catalog) RiskRank(symbol string) (int, error) {
	f, err := c.Fund(symbol)
	return f.Risk, err
}

// Symbols returns all symbols in lexical order.
func (c *Catalog) Symbols() []string {
	symbols := make([]string, len(c.funds))
	for i, f := range c.funds {
		symbols[i] = f.Symbol
	}
	return symbols
}

// Funds iterates over the funds in symbol order.
func (c *Catalog) Funds() iter.Seq[Fund] {
	return func(yield func(Fund) bool) {
		for _, f := range c.funds {
			if !yield(f) {
				return
			}
		}
	}
}

// RoutingOrder returns the funds riskiest first: all Stock funds by
// decreasing Risk, then all Bond funds by decreasing Risk. Ties are broken by
// symbol so the order is the same on every run.
func (c *Catalog) RoutingOrder() []Fund {
	order := slices.Clone(c.funds)
	slices.SortStableFunc(order, func(a, b Fund) int {
		if a.Class != b.Class {
			return int(a.Class) - int(b.Class) // Stock first
		}
		if a.Risk != b.Risk {
			return b.Risk - a.Risk
		}
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return order
}
