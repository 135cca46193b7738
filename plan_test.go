package rebalance

import (
	"errors"
	"testing"

	"github.com/etnz/rebalance/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day       = date.New(2025, 1, 15)
	cmpValues = cmp.Options{
		cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	}
)

// holdingsAt returns holdings worth the given values, at a price of 100.
func holdingsAt(account string, values map[string]float64) []Holding {
	var holdings []Holding
	for symbol, v := range values {
		holdings = append(holdings, Holding{Account: account, Symbol: symbol, Shares: Q(v / 100), MarketValue: USD(v)})
	}
	return holdings
}

func emptySnapshot(t *testing.T, c *Catalog) *Snapshot {
	t.Helper()
	s, err := NewSnapshot(c, day, "USD")
	require.NoError(t, err)
	return s
}

func TestNewPlan_NewBrokerageAccount(t *testing.T) {
	c := DefaultCatalog()
	plan, err := NewPlan(Input{
		Catalog:  c,
		Snapshot: emptySnapshot(t, c),
		Accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(1000)}},
		Prices:   allPrices(c),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, plan.ID)
	assert.Empty(t, plan.Warnings)

	b, ok := plan.Account(Brokerage)
	require.True(t, ok)
	want := map[string]Money{
		"VV": USD(180), "VO": USD(90), "VB": USD(90), "VXUS": USD(162), "VWO": USD(78),
		"BNDX": USD(160), "VTC": USD(240),
	}
	require.Len(t, b.Orders, len(want))
	for symbol, w := range want {
		o, ok := b.Order(symbol)
		require.True(t, ok, "no order for %s", symbol)
		assert.True(t, o.Amount.Equal(w), "%s = %v, want %v", symbol, o.Amount, w)
		assert.True(t, o.Shares.Equal(w.DivPrice(USD(100))), "%s shares = %v", symbol, o.Shares)
	}
	assert.True(t, b.Invested().Equal(USD(1000)), "invested %v", b.Invested())
	assert.False(t, b.Routed)
}

func TestNewPlan_TraditionalAtTarget(t *testing.T) {
	c := DefaultCatalog()
	s, err := NewSnapshot(c, day, "USD", holdingsAt("T", map[string]float64{
		"VV": 2700, "VO": 1350, "VB": 1350, "VXUS": 2430, "VWO": 1170, "BNDX": 400, "VTC": 600,
	})...)
	require.NoError(t, err)

	plan, err := NewPlan(Input{
		Catalog:  c,
		Snapshot: s,
		Accounts: []Account{{ID: "T", Kind: TraditionalIRA, Cash: USD(500)}},
	})
	require.NoError(t, err)
	require.Empty(t, plan.Warnings, "prices come from the holdings")

	trad, _ := plan.Account(TraditionalIRA)
	want := map[string]Money{
		"VV": USD(135), "VO": USD(67.5), "VB": USD(67.5), "VXUS": USD(121.5), "VWO": USD(58.5),
		"BNDX": USD(20), "VTC": USD(30),
	}
	require.Len(t, trad.Orders, len(want))
	for symbol, w := range want {
		o, _ := trad.Order(symbol)
		assert.True(t, o.Amount.Equal(w), "%s = %v, want %v", symbol, o.Amount, w)
	}
	assert.False(t, trad.Routed, "a single retirement account is not routed")
}

func TestNewPlan_MissingPrice(t *testing.T) {
	c := DefaultCatalog()
	prices := allPrices(c)
	delete(prices, "VWO")

	plan, err := NewPlan(Input{
		Catalog:  c,
		Snapshot: emptySnapshot(t, c),
		Accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(1000)}},
		Prices:   prices,
	})
	require.NoError(t, err)
	require.Len(t, plan.Warnings, 1)
	var missing *InsufficientDataError
	require.True(t, errors.As(plan.Warnings[0], &missing))
	assert.Equal(t, "VWO", missing.Symbol)
	assert.Equal(t, "B", missing.Account)

	b, _ := plan.Account(Brokerage)
	o, ok := b.Order("VWO")
	require.True(t, ok)
	assert.False(t, o.Priced)
	assert.True(t, o.Amount.Equal(USD(78)))
}

func TestNewPlan_Errors(t *testing.T) {
	c := DefaultCatalog()
	tests := []struct {
		name     string
		accounts []Account
		prices   map[string]Money
		outside  []Outside
		check    func(t *testing.T, err error)
	}{
		{
			name:     "invalid split",
			accounts: []Account{{ID: "B", Kind: Brokerage, Split: Split{Stock: dec("0.5"), Bond: dec("0.6")}, Cash: USD(100)}},
			check: func(t *testing.T, err error) {
				var target *InvalidSplitError
				assert.True(t, errors.As(err, &target), "got %v", err)
			},
		},
		{
			name:     "negative cash",
			accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(-100)}},
			check: func(t *testing.T, err error) {
				var target *NegativeCashError
				assert.True(t, errors.As(err, &target), "got %v", err)
			},
		},
		{
			name:     "unknown priced symbol",
			accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(100)}},
			prices:   map[string]Money{"VTI": USD(300)},
			check: func(t *testing.T, err error) {
				var target *UnknownSymbolError
				require.True(t, errors.As(err, &target), "got %v", err)
				assert.Equal(t, "VTI", target.Symbol)
			},
		},
		{
			name:     "duplicate kind",
			accounts: []Account{{ID: "R1", Kind: RothIRA}, {ID: "R2", Kind: RothIRA}},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "both Roth IRA accounts")
			},
		},
		{
			name:     "currency mismatch",
			accounts: []Account{{ID: "B", Kind: Brokerage, Cash: M(100, "EUR")}},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "cash is in EUR")
			},
		},
		{
			name:     "outside without brokerage",
			accounts: []Account{{ID: "R", Kind: RothIRA, Cash: USD(100)}},
			outside:  []Outside{{Name: "trading", Value: USD(100), Symbols: []string{"VV"}}},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "there is none")
			},
		},
		{
			name:     "negative outside",
			accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(100)}},
			outside:  []Outside{{Name: "trading", Value: USD(-100), Symbols: []string{"VV"}}},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "outside holdings trading are negative")
			},
		},
		{
			name:     "outside for no fund",
			accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(100)}},
			outside:  []Outside{{Name: "trading", Value: USD(100)}},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "stand for no fund")
			},
		},
		{
			name:     "outside unknown symbol",
			accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(100)}},
			outside:  []Outside{{Name: "trading", Value: USD(100), Symbols: []string{"VTI"}}},
			check: func(t *testing.T, err error) {
				var target *UnknownSymbolError
				require.True(t, errors.As(err, &target), "got %v", err)
				assert.Equal(t, "VTI", target.Symbol)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewPlan(Input{Catalog: c, Snapshot: emptySnapshot(t, c), Accounts: tt.accounts, Prices: tt.prices, Outside: tt.outside})
			require.Error(t, err)
			assert.Nil(t, plan)
			tt.check(t, err)
		})
	}
}

func TestNewPlan_RiskPlacement(t *testing.T) {
	c := DefaultCatalog()
	plan, err := NewPlan(Input{
		Catalog:  c,
		Snapshot: emptySnapshot(t, c),
		Accounts: []Account{
			{ID: "B", Kind: Brokerage, Cash: USD(10000)},
			{ID: "R", Kind: RothIRA, Cash: USD(3000)},
			{ID: "T", Kind: TraditionalIRA, Cash: USD(7000)},
		},
		Prices: allPrices(c),
	})
	require.NoError(t, err)

	b, _ := plan.Account(Brokerage)
	baseline, err := c.Targets(b.Account, USD(10000))
	require.NoError(t, err)
	if diff := cmp.Diff(baseline, b.Targets, cmpValues); diff != "" {
		t.Errorf("brokerage targets changed by risk placement (-want +got):\n%s", diff)
	}

	roth, _ := plan.Account(RothIRA)
	assert.True(t, roth.Routed)
	require.Len(t, roth.Orders, 2, "the Roth account buys the riskiest funds only")
	vwo, _ := roth.Order("VWO")
	vxus, _ := roth.Order("VXUS")
	assert.True(t, vwo.Amount.Equal(USD(1170)), "VWO = %v", vwo.Amount)
	assert.True(t, vxus.Amount.Equal(USD(1830)), "VXUS = %v", vxus.Amount)

	trad, _ := plan.Account(TraditionalIRA)
	assert.True(t, trad.Invested().Equal(USD(7000)), "traditional invested %v", trad.Invested())
	assert.True(t, plan.RetirementTarget.Total().Equal(USD(10000)), "retirement target %v", plan.RetirementTarget.Total())
	for _, e := range plan.RetirementTarget {
		sum := roth.Targets.Value(e.Symbol).Add(trad.Targets.Value(e.Symbol))
		assert.True(t, sum.Equal(e.Value), "%s routed %v, pooled %v", e.Symbol, sum, e.Value)
	}
}

func TestNewPlan_OutsideHoldings(t *testing.T) {
	c := DefaultCatalog()
	accounts := []Account{
		{ID: "B", Kind: Brokerage, Cash: USD(1000)},
		{ID: "R", Kind: RothIRA, Cash: USD(3000)},
		{ID: "T", Kind: TraditionalIRA, Cash: USD(7000)},
	}
	usStock := Outside{Name: "trading", Value: USD(300), Symbols: []string{"VV", "VO", "VB"}}

	without, err := NewPlan(Input{Catalog: c, Snapshot: emptySnapshot(t, c), Accounts: accounts, Prices: allPrices(c)})
	require.NoError(t, err)
	with, err := NewPlan(Input{Catalog: c, Snapshot: emptySnapshot(t, c), Accounts: accounts, Prices: allPrices(c), Outside: []Outside{usStock}})
	require.NoError(t, err)

	// the brokerage is worth 1300 with the outside holdings, whose 300 are
	// taken off VV, VO and VB by weight: 150, 75 and 75.
	b, _ := with.Account(Brokerage)
	assert.True(t, b.Total.Equal(USD(1000)), "total %v", b.Total)
	require.Len(t, b.Outside, 1)
	want := map[string]Money{
		"VV": USD(84), "VO": USD(42), "VB": USD(42), "VXUS": USD(210.6), "VWO": USD(101.4),
		"BNDX": USD(208), "VTC": USD(312),
	}
	for symbol, w := range want {
		assert.True(t, b.Targets.Value(symbol).Equal(w), "target %s = %v, want %v", symbol, b.Targets.Value(symbol), w)
		o, ok := b.Order(symbol)
		require.True(t, ok, "no order for %s", symbol)
		assert.True(t, o.Amount.Equal(w), "%s = %v, want %v", symbol, o.Amount, w)
	}
	assert.True(t, b.Invested().Equal(USD(1000)), "invested %v", b.Invested())

	bWithout, _ := without.Account(Brokerage)
	for _, symbol := range []string{"VV", "VO", "VB"} {
		before, _ := bWithout.Order(symbol)
		after, _ := b.Order(symbol)
		assert.True(t, after.Amount.LessThan(before.Amount), "%s bought %v with outside holdings, %v without", symbol, after.Amount, before.Amount)
	}

	for _, kind := range []AccountKind{RothIRA, TraditionalIRA} {
		a, _ := without.Account(kind)
		b, _ := with.Account(kind)
		assert.Empty(t, b.Outside)
		if diff := cmp.Diff(a.Targets, b.Targets, cmpValues); diff != "" {
			t.Errorf("%s targets changed by outside holdings (-want +got):\n%s", kind.Title(), diff)
		}
	}
}

func TestNewPlan_OutsideHoldingsAboveTarget(t *testing.T) {
	c := DefaultCatalog()
	plan, err := NewPlan(Input{
		Catalog:  c,
		Snapshot: emptySnapshot(t, c),
		Accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(1000)}},
		Prices:   allPrices(c),
		Outside:  []Outside{{Name: "trading", Value: USD(3000), Symbols: []string{"VV", "VO", "VB"}}},
	})
	require.NoError(t, err)

	b, _ := plan.Account(Brokerage)
	for _, symbol := range []string{"VV", "VO", "VB"} {
		assert.True(t, b.Targets.Value(symbol).IsZero(), "target %s = %v", symbol, b.Targets.Value(symbol))
		_, ok := b.Order(symbol)
		assert.False(t, ok, "%s is bought", symbol)
	}
	assert.True(t, b.Invested().Equal(USD(1000)), "invested %v", b.Invested())
}

func TestNewPlan_Deterministic(t *testing.T) {
	c := DefaultCatalog()
	s, err := NewSnapshot(c, day, "USD", holdingsAt("R", map[string]float64{"VV": 1234.56, "BNDX": 99.99})...)
	require.NoError(t, err)
	in := Input{
		Catalog:  c,
		Snapshot: s,
		Accounts: []Account{
			{ID: "R", Kind: RothIRA, Cash: USD(2500.01)},
			{ID: "T", Kind: TraditionalIRA, Cash: USD(777.77)},
		},
		Prices: allPrices(c),
	}
	first, err := NewPlan(in)
	require.NoError(t, err)
	second, err := NewPlan(in)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, cmpValues, cmpopts.IgnoreFields(Plan{}, "ID")); diff != "" {
		t.Errorf("NewPlan() is not deterministic (-first +second):\n%s", diff)
	}
}

func TestNewPlan_AppliedPlanIsBalanced(t *testing.T) {
	c := DefaultCatalog()
	plan, err := NewPlan(Input{
		Catalog:  c,
		Snapshot: emptySnapshot(t, c),
		Accounts: []Account{{ID: "B", Kind: Brokerage, Cash: USD(1000)}},
		Prices:   allPrices(c),
	})
	require.NoError(t, err)

	b, _ := plan.Account(Brokerage)
	var holdings []Holding
	for _, o := range b.Orders {
		holdings = append(holdings, Holding{Account: "B", Symbol: o.Symbol, Shares: o.Shares, MarketValue: o.Amount})
	}
	after, err := NewSnapshot(c, day, "USD", holdings...)
	require.NoError(t, err)

	again, err := NewPlan(Input{
		Catalog:  c,
		Snapshot: after,
		Accounts: []Account{{ID: "B", Kind: Brokerage}},
		Prices:   allPrices(c),
	})
	require.NoError(t, err)
	b2, _ := again.Account(Brokerage)
	assert.Empty(t, b2.Orders)
	current := make(map[string]Money)
	for _, h := range b2.Holdings {
		current[h.Symbol] = h.MarketValue
	}
	for _, d := range Deficits(b2.Targets, current) {
		assert.True(t, d.Amount.IsZero(), "%s still short of %v", d.Symbol, d.Amount)
	}
}
