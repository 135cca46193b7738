package renderer

import (
	"encoding/json"
	"testing"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = date.New(2025, 1, 15)

func usd(v float64) rebalance.Money { return rebalance.M(v, "USD") }

// newPlan runs the engine on an empty portfolio, every symbol priced at 100
// except VWO.
func newPlan(t *testing.T, accounts ...rebalance.Account) (*rebalance.Plan, *rebalance.Catalog) {
	t.Helper()
	c := rebalance.DefaultCatalog()
	s, err := rebalance.NewSnapshot(c, day, "USD")
	require.NoError(t, err)
	prices := make(map[string]rebalance.Money)
	for _, symbol := range c.Symbols() {
		if symbol != "VWO" {
			prices[symbol] = usd(100)
		}
	}
	p, err := rebalance.NewPlan(rebalance.Input{Catalog: c, Snapshot: s, Accounts: accounts, Prices: prices})
	require.NoError(t, err)
	return p, c
}

func TestPlanMarkdown(t *testing.T) {
	p, c := newPlan(t, rebalance.Account{ID: "B1", Kind: rebalance.Brokerage, Cash: usd(10000)})
	d := parse(t, PlanMarkdown(NewPlan(p, c)))

	assert.Equal(t, []string{"Rebalancing Plan on 2025-01-15", "Brokerage (B1)", "Warnings"}, d.headings)
	require.Len(t, d.tables, 2)

	orders := d.tables[0]
	assert.Equal(t, []string{"Symbol", "Current", "Target", "Purchase", "Shares"}, orders[0])
	assert.Len(t, orders, 1+7+1, "header, one row per symbol, total")
	assert.Equal(t, []string{"VV", "$0.00", "$1,800.00", "$1,800.00", "18"}, row(orders, "VV"))
	assert.Equal(t, []string{"VWO", "$0.00", "$780.00", "$780.00", "n/a"}, row(orders, "VWO"))
	assert.Equal(t, []string{"Total", "$0.00", "$10,000.00", "$10,000.00", ""}, row(orders, "Total"))

	ratios := d.tables[1]
	assert.Equal(t, []string{"Current", "n/a"}, row(ratios, "Current"))
	assert.Equal(t, []string{"After purchase", "60.0% : 40.0%"}, row(ratios, "After purchase"))
	assert.Equal(t, []string{"Target", "60.0% : 40.0%"}, row(ratios, "Target"))

	require.Len(t, d.items, 1)
	assert.Contains(t, d.items[0], "VWO")
}

func TestPlanMarkdown_RetirementTarget(t *testing.T) {
	p, c := newPlan(t,
		rebalance.Account{ID: "R", Kind: rebalance.RothIRA, Cash: usd(3000)},
		rebalance.Account{ID: "T", Kind: rebalance.TraditionalIRA, Cash: usd(7000)},
	)
	d := parse(t, PlanMarkdown(NewPlan(p, c)))

	assert.Contains(t, d.headings, "Roth IRA (R)")
	assert.Contains(t, d.headings, "Traditional IRA (T)")
	assert.Contains(t, d.headings, "Combined Retirement Target")

	// two tables per account, then the combined target.
	require.Len(t, d.tables, 5)
	combined := d.tables[4]
	assert.Equal(t, []string{"Symbol", "Class", "Target"}, combined[0])
	assert.Equal(t, []string{"VV", "stock", "$2,700.00"}, row(combined, "VV"))
	assert.Equal(t, []string{"VTC", "bond", "$600.00"}, row(combined, "VTC"))

	// the Roth account only targets the riskiest funds.
	roth := d.tables[0]
	assert.Equal(t, "$1,170.00", row(roth, "VWO")[2])
	assert.Equal(t, "$1,830.00", row(roth, "VXUS")[2])
	assert.Equal(t, "$0.00", row(roth, "VV")[2])
}

func TestNewPlan_JSON(t *testing.T) {
	p, c := newPlan(t, rebalance.Account{ID: "B1", Kind: rebalance.Brokerage, Cash: usd(1000)})
	r := NewPlan(p, c)

	require.Len(t, r.Accounts, 1)
	a := r.Accounts[0]
	assert.Equal(t, "brokerage", a.Kind)
	assert.Equal(t, "60/40", a.Split)
	assert.True(t, a.Invested.Equal(usd(1000)), "invested = %v", a.Invested)
	for _, l := range a.Lines {
		if l.Symbol == "VWO" {
			assert.Nil(t, l.Shares, "VWO has no price")
		} else {
			assert.NotNil(t, l.Shares, "%s has a price", l.Symbol)
		}
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "2025-01-15", back["date"])
	assert.Len(t, back["warnings"], 1)
}

func TestPlanMarkdown_Outside(t *testing.T) {
	c := rebalance.DefaultCatalog()
	s, err := rebalance.NewSnapshot(c, day, "USD")
	require.NoError(t, err)
	p, err := rebalance.NewPlan(rebalance.Input{
		Catalog:  c,
		Snapshot: s,
		Accounts: []rebalance.Account{{ID: "B1", Kind: rebalance.Brokerage, Cash: usd(1000)}},
		Outside:  []rebalance.Outside{{Name: "alpaca", Value: usd(300), Symbols: []string{"VV", "VO", "VB"}}},
	})
	require.NoError(t, err)

	report := NewPlan(p, c)
	require.Len(t, report.Accounts[0].Outside, 1)
	out := PlanMarkdown(report)
	assert.Contains(t, out, "Counting $300.00 held in alpaca as VV, VO, VB.")

	d := parse(t, out)
	assert.Equal(t, []string{"VV", "$0.00", "$84.00", "$84.00", "n/a"}, row(d.tables[0], "VV"))
}
