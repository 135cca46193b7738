package renderer

import (
	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
)

// Plan is the rebalancing plan as reported to the user, in json or markdown.
// Numbers keep their exact decimal types so that they carry their own
// formatting.
type Plan struct {
	ID       string        `json:"id"`
	Date     date.Date     `json:"date"`
	Currency string        `json:"currency"`
	Accounts []PlanAccount `json:"accounts"`
	// RetirementTarget is the combined target of the Roth and Traditional
	// accounts, present only when risk placement was applied.
	RetirementTarget []PlanLine `json:"retirementTarget,omitempty"`
	Warnings         []string   `json:"warnings,omitempty"`
}

// PlanAccount is the plan of one account.
type PlanAccount struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Title    string          `json:"title"`
	Split    string          `json:"split"`
	Routed   bool            `json:"routed,omitempty"`
	Cash     rebalance.Money `json:"cash"`
	Current  rebalance.Money `json:"current"` // value of the holdings
	Total    rebalance.Money `json:"total"`   // current + cash
	Invested rebalance.Money `json:"invested"`
	Leftover rebalance.Money `json:"leftover"`
	// Stock:bond ratio of the holdings, before and after the purchases,
	// and of the targets.
	CurrentRatio Ratio      `json:"currentRatio"`
	AfterRatio   Ratio      `json:"afterRatio"`
	TargetRatio  Ratio      `json:"targetRatio"`
	Lines        []PlanLine `json:"lines"`
	// Outside holdings counted in the targets.
	Outside []PlanOutside `json:"outside,omitempty"`
}

// PlanOutside is value held outside the plan and the funds it stands for.
type PlanOutside struct {
	Name    string          `json:"name"`
	Value   rebalance.Money `json:"value"`
	Symbols []string        `json:"symbols"`
}

// PlanLine is one symbol of an account plan.
type PlanLine struct {
	Symbol   string              `json:"symbol"`
	Class    string              `json:"class"`
	Current  rebalance.Money     `json:"current"`
	Target   rebalance.Money     `json:"target"`
	Purchase rebalance.Money     `json:"purchase"`
	Shares   *rebalance.Quantity `json:"shares,omitempty"` // nil when not priced
}

// Ratio is the share of stocks and bonds in a value.
type Ratio struct {
	Stock rebalance.Percent `json:"stock"`
	Bond  rebalance.Percent `json:"bond"`
}

func (r Ratio) String() string {
	if r.Stock == 0 && r.Bond == 0 {
		return "n/a"
	}
	return r.Stock.String() + " : " + r.Bond.String()
}

// newRatio returns the ratio of stock to stock+bond.
func newRatio(stock, bond rebalance.Money) Ratio {
	total := stock.Add(bond)
	if !total.IsPositive() {
		return Ratio{}
	}
	return Ratio{
		Stock: rebalance.PercentOf(stock.Ratio(total)),
		Bond:  rebalance.PercentOf(bond.Ratio(total)),
	}
}

// NewPlan prepares a plan for reporting.
func NewPlan(p *rebalance.Plan, c *rebalance.Catalog) *Plan {
	r := &Plan{
		ID:       p.ID.String(),
		Date:     p.On,
		Currency: p.Currency,
		Accounts: make([]PlanAccount, 0, len(p.Accounts)),
	}
	for _, a := range p.Accounts {
		r.Accounts = append(r.Accounts, newPlanAccount(a, c, p.Currency))
	}
	for _, t := range p.RetirementTarget {
		r.RetirementTarget = append(r.RetirementTarget, PlanLine{
			Symbol: t.Symbol,
			Class:  class(c, t.Symbol),
			Target: t.Value,
		})
	}
	for _, w := range p.Warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}
	return r
}

func newPlanAccount(a rebalance.AccountPlan, c *rebalance.Catalog, currency string) PlanAccount {
	zero := rebalance.M(0, currency)
	pa := PlanAccount{
		ID:       a.Account.ID,
		Kind:     a.Account.Kind.String(),
		Title:    a.Account.String(),
		Split:    a.Account.EffectiveSplit().String(),
		Routed:   a.Routed,
		Cash:     a.Account.Cash,
		Total:    a.Total,
		Invested: a.Invested(),
		Leftover: a.Leftover,
		Current:  zero,
	}
	for _, o := range a.Outside {
		pa.Outside = append(pa.Outside, PlanOutside{Name: o.Name, Value: o.Value, Symbols: o.Symbols})
	}
	// current and after-purchase value per class.
	now := map[rebalance.AssetClass]rebalance.Money{rebalance.Stock: zero, rebalance.Bond: zero}
	after := map[rebalance.AssetClass]rebalance.Money{rebalance.Stock: zero, rebalance.Bond: zero}
	for _, t := range a.Targets {
		line := PlanLine{
			Symbol:   t.Symbol,
			Class:    class(c, t.Symbol),
			Current:  a.Current(t.Symbol),
			Target:   t.Value,
			Purchase: zero,
		}
		if o, ok := a.Order(t.Symbol); ok {
			line.Purchase = o.Amount
			if o.Priced {
				shares := o.Shares
				line.Shares = &shares
			}
		}
		if cl, err := c.AssetClass(t.Symbol); err == nil {
			now[cl] = now[cl].Add(line.Current)
			after[cl] = after[cl].Add(line.Current).Add(line.Purchase)
		}
		pa.Current = pa.Current.Add(line.Current)
		pa.Lines = append(pa.Lines, line)
	}
	pa.CurrentRatio = newRatio(now[rebalance.Stock], now[rebalance.Bond])
	pa.AfterRatio = newRatio(after[rebalance.Stock], after[rebalance.Bond])
	pa.TargetRatio = newRatio(a.Targets.ClassTotal(c, rebalance.Stock), a.Targets.ClassTotal(c, rebalance.Bond))
	return pa
}

func class(c *rebalance.Catalog, symbol string) string {
	cl, err := c.AssetClass(symbol)
	if err != nil {
		return ""
	}
	return cl.String()
}
