package rebalance

import (
	"fmt"
	"slices"

	"github.com/etnz/rebalance/date"
	"github.com/google/uuid"
)

// Input is everything a rebalancing run needs. It is entirely in memory.
type Input struct {
	Catalog  *Catalog
	Snapshot *Snapshot
	Accounts []Account
	Prices   map[string]Money // current price per symbol, may be incomplete
	// Outside holdings count toward the Brokerage account allocation.
	Outside []Outside
}

// Outside is value held in an account the plan does not manage, like a
// separate stock trading account. It counts toward the brokerage allocation
// as if it were held in Symbols, so the brokerage buys less of them.
type Outside struct {
	Name    string
	Value   Money
	Symbols []string
}

// outsideTotal returns the sum of the outside holdings.
func outsideTotal(outside []Outside, currency string) Money {
	total := M(0, currency)
	for _, o := range outside {
		total = total.Add(o.Value)
	}
	return total
}

// AccountPlan is the result of a run for one account.
type AccountPlan struct {
	Account  Account
	Total    Money     // holdings value plus the cash addition
	Holdings []Holding // current holdings, sorted by symbol
	Targets  Targets
	Orders   []Order
	Leftover Money // cash left unplaced by lot rounding
	Routed   bool  // targets were moved by the risk placement
	// Outside holdings counted in the targets, Brokerage account only.
	Outside []Outside
}

// Current returns the current value of a symbol in the account.
func (p AccountPlan) Current(symbol string) Money {
	for _, h := range p.Holdings {
		if h.Symbol == symbol {
			return h.MarketValue
		}
	}
	return M(0, p.Total.Currency())
}

// Order returns the order for a symbol, if any.
func (p AccountPlan) Order(symbol string) (Order, bool) {
	for _, o := range p.Orders {
		if o.Symbol == symbol {
			return o, true
		}
	}
	return Order{}, false
}

// Invested returns the sum of the orders.
func (p AccountPlan) Invested() Money {
	total := M(0, p.Total.Currency())
	for _, o := range p.Orders {
		total = total.Add(o.Amount)
	}
	return total
}

// Plan is the outcome of a rebalancing run: targets and buy orders for each
// account, and the warnings that did not prevent computing them.
type Plan struct {
	ID       uuid.UUID
	On       date.Date
	Currency string
	Accounts []AccountPlan // in Input order
	// RetirementTarget is the pooled target of the Roth and Traditional
	// accounts when risk placement applied.
	RetirementTarget Targets
	Warnings         []error
}

// Account returns the plan of an account kind.
func (p *Plan) Account(kind AccountKind) (AccountPlan, bool) {
	for _, a := range p.Accounts {
		if a.Account.Kind == kind {
			return a, true
		}
	}
	return AccountPlan{}, false
}

// NewPlan runs the rebalancing engine.
//
// Input is validated first; a fatal error (*InvalidSplitError,
// *NegativeCashError, *UnknownSymbolError or an inconsistent account list)
// is returned with no plan. Then, per account, the target of each symbol is
// computed from the account total (holdings plus cash). The Brokerage total
// also includes the outside holdings, whose value is then taken off the
// targets of the symbols they stand for. The Roth and Traditional targets
// are routed by risk when both accounts are present, and the cash of each
// account is turned into buy orders.
func NewPlan(in Input) (*Plan, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	c, s := in.Catalog, in.Snapshot
	currency := s.Currency()

	prices := make(map[string]Money, len(in.Prices))
	for symbol, p := range s.Prices() {
		prices[symbol] = p
	}
	for symbol, p := range in.Prices {
		prices[symbol] = p
	}

	plan := &Plan{ID: uuid.New(), On: s.On(), Currency: currency}
	roth, trad := -1, -1
	for i, account := range in.Accounts {
		if account.Cash.Currency() == "" {
			account.Cash = M(account.Cash.Decimal(), currency)
		}
		total := s.TotalValue(account.ID).Add(account.Cash)
		var outside []Outside
		if account.Kind == Brokerage {
			outside = in.Outside
		}
		targets, err := c.Targets(account, total.Add(outsideTotal(outside, currency)))
		if err != nil {
			return nil, err
		}
		plan.Accounts = append(plan.Accounts, AccountPlan{
			Account:  account,
			Total:    total,
			Holdings: s.Holdings(account.ID),
			Targets:  c.Offset(targets, outside),
			Outside:  outside,
		})
		switch account.Kind {
		case RothIRA:
			roth = i
		case TraditionalIRA:
			trad = i
		}
	}

	if roth >= 0 && trad >= 0 {
		r, t := &plan.Accounts[roth], &plan.Accounts[trad]
		plan.RetirementTarget = c.Pool(r.Targets, t.Targets)
		r.Targets, t.Targets = c.Route(r.Targets, t.Targets, r.Total)
		r.Routed, t.Routed = true, true
	}

	for i := range plan.Accounts {
		a := &plan.Accounts[i]
		current := make(map[string]Money, len(a.Holdings))
		for _, h := range a.Holdings {
			current[h.Symbol] = h.MarketValue
		}
		orders, leftover, warnings := c.Optimize(a.Account, a.Targets, current, prices)
		a.Orders, a.Leftover = orders, leftover
		plan.Warnings = append(plan.Warnings, warnings...)
	}
	return plan, nil
}

// validate checks the whole input before anything is computed.
func validate(in Input) error {
	if in.Catalog == nil || in.Snapshot == nil {
		return fmt.Errorf("invalid input: catalog and snapshot are required")
	}
	seenKinds := make(map[AccountKind]string)
	seenIDs := make(map[string]bool)
	for _, a := range in.Accounts {
		if err := a.Validate(); err != nil {
			return err
		}
		if a.ID == "" {
			return fmt.Errorf("invalid input: %s account has no identifier", a.Kind.Title())
		}
		if a.Kind != Brokerage && !a.Kind.IsRetirement() {
			return fmt.Errorf("invalid input: account %s has no kind", a.ID)
		}
		if other, exists := seenKinds[a.Kind]; exists {
			return fmt.Errorf("invalid input: accounts %s and %s are both %s accounts", other, a.ID, a.Kind.Title())
		}
		if c := a.Cash.Currency(); c != "" && c != in.Snapshot.Currency() {
			return fmt.Errorf("invalid input: account %s cash is in %s, holdings are in %s", a.ID, c, in.Snapshot.Currency())
		}
		if seenIDs[a.ID] {
			return fmt.Errorf("invalid input: account %s is listed twice", a.ID)
		}
		seenKinds[a.Kind], seenIDs[a.ID] = a.ID, true
	}
	if len(in.Outside) > 0 && !slices.ContainsFunc(in.Accounts, func(a Account) bool { return a.Kind == Brokerage }) {
		return fmt.Errorf("invalid input: outside holdings count toward the brokerage account, there is none")
	}
	for _, o := range in.Outside {
		if o.Value.IsNegative() {
			return fmt.Errorf("invalid input: outside holdings %s are negative (%s)", o.Name, o.Value)
		}
		if c := o.Value.Currency(); c != "" && c != in.Snapshot.Currency() {
			return fmt.Errorf("invalid input: outside holdings %s are in %s, holdings are in %s", o.Name, c, in.Snapshot.Currency())
		}
		if len(o.Symbols) == 0 {
			return fmt.Errorf("invalid input: outside holdings %s stand for no fund", o.Name)
		}
		for _, symbol := range o.Symbols {
			if !in.Catalog.Has(symbol) {
				return &UnknownSymbolError{Symbol: symbol, Where: "outside holdings " + o.Name}
			}
		}
	}
	for symbol := range in.Prices {
		if !in.Catalog.Has(symbol) {
			return &UnknownSymbolError{Symbol: symbol, Where: "price list"}
		}
	}
	for _, account := range in.Snapshot.Accounts() {
		for _, h := range in.Snapshot.Holdings(account) {
			if !in.Catalog.Has(h.Symbol) {
				return &UnknownSymbolError{Symbol: h.Symbol, Where: "holding of account " + account}
			}
		}
	}
	return nil
}
