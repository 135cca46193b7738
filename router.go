package rebalance

// Route moves target dollars between the Roth and the Traditional accounts so
// that the riskiest funds sit in the Roth account, where growth is never taxed.
//
// Both accounts' targets are pooled symbol by symbol. The pool is walked in
// RoutingOrder and the Roth account takes, for each symbol,
// min(pool, remaining capacity), its capacity being rothTotal. The
// Traditional account receives what is left of the pool.
//
// The total of each symbol across the two accounts is unchanged, the Roth
// targets sum to rothTotal, and the Traditional ones to the rest of the pool.
func (c *Catalog) Route(roth, traditional Targets, rothTotal Money) (Targets, Targets) {
	var rothID, tradID string
	if len(roth) > 0 {
		rothID = roth[0].Account
	}
	if len(traditional) > 0 {
		tradID = traditional[0].Account
	}

	capacity := rothTotal
	routedRoth := make(Targets, 0, len(c.funds))
	routedTrad := make(Targets, 0, len(c.funds))
	for _, f := range c.RoutingOrder() {
		pool := roth.Value(f.Symbol).Add(traditional.Value(f.Symbol))
		take := pool.Min(capacity.PositivePart())
		capacity = capacity.Sub(take)
		routedRoth = append(routedRoth, TargetEntry{Account: rothID, Symbol: f.Symbol, Value: take})
		routedTrad = append(routedTrad, TargetEntry{Account: tradID, Symbol: f.Symbol, Value: pool.Sub(take)})
	}
	return routedRoth.sorted(), routedTrad.sorted()
}

// Pool returns the combined targets of several accounts, symbol by symbol.
func (c *Catalog) Pool(targets ...Targets) Targets {
	pool := make(Targets, 0, len(c.funds))
	for _, f := range c.funds {
		var total Money
		for _, t := range targets {
			total = total.Add(t.Value(f.Symbol))
		}
		pool = append(pool, TargetEntry{Symbol: f.Symbol, Value: total})
	}
	return pool
}
