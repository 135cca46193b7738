package rebalance

import (
	"github.com/shopspring/decimal"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// dec is a helper for test to create a decimal from a literal.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// allPrices returns a price of 100 USD for every symbol of the catalog.
func allPrices(c *Catalog) map[string]Money {
	prices := make(map[string]Money)
	for _, s := range c.Symbols() {
		prices[s] = USD(100)
	}
	return prices
}

// sumOrders adds up the amount of orders.
func sumOrders(orders []Order) Money {
	total := USD(0)
	for _, o := range orders {
		total = total.Add(o.Amount)
	}
	return total
}
