// Package rebalance computes how to bring a portfolio of index funds, spread
// over a brokerage, a Roth IRA and a Traditional IRA account, back toward a
// target allocation using only new cash.
//
// The engine is a pure function of its input:
//   - Catalog: the immutable table of funds, their asset class (stock or
//     bond), their weight within the class and their risk rank.
//   - Snapshot: the current holdings of each account, aggregated from the
//     transaction Ledger and valued at current prices.
//   - Account: the tax treatment of an account, its stock/bond Split and the
//     cash being added to it.
//
// NewPlan derives a target per symbol and per account
// (total × split × weight), routes the riskiest funds of the two retirement
// accounts into the Roth account (Catalog.Route), and converts the cash of
// each account into buy orders: deficits against targets, proportional
// distribution, and lot rounding with remainder carry (Catalog.Optimize).
// Nothing is ever sold.
//
// Fatal input problems are typed errors (*UnknownSymbolError,
// *InvalidSplitError, *NegativeCashError); a missing price is reported as an
// *InsufficientDataError warning in Plan.Warnings.
package rebalance
