package rebalance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Percent float64

// PercentOf returns the ratio r as a Percent.
func PercentOf(r decimal.Decimal) Percent {
	return Percent(r.Shift(2).InexactFloat64())
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.1f%%", float64(p))
}
