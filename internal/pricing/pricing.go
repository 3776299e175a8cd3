// Package pricing computes the commission-adjusted price of a listing and its
// inverse. All monetary outputs are rounded to two decimals, half-up, with a
// fixed dot separator regardless of locale.
package pricing

import (
	"math"
	"strconv"
)

// Calculator applies a fixed commission rate. The rate is injected at
// construction (config), never read from package state.
type Calculator struct {
	Rate float64
}

// New returns a Calculator; a non-positive rate falls back to 20%.
func New(rate float64) Calculator {
	if rate <= 0 {
		rate = 0.20
	}
	return Calculator{Rate: rate}
}

// Apply returns the commission-inclusive price. Applying it exactly once per
// acceptance is the caller's invariant: only the first transition out of
// needs-review may invoke it.
func (c Calculator) Apply(price float64) float64 {
	return Round2(price * (1 + c.Rate))
}

// Base backs out the pre-commission price from a commission-inclusive one.
func (c Calculator) Base(price float64) float64 {
	return Round2(price / (1 + c.Rate))
}

// Portion returns the commission share of a commission-inclusive price.
// Computed against the rounded base so that Base + Portion == price.
func (c Calculator) Portion(price float64) float64 {
	return Round2(price - c.Base(price))
}

// Round2 rounds half-up to two decimals.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// FormatAmount renders an amount with exactly two decimals and a dot
// separator, the format the directory stores balances in.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}
