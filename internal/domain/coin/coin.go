// Package coin implements the fixed coin system accepted by the machine.
package coin

import (
	"github.com/shopspring/decimal"
)

// Denominations lists accepted coins in cents, ascending. Change vectors use the same order.
var Denominations = [...]int64{5, 10, 20, 50, 100}

// Change is a count per denomination, indexed like Denominations.
type Change [len(Denominations)]int64

// IsDenomination reports whether c is an accepted coin.
func IsDenomination(c int64) bool {
	for _, d := range Denominations {
		if d == c {
			return true
		}
	}
	return false
}

// ComputeChange breaks amount into the fewest coins, largest first.
// Greedy is optimal because the coin system is canonical; amount must be a
// non-negative multiple of 5, any remainder below 5 is dropped.
func ComputeChange(amount int64) Change {
	var out Change
	for i := len(Denominations) - 1; i >= 0 && amount > 0; i-- {
		d := Denominations[i]
		out[i] = amount / d
		amount -= out[i] * d
	}
	return out
}

// Total returns the value of the coins in cents.
func (c Change) Total() int64 {
	var sum int64
	for i, n := range c {
		sum += n * Denominations[i]
	}
	return sum
}

// Count returns the number of coins.
func (c Change) Count() int64 {
	var n int64
	for _, k := range c {
		n += k
	}
	return n
}

// Format renders cents as a fixed two-decimal string, e.g. 135 -> "1.35".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
