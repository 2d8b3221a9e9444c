// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
)

// RateEncodingFactor is used when encoding an exchange rate as an integer.
// An order's rate is BidAmount * RateEncodingFactor / AskAmount.
const RateEncodingFactor = 1e8

// MaxAmountBits is the bit width of the largest valid order amount.
const MaxAmountBits = 128

// MaxAmount is the largest valid order or fill amount, 2^128 - 1. Products of
// two amounts therefore always fit in 256 bits.
var MaxAmount = func() uint256.Int {
	var m uint256.Int
	m.Lsh(uint256.NewInt(1), MaxAmountBits)
	m.SubUint64(&m, 1)
	return m
}()

// ValidAmount checks that the amount is in the range [1, MaxAmount].
func ValidAmount(amt *uint256.Int) bool {
	return amt != nil && !amt.IsZero() && amt.BitLen() <= MaxAmountBits
}

// MulDiv computes floor(x * y / d). x and y must not exceed MaxAmount, and d
// must be non-zero.
func MulDiv(x, y, d *uint256.Int) uint256.Int {
	var z uint256.Int
	z.Mul(x, y)
	z.Div(&z, d)
	return z
}

// Rate computes the encoded rate, bid * RateEncodingFactor / ask.
func Rate(ask, bid *uint256.Int) uint256.Int {
	if ask.IsZero() {
		return uint256.Int{}
	}
	return MulDiv(bid, uint256.NewInt(RateEncodingFactor), ask)
}

// ComparePrice compares the prices bid1/ask1 and bid2/ask2 exactly, returning
// -1, 0, or 1. Neither ask may be zero.
func ComparePrice(ask1, bid1, ask2, bid2 *uint256.Int) int {
	var l, r uint256.Int
	l.Mul(bid1, ask2)
	r.Mul(bid2, ask1)
	return l.Cmp(&r)
}

// MinAmount returns the smaller of a and b.
func MinAmount(a, b *uint256.Int) uint256.Int {
	if a.Lt(b) {
		return *a
	}
	return *b
}

// ParseAmount parses a base-10 amount string and checks that it is a valid
// order amount.
func ParseAmount(s string) (uint256.Int, error) {
	amt, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !ValidAmount(amt) {
		return uint256.Int{}, fmt.Errorf("amount %q out of range", s)
	}
	return *amt, nil
}
