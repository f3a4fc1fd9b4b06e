// Package pricing derives marketplace sell prices from shop prices and
// calculates per-article margins.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrPriceOutOfRange   = errors.New("pricing: price exceeds the price ladder")
	ErrNoActivePriceTool = errors.New("pricing: no active price factor")
	ErrInvalidFactor     = errors.New("pricing: factor must be positive")
	ErrNegativeBasePrice = errors.New("pricing: base price must not be negative")
	ErrPriceToolNotFound = errors.New("pricing: price tool not found")
)

// ShippingFee is added to every marketplace price before rounding up to the ladder
var ShippingFee = decimal.RequireFromString("3.95")

// MaxLadderPrice bounds the ladder search
var MaxLadderPrice = decimal.NewFromInt(200)

var ladder = mustLadder(
	"14.95", "17.95", "19.95", "24.95", "27.95", "29.95", "34.95", "37.95", "39.95",
	"44.95", "47.95", "49.95", "54.95", "59.95", "64.95", "69.95", "74.95", "79.95",
	"84.95", "89.95", "99.95", "104.95", "109.95", "114.95", "119.95", "124.95",
	"129.95", "132.95", "134.95", "139.95", "144.95", "149.95", "154.95", "159.95",
	"164.95", "169.95", "174.95", "179.95", "184.95", "189.95", "199.95",
)

func mustLadder(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

// Ladder returns a copy of the price ladder in ascending order
func Ladder() []decimal.Decimal {
	out := make([]decimal.Decimal, len(ladder))
	copy(out, ladder)
	return out
}

// IsLadderPrice reports whether p is one of the ladder prices
func IsLadderPrice(p decimal.Decimal) bool {
	for _, l := range ladder {
		if l.Equal(p) {
			return true
		}
	}
	return false
}

// Beautify applies the markup factor and the shipping fee to a base price and
// returns the smallest ladder price strictly greater than the result.
// Stepping cent by cent from round(base*factor, 2)+ShippingFee yields the same value.
func Beautify(base, factor decimal.Decimal) (decimal.Decimal, error) {
	if !factor.IsPositive() {
		return decimal.Zero, ErrInvalidFactor
	}
	if base.IsNegative() {
		return decimal.Zero, ErrNegativeBasePrice
	}
	raw := base.Mul(factor).Round(2).Add(ShippingFee)
	for _, p := range ladder {
		if p.GreaterThan(raw) {
			return p, nil
		}
	}
	return decimal.Zero, ErrPriceOutOfRange
}
