package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBeautify(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		factor string
		want   string
	}{
		{"rounds up to next ladder step", "19.95", "1.5", "34.95"},
		{"small price hits first step", "10", "1", "14.95"},
		{"exact ladder value moves to next step", "16", "1", "24.95"},
		{"one cent below a step", "15.99", "1", "19.95"},
		{"zero base", "0", "1.2", "14.95"},
		{"high price", "150", "1.2", "184.95"},
		{"decimal comma source rounded first", "20.333", "1", "24.95"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Beautify(d(tt.base), d(tt.factor))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
			assert.True(t, IsLadderPrice(got))
		})
	}
}

func TestBeautify_Errors(t *testing.T) {
	_, err := Beautify(d("200"), d("1"))
	assert.ErrorIs(t, err, ErrPriceOutOfRange)

	_, err = Beautify(d("196"), d("1"))
	assert.ErrorIs(t, err, ErrPriceOutOfRange, "199.95 has no strictly greater step")

	_, err = Beautify(d("10"), d("0"))
	assert.ErrorIs(t, err, ErrInvalidFactor)

	_, err = Beautify(d("-1"), d("1"))
	assert.ErrorIs(t, err, ErrNegativeBasePrice)
}

func TestBeautify_MatchesCentStepping(t *testing.T) {
	step := d("0.01")
	for _, base := range []string{"1.00", "12.34", "33.33", "47.10", "99.99", "120.00"} {
		for _, factor := range []string{"1.0", "1.2", "1.35", "1.5"} {
			price := d(base).Mul(d(factor)).Round(2).Add(ShippingFee)
			var want decimal.Decimal
			for {
				price = price.Add(step)
				if IsLadderPrice(price) {
					want = price
					break
				}
				if price.GreaterThan(MaxLadderPrice) {
					break
				}
			}
			got, err := Beautify(d(base), d(factor))
			if want.IsZero() {
				assert.ErrorIs(t, err, ErrPriceOutOfRange)
				continue
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "base=%s factor=%s want=%s got=%s", base, factor, want, got)
		}
	}
}

func TestLadder(t *testing.T) {
	l := Ladder()
	require.Len(t, l, 41)
	for i := 1; i < len(l); i++ {
		assert.True(t, l[i].GreaterThan(l[i-1]))
	}
	l[0] = decimal.Zero
	assert.Equal(t, "14.95", Ladder()[0].StringFixed(2), "Ladder returns a copy")
}

func TestNewPriceTool(t *testing.T) {
	pt, err := NewPriceTool(d("1.456"))
	require.NoError(t, err)
	assert.Equal(t, "1.46", pt.ZFactor.StringFixed(2))
	assert.False(t, pt.Active)
	pt.Activate()
	assert.True(t, pt.Active)

	_, err = NewPriceTool(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidFactor)
}
