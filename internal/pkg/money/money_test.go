package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"19.995", 2000},
		{"19.994", 1999},
		{"10.00", 1000},
		{"0.005", 1},
		{"0.004", 0},
		{"25", 2500},
		{"-19.995", -2000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnits_OutOfRange(t *testing.T) {
	got, err := ToMinorUnits(decimal.RequireFromString("92233720368547758.07"))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	for _, in := range []string{"92233720368547758.08", "-92233720368547758.09", "184467440737095520"} {
		_, err := ToMinorUnits(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, ErrAmountOutOfRange, in)
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.True(t, FromMinorUnits(2500).Equal(decimal.NewFromInt(25)))
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(decimal.RequireFromString("10.00"), 2)
	assert.True(t, got.Equal(decimal.NewFromInt(20)))
}

func TestCurrencyHelpers(t *testing.T) {
	assert.Equal(t, "EUR", NormalizeCurrency(" eur "))
	assert.True(t, ValidCurrency("EUR"))
	assert.False(t, ValidCurrency("EU"))
	assert.False(t, ValidCurrency("eur"))
	assert.False(t, ValidCurrency("E1R"))
}

func TestTotals(t *testing.T) {
	totals := Totals{}
	totals.Add("EUR", decimal.NewFromInt(20))
	totals.Add("EUR", decimal.NewFromInt(5))
	totals.Add("USD", decimal.NewFromInt(1))

	assert.Equal(t, 2, totals.Currencies())
	assert.True(t, totals.Get("EUR").Equal(decimal.NewFromInt(25)))
	assert.True(t, totals.Get("GBP").IsZero())
}
