// Package money holds the decimal helpers shared by the cart and checkout.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ErrAmountOutOfRange is returned when an amount has no int64 minor-unit form
var ErrAmountOutOfRange = errors.New("amount out of range for minor units")

// ToMinorUnits converts an amount to the currency's minor unit (cents),
// rounding half away from zero: 19.995 becomes 2000.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, ErrAmountOutOfRange
	}
	return minor.IntPart(), nil
}

// FromMinorUnits converts a minor-unit amount back to a decimal
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// LineTotal is unitPrice * quantity
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// NormalizeCurrency upper-cases and trims an ISO-4217 code
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCurrency reports whether code looks like an ISO-4217 alphabetic code
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Totals are amounts grouped by currency
type Totals map[string]decimal.Decimal

// Add accumulates amount under currency
func (t Totals) Add(currency string, amount decimal.Decimal) {
	t[currency] = t[currency].Add(amount)
}

// Currencies returns the number of distinct currencies present
func (t Totals) Currencies() int {
	return len(t)
}

// Get returns the amount for currency, zero when absent
func (t Totals) Get(currency string) decimal.Decimal {
	return t[currency]
}
