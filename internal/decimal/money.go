// Package decimal holds the money arithmetic shared by the tax utilities
// and the UBL renderer. Amounts are never carried as floats.
package decimal

import (
	"github.com/shopspring/decimal"
)

// Decimal places used when rendering UBL-TR numbers
const (
	AmountPlaces   int32 = 2
	QuantityPlaces int32 = 3
	PricePlaces    int32 = 4
)

// Zero is decimal zero
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// FromInt creates decimal from int
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// Round rounds half away from zero to the given number of places.
// For the non-negative amounts on an invoice this is plain round-half-up.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// RoundAmount rounds a monetary value to kuruş (2 places)
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// Percent computes amount * (rate/100) with no rounding
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return Zero
	}
	return amount.Mul(rate).Div(hundred)
}

// FormatAmount renders a monetary amount with exactly 2 decimals
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPlaces)
}

// FormatQuantity renders a quantity with exactly 3 decimals
func FormatQuantity(d decimal.Decimal) string {
	return d.StringFixed(QuantityPlaces)
}

// FormatPrice renders a unit price with exactly 4 decimals
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(PricePlaces)
}
