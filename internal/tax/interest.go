package tax

import (
	"github.com/shopspring/decimal"

	money "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/decimal"
)

// DefaultLatePaymentRate is the annual interest percentage used when none is configured
const DefaultLatePaymentRate int64 = 12

var daysPerYearPercent = decimal.NewFromInt(365 * 100)

// CalculateLatePaymentInterest returns simple daily interest on an overdue
// amount: amount * annualRate/365/100 * days, rounded to kuruş. Zero when
// the payment is not overdue.
func CalculateLatePaymentInterest(amount decimal.Decimal, daysPastDue int, annualRate decimal.Decimal) decimal.Decimal {
	if daysPastDue <= 0 {
		return money.Zero
	}
	days := decimal.NewFromInt(int64(daysPastDue))
	return money.RoundAmount(amount.Mul(annualRate).Mul(days).Div(daysPerYearPercent))
}
