package tax_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGetVATRateForService(t *testing.T) {
	categories := []tax.ServiceCategory{
		tax.CategoryLaundry,
		tax.CategoryDryCleaning,
		tax.CategoryCarpetCleaning,
		tax.CategoryUpholsteryCleaning,
		tax.CategoryCurtainCleaning,
		tax.CategoryIroning,
		tax.CategoryStainRemoval,
		tax.CategoryOther,
	}
	for _, c := range categories {
		assert.Equal(t, "18", tax.GetVATRateForService(c).String(), string(c))
	}

	// Unknown categories never fail
	assert.Equal(t, "18", tax.GetVATRateForService("SHOE_REPAIR").String())
	assert.Equal(t, "18", tax.GetVATRateForService("").String())
}

func TestCalculateTurkishVAT(t *testing.T) {
	calc, err := tax.CalculateTurkishVAT(d("100"), d("18"), 2)
	require.NoError(t, err)
	assert.Equal(t, "100.00", calc.NetAmount.StringFixed(2))
	assert.Equal(t, "18.00", calc.VATAmount.StringFixed(2))
	assert.Equal(t, "118.00", calc.GrossAmount.StringFixed(2))
	assert.Equal(t, "18.00", calc.RoundedVATAmount.StringFixed(2))
	assert.Equal(t, "118.00", calc.RoundedGrossAmount.StringFixed(2))
}

func TestCalculateTurkishVAT_KeepsUnroundedFields(t *testing.T) {
	calc, err := tax.CalculateTurkishVAT(d("33.335"), d("18"), 2)
	require.NoError(t, err)
	assert.Equal(t, "6.0003", calc.VATAmount.String())
	assert.Equal(t, "39.3353", calc.GrossAmount.String())
	assert.Equal(t, "6", calc.RoundedVATAmount.String())
	assert.Equal(t, "39.34", calc.RoundedGrossAmount.String())
}

func TestCalculateTurkishVAT_RoundsHalfUp(t *testing.T) {
	// 12.5 * 1% = 0.125, banker's rounding would give 0.12
	calc, err := tax.CalculateTurkishVAT(d("12.5"), d("1"), 2)
	require.NoError(t, err)
	assert.Equal(t, "0.13", calc.RoundedVATAmount.StringFixed(2))

	calc, err = tax.CalculateTurkishVAT(d("12.5"), d("1"), 3)
	require.NoError(t, err)
	assert.Equal(t, "0.125", calc.RoundedVATAmount.StringFixed(3))
}

func TestCalculateTurkishVAT_Precision(t *testing.T) {
	tests := []struct {
		precision int32
		vat       string
		gross     string
	}{
		{2, "0.13", "12.63"},
		{0, "0", "13"},
		{3, "0.125", "12.625"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.precision), func(t *testing.T) {
			calc, err := tax.CalculateTurkishVAT(d("12.5"), d("1"), tt.precision)
			require.NoError(t, err)
			assert.True(t, calc.RoundedVATAmount.Equal(d(tt.vat)), calc.RoundedVATAmount.String())
			assert.True(t, calc.RoundedGrossAmount.Equal(d(tt.gross)), calc.RoundedGrossAmount.String())
		})
	}

	_, err := tax.CalculateTurkishVAT(d("12.5"), d("1"), -1)
	var taxErr *tax.TaxError
	require.ErrorAs(t, err, &taxErr)
	assert.Equal(t, tax.ErrCodeInvalidPrecision, taxErr.Code)
	assert.Equal(t, "precision", taxErr.Field)
}

func TestCalculateTurkishVAT_Rejects(t *testing.T) {
	tests := []struct {
		name string
		net  string
		rate string
		code string
	}{
		{"negative amount", "-1", "18", tax.ErrCodeNegativeAmount},
		{"negative rate", "100", "-1", tax.ErrCodeRateOutOfRange},
		{"rate above 100", "100", "100.01", tax.ErrCodeRateOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := tax.CalculateTurkishVAT(d(tt.net), d(tt.rate), 2)
			require.Error(t, err)
			assert.Nil(t, calc)

			var taxErr *tax.TaxError
			require.ErrorAs(t, err, &taxErr)
			assert.Equal(t, tt.code, taxErr.Code)
		})
	}

	// Boundaries are accepted
	_, err := tax.CalculateTurkishVAT(d("0"), d("0"), 2)
	require.NoError(t, err)
	_, err = tax.CalculateTurkishVAT(d("10"), d("100"), 2)
	require.NoError(t, err)
}

func TestCalculateOrderTaxTotals(t *testing.T) {
	eight := d("8")
	totals := tax.CalculateOrderTaxTotals([]tax.OrderTaxItem{
		{Quantity: d("2"), UnitPrice: d("50"), Category: tax.CategoryLaundry},
		{Quantity: d("1"), UnitPrice: d("33.335"), VATRate: &eight},
	})

	assert.Equal(t, "133.34", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "20.67", totals.TotalVAT.StringFixed(2))
	assert.Equal(t, "154.01", totals.Total.StringFixed(2))

	require.Len(t, totals.VATBreakdown, 2)
	assert.Equal(t, "100.00", totals.VATBreakdown["18"].TaxableAmount.StringFixed(2))
	assert.Equal(t, "18.00", totals.VATBreakdown["18"].VATAmount.StringFixed(2))
	assert.Equal(t, "33.34", totals.VATBreakdown["8"].TaxableAmount.StringFixed(2))
	assert.Equal(t, "2.67", totals.VATBreakdown["8"].VATAmount.StringFixed(2))

	buckets := totals.Buckets()
	require.Len(t, buckets, 2)
	assert.Equal(t, "8", buckets[0].Rate.String())
	assert.Equal(t, "18", buckets[1].Rate.String())
}

// Rounding each line first would give 0.03 VAT here; the totals round once.
func TestCalculateOrderTaxTotals_NoPerLineDrift(t *testing.T) {
	items := []tax.OrderTaxItem{
		{Quantity: d("1"), UnitPrice: d("0.03"), Category: tax.CategoryIroning},
		{Quantity: d("1"), UnitPrice: d("0.03"), Category: tax.CategoryIroning},
		{Quantity: d("1"), UnitPrice: d("0.03"), Category: tax.CategoryIroning},
	}
	totals := tax.CalculateOrderTaxTotals(items)

	assert.Equal(t, "0.09", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.02", totals.TotalVAT.StringFixed(2))
	assert.Equal(t, "0.11", totals.Total.StringFixed(2))
}

func TestCalculateOrderTaxTotals_TotalIsSumOfParts(t *testing.T) {
	prices := []string{"0.005", "19.995", "7.777", "0.015", "1234.565", "99.999", "0.001"}
	quantities := []string{"1", "3", "2.5", "7", "1", "0.333", "13"}

	var items []tax.OrderTaxItem
	for i := range prices {
		items = append(items, tax.OrderTaxItem{
			Quantity:  d(quantities[i]),
			UnitPrice: d(prices[i]),
			Category:  tax.CategoryDryCleaning,
		})
		totals := tax.CalculateOrderTaxTotals(items)
		assert.True(t, totals.Subtotal.Add(totals.TotalVAT).Equal(totals.Total),
			"subtotal %s + vat %s != total %s", totals.Subtotal, totals.TotalVAT, totals.Total)
		assert.True(t, totals.Total.Equal(totals.Total.Round(2)))
	}
}

// Line values are already rounded; the header is their exact sum.
func TestSumRoundedLines(t *testing.T) {
	totals := tax.SumRoundedLines([]tax.LineTax{
		{Rate: d("18"), Net: d("0.25"), VAT: d("0.05")},
		{Rate: d("18"), Net: d("0.25"), VAT: d("0.05")},
		{Rate: d("8"), Net: d("0.33"), VAT: d("0.03")},
	})

	assert.Equal(t, "0.83", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.13", totals.TotalVAT.StringFixed(2))
	assert.Equal(t, "0.96", totals.Total.StringFixed(2))

	require.Len(t, totals.VATBreakdown, 2)
	assert.Equal(t, "0.50", totals.VATBreakdown["18"].TaxableAmount.StringFixed(2))
	assert.Equal(t, "0.10", totals.VATBreakdown["18"].VATAmount.StringFixed(2))
	assert.Equal(t, "0.03", totals.VATBreakdown["8"].VATAmount.StringFixed(2))

	assert.Empty(t, tax.SumRoundedLines(nil).VATBreakdown)
}

func TestCalculateOrderTaxTotals_Empty(t *testing.T) {
	totals := tax.CalculateOrderTaxTotals(nil)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.TotalVAT.IsZero())
	assert.True(t, totals.Total.IsZero())
	assert.Empty(t, totals.VATBreakdown)
}
