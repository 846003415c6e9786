package tax

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	money "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/decimal"
)

// ServiceCategory groups laundry services for KDV purposes
type ServiceCategory string

const (
	CategoryLaundry            ServiceCategory = "LAUNDRY"
	CategoryDryCleaning        ServiceCategory = "DRY_CLEANING"
	CategoryCarpetCleaning     ServiceCategory = "CARPET_CLEANING"
	CategoryUpholsteryCleaning ServiceCategory = "UPHOLSTERY_CLEANING"
	CategoryCurtainCleaning    ServiceCategory = "CURTAIN_CLEANING"
	CategoryIroning            ServiceCategory = "IRONING"
	CategoryStainRemoval       ServiceCategory = "STAIN_REMOVAL"
	CategoryOther              ServiceCategory = "OTHER"
)

// StandardVATRate is the general KDV rate applied when no category matches
const StandardVATRate int64 = 18

var serviceVATRates = map[ServiceCategory]int64{
	CategoryLaundry:            18,
	CategoryDryCleaning:        18,
	CategoryCarpetCleaning:     18,
	CategoryUpholsteryCleaning: 18,
	CategoryCurtainCleaning:    18,
	CategoryIroning:            18,
	CategoryStainRemoval:       18,
	CategoryOther:              18,
}

// GetVATRateForService returns the KDV percentage for a service category.
// Unknown categories fall back to the standard rate.
func GetVATRateForService(category ServiceCategory) decimal.Decimal {
	if rate, ok := serviceVATRates[category]; ok {
		return decimal.NewFromInt(rate)
	}
	return decimal.NewFromInt(StandardVATRate)
}

// VATCalculation holds both the exact and the rounded VAT figures.
// The unrounded fields are kept for aggregation across lines.
type VATCalculation struct {
	NetAmount          decimal.Decimal `json:"netAmount"`
	VATRate            decimal.Decimal `json:"vatRate"`
	VATAmount          decimal.Decimal `json:"vatAmount"`
	GrossAmount        decimal.Decimal `json:"grossAmount"`
	RoundedVATAmount   decimal.Decimal `json:"roundedVatAmount"`
	RoundedGrossAmount decimal.Decimal `json:"roundedGrossAmount"`
}

// CalculateTurkishVAT computes KDV for a net amount. precision is the number
// of decimals used for the rounded fields; 0 rounds to whole lira.
func CalculateTurkishVAT(netAmount, vatRate decimal.Decimal, precision int32) (*VATCalculation, error) {
	if netAmount.IsNegative() {
		return nil, NewTaxError(ErrCodeNegativeAmount, "netAmount", fmt.Sprintf("net amount cannot be negative: %s", netAmount))
	}
	if vatRate.IsNegative() || vatRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, NewTaxError(ErrCodeRateOutOfRange, "vatRate", fmt.Sprintf("VAT rate must be between 0 and 100: %s", vatRate))
	}
	if precision < 0 {
		return nil, NewTaxError(ErrCodeInvalidPrecision, "precision", fmt.Sprintf("precision cannot be negative: %d", precision))
	}

	vat := money.Percent(netAmount, vatRate)
	gross := netAmount.Add(vat)

	return &VATCalculation{
		NetAmount:          netAmount,
		VATRate:            vatRate,
		VATAmount:          vat,
		GrossAmount:        gross,
		RoundedVATAmount:   money.Round(vat, precision),
		RoundedGrossAmount: money.Round(gross, precision),
	}, nil
}

// OrderTaxItem is one order line fed into CalculateOrderTaxTotals.
// VATRate overrides the category lookup when set.
type OrderTaxItem struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Category  ServiceCategory
	VATRate   *decimal.Decimal
}

// VATBucket is the per-rate slice of an order's tax
type VATBucket struct {
	Rate          decimal.Decimal `json:"rate"`
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	VATAmount     decimal.Decimal `json:"vatAmount"`
}

// OrderTaxTotals is the result of CalculateOrderTaxTotals
type OrderTaxTotals struct {
	Subtotal     decimal.Decimal       `json:"subtotal"`
	TotalVAT     decimal.Decimal       `json:"totalVat"`
	Total        decimal.Decimal       `json:"total"`
	VATBreakdown map[string]*VATBucket `json:"vatBreakdown"`
}

// Buckets returns the breakdown ordered by ascending rate
func (t *OrderTaxTotals) Buckets() []*VATBucket {
	out := make([]*VATBucket, 0, len(t.VATBreakdown))
	for _, b := range t.VATBreakdown {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rate.LessThan(out[j].Rate) })
	return out
}

// ResolveVATRate returns the explicit rate of an item or the category rate
func (i OrderTaxItem) ResolveVATRate() decimal.Decimal {
	if i.VATRate != nil {
		return *i.VATRate
	}
	return GetVATRateForService(i.Category)
}

// CalculateOrderTaxTotals sums an order's lines. Line VAT stays unrounded
// while summing; subtotal and VAT are rounded once at the end and the total
// is their sum, so subtotal + totalVat == total always holds to the kuruş.
// Each bucket reports its own rounded taxable amount and VAT.
func CalculateOrderTaxTotals(items []OrderTaxItem) *OrderTaxTotals {
	subtotal := money.Zero
	totalVAT := money.Zero
	breakdown := make(map[string]*VATBucket)

	for _, item := range items {
		rate := item.ResolveVATRate()
		net := item.Quantity.Mul(item.UnitPrice)
		vat := money.Percent(net, rate)

		subtotal = subtotal.Add(net)
		totalVAT = totalVAT.Add(vat)

		key := RateKey(rate)
		bucket, ok := breakdown[key]
		if !ok {
			bucket = &VATBucket{Rate: rate, TaxableAmount: money.Zero, VATAmount: money.Zero}
			breakdown[key] = bucket
		}
		bucket.TaxableAmount = bucket.TaxableAmount.Add(net)
		bucket.VATAmount = bucket.VATAmount.Add(vat)
	}

	for _, bucket := range breakdown {
		bucket.TaxableAmount = money.RoundAmount(bucket.TaxableAmount)
		bucket.VATAmount = money.RoundAmount(bucket.VATAmount)
	}

	subtotal = money.RoundAmount(subtotal)
	totalVAT = money.RoundAmount(totalVAT)

	return &OrderTaxTotals{
		Subtotal:     subtotal,
		TotalVAT:     totalVAT,
		Total:        subtotal.Add(totalVAT),
		VATBreakdown: breakdown,
	}
}

// LineTax is one invoice line whose net and VAT are already rounded to kuruş
type LineTax struct {
	Rate decimal.Decimal
	Net  decimal.Decimal
	VAT  decimal.Decimal
}

// SumRoundedLines totals invoice lines without re-rounding. Buckets and
// grand totals are plain sums of the line values, so a document's header
// always equals the sum of its own lines.
func SumRoundedLines(lines []LineTax) *OrderTaxTotals {
	subtotal := money.Zero
	totalVAT := money.Zero
	breakdown := make(map[string]*VATBucket)

	for _, l := range lines {
		subtotal = subtotal.Add(l.Net)
		totalVAT = totalVAT.Add(l.VAT)

		key := RateKey(l.Rate)
		bucket, ok := breakdown[key]
		if !ok {
			bucket = &VATBucket{Rate: l.Rate, TaxableAmount: money.Zero, VATAmount: money.Zero}
			breakdown[key] = bucket
		}
		bucket.TaxableAmount = bucket.TaxableAmount.Add(l.Net)
		bucket.VATAmount = bucket.VATAmount.Add(l.VAT)
	}

	return &OrderTaxTotals{
		Subtotal:     subtotal,
		TotalVAT:     totalVAT,
		Total:        subtotal.Add(totalVAT),
		VATBreakdown: breakdown,
	}
}

// RateKey is the map key used for a VAT rate ("18", "1.5")
func RateKey(rate decimal.Decimal) string {
	return rate.String()
}
