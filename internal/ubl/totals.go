package ubl

import (
	"github.com/shopspring/decimal"

	money "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/decimal"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

// TaxTotal is the VAT amount with one subtotal per rate
type TaxTotal struct {
	TaxAmount   Amount        `xml:"cbc:TaxAmount"`
	TaxSubtotal []TaxSubtotal `xml:"cac:TaxSubtotal"`
}

// TaxSubtotal is the VAT of one rate
type TaxSubtotal struct {
	TaxableAmount Amount      `xml:"cbc:TaxableAmount"`
	TaxAmount     Amount      `xml:"cbc:TaxAmount"`
	Percent       string      `xml:"cbc:Percent"`
	TaxCategory   TaxCategory `xml:"cac:TaxCategory"`
}

// TaxCategory points at the KDV scheme
type TaxCategory struct {
	TaxScheme TaxScheme `xml:"cac:TaxScheme"`
}

// MonetaryTotal is the legal monetary total of the document
type MonetaryTotal struct {
	LineExtensionAmount Amount `xml:"cbc:LineExtensionAmount"`
	TaxExclusiveAmount  Amount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount  Amount `xml:"cbc:TaxInclusiveAmount"`
	PayableAmount       Amount `xml:"cbc:PayableAmount"`
}

func amount(currency string, d decimal.Decimal) Amount {
	return Amount{CurrencyID: currency, Value: money.FormatAmount(d)}
}

func kdvCategory() TaxCategory {
	return TaxCategory{TaxScheme: TaxScheme{Name: TaxSchemeKDV, TaxTypeCode: TaxTypeCodeKDV}}
}

// lineTotals sums the rounded line values per VAT rate
func lineTotals(lines []model.Line) *tax.OrderTaxTotals {
	items := make([]tax.LineTax, 0, len(lines))
	for _, l := range lines {
		items = append(items, tax.LineTax{
			Rate: l.VATRate,
			Net:  money.RoundAmount(l.LineAmount),
			VAT:  money.RoundAmount(l.VATAmount),
		})
	}
	return tax.SumRoundedLines(items)
}

// newTaxTotal emits one subtotal per VAT rate, ordered by ascending rate.
// Each subtotal is the sum of its lines.
func newTaxTotal(data *model.InvoiceData, currency string) TaxTotal {
	totals := lineTotals(data.Lines)

	out := TaxTotal{TaxAmount: amount(currency, data.TotalVATAmount)}
	for _, bucket := range totals.Buckets() {
		out.TaxSubtotal = append(out.TaxSubtotal, TaxSubtotal{
			TaxableAmount: amount(currency, bucket.TaxableAmount),
			TaxAmount:     amount(currency, bucket.VATAmount),
			Percent:       tax.RateKey(bucket.Rate),
			TaxCategory:   kdvCategory(),
		})
	}
	return out
}

func newMonetaryTotal(data *model.InvoiceData, currency string) MonetaryTotal {
	payable := data.PayableAmount
	if payable.IsZero() {
		payable = data.TotalAmount
	}
	return MonetaryTotal{
		LineExtensionAmount: amount(currency, data.SubtotalAmount),
		TaxExclusiveAmount:  amount(currency, data.SubtotalAmount),
		TaxInclusiveAmount:  amount(currency, data.TotalAmount),
		PayableAmount:       amount(currency, payable),
	}
}
