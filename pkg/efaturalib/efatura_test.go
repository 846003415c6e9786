package efaturalib_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/pkg/efaturalib"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func invoiceData() *efaturalib.InvoiceData {
	return &efaturalib.InvoiceData{
		InvoiceNumber: efaturalib.FormatInvoiceNumber("EMU", 2026, 7, 9),
		InvoiceDate:   time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		InvoiceType:   efaturalib.InvoiceTypeSatis,
		CurrencyCode:  "TRY",
		Supplier: efaturalib.Party{
			TaxID: "1234567890",
			Title: "Beyaz Çamaşırhane Ltd. Şti.",
			Address: efaturalib.PartyAddress{
				City:       "İstanbul",
				PostalCode: "34710",
			},
		},
		Customer: efaturalib.Party{
			TaxID:      "10000000146",
			FirstName:  "Ayşe",
			FamilyName: "Yılmaz",
		},
		Lines: []efaturalib.Line{{
			ID: 1, Name: "Kuru temizleme",
			Quantity: d("1"), UnitPrice: d("100"), LineAmount: d("100"),
			VATRate: d("18"), VATAmount: d("18"), LineTotal: d("118"),
		}},
		SubtotalAmount: d("100"),
		TotalVATAmount: d("18"),
		TotalAmount:    d("118"),
		PayableAmount:  d("118"),
	}
}

func TestValidateTurkishTaxNumber(t *testing.T) {
	res := efaturalib.ValidateTurkishTaxNumber("10000000146")
	assert.True(t, res.IsValid)
	assert.Equal(t, efaturalib.IdentifierTCKN, res.Type)

	assert.True(t, efaturalib.ValidateVKN("1234567890"))
	assert.False(t, efaturalib.ValidateTCKN("12345678901"))
}

func TestCalculateTurkishVAT(t *testing.T) {
	calc, err := efaturalib.CalculateTurkishVAT(d("100.005"), efaturalib.GetVATRateForService(efaturalib.CategoryDryCleaning), 2)
	require.NoError(t, err)
	assert.True(t, calc.RoundedVATAmount.Equal(d("18.00")), calc.RoundedVATAmount.String())

	_, err = efaturalib.CalculateTurkishVAT(d("100"), d("101"), 2)
	var taxErr *efaturalib.TaxError
	require.ErrorAs(t, err, &taxErr)
}

func TestCalculateOrderTaxTotals(t *testing.T) {
	totals := efaturalib.CalculateOrderTaxTotals([]efaturalib.OrderTaxItem{
		{Quantity: d("2"), UnitPrice: d("50"), Category: efaturalib.CategoryLaundry},
		{Quantity: d("1"), UnitPrice: d("25"), Category: efaturalib.CategoryIroning},
	})
	assert.True(t, totals.Subtotal.Equal(d("125")))
	assert.True(t, totals.TotalVAT.Equal(d("22.5")))
	assert.True(t, totals.Total.Equal(d("147.5")))
}

func TestCalculateLatePaymentInterest(t *testing.T) {
	assert.Equal(t, "9.86", efaturalib.CalculateLatePaymentInterest(d("1000"), 30, d("12")).StringFixed(2))
	assert.True(t, efaturalib.CalculateLatePaymentInterest(d("1000"), -3, d("12")).IsZero())
}

func TestValidateTurkishAddress(t *testing.T) {
	assert.Equal(t, "Ankara", efaturalib.GetProvinceFromPostalCode("06100"))
	assert.True(t, efaturalib.ValidateTurkishPostalCode("34710"))

	res := efaturalib.ValidateTurkishAddress(efaturalib.Address{
		Street:     "Moda Cad. No:10",
		District:   "Kadıköy",
		City:       "İstanbul",
		PostalCode: "34710",
	})
	assert.True(t, res.IsValid, res.Errors)
}

func TestBuildAndParse(t *testing.T) {
	fixed := uuid.MustParse("7f0c9a34-2b9e-4d1a-9c55-0e6f1a2b3c4d")
	doc, err := efaturalib.Build(invoiceData(), efaturalib.WithUUIDSource(func() uuid.UUID { return fixed }))
	require.NoError(t, err)
	assert.Equal(t, fixed.String(), doc.UUID)
	assert.Equal(t, strings.ToUpper(strings.ReplaceAll(fixed.String(), "-", "")), doc.ETTN)

	parsed, err := efaturalib.Parse(doc.XML)
	require.NoError(t, err)
	assert.Equal(t, "EMU2026000000007", parsed.ID)
	assert.Equal(t, "SATIS", parsed.InvoiceTypeCode)
}

func TestGenerateInvoiceXML_RejectsInvalidData(t *testing.T) {
	data := invoiceData()
	data.Lines = nil

	_, err := efaturalib.GenerateInvoiceXML(data)
	assert.ErrorIs(t, err, efaturalib.ErrInvalidInvoiceData)
}
