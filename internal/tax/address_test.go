package tax_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

func TestPostalCodes(t *testing.T) {
	tests := []struct {
		code     string
		province string
	}{
		{"34710", "İstanbul"},
		{"06100", "Ankara"},
		{"35220", "İzmir"},
		{"01000", "Adana"},
		{"81000", "Düzce"},
		{" 16000 ", "Bursa"},
		{"82000", ""}, // no 82nd province
		{"00100", ""},
		{"3471", ""},
		{"347100", ""},
		{"34a10", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.province, tax.GetProvinceFromPostalCode(tt.code))
			assert.Equal(t, tt.province != "", tax.ValidateTurkishPostalCode(tt.code))
		})
	}
}

func TestProvinces_Complete(t *testing.T) {
	assert.Len(t, tax.Provinces, 81)
}

func TestSameProvince(t *testing.T) {
	assert.True(t, tax.SameProvince("İstanbul", "istanbul"))
	assert.True(t, tax.SameProvince("İstanbul", "ISTANBUL"))
	assert.True(t, tax.SameProvince("İzmir", "Izmir"))
	assert.True(t, tax.SameProvince("Şanlıurfa", "sanliurfa"))
	assert.True(t, tax.SameProvince("Çanakkale", " CANAKKALE "))
	assert.False(t, tax.SameProvince("Ankara", "İstanbul"))
}

func TestValidateTurkishAddress(t *testing.T) {
	valid := tax.Address{
		Street:     "Atatürk Cad. No:12",
		District:   "Kadıköy",
		City:       "İstanbul",
		PostalCode: "34710",
	}

	result := tax.ValidateTurkishAddress(valid)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateTurkishAddress_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		addr   tax.Address
		errors int
	}{
		{"short street", tax.Address{Street: "Cad", District: "Çankaya", City: "Ankara", PostalCode: "06100"}, 1},
		{"missing district", tax.Address{Street: "Kızılay Meydanı 5", City: "Ankara", PostalCode: "06100"}, 1},
		{"missing city", tax.Address{Street: "Kızılay Meydanı 5", District: "Çankaya", PostalCode: "06100"}, 1},
		{"bad postal code", tax.Address{Street: "Kızılay Meydanı 5", District: "Çankaya", City: "Ankara", PostalCode: "6100"}, 1},
		{"everything missing", tax.Address{}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tax.ValidateTurkishAddress(tt.addr)
			assert.False(t, result.IsValid)
			assert.Len(t, result.Errors, tt.errors)
		})
	}
}

// A city that does not match the postal code is the only reported problem.
func TestValidateTurkishAddress_CityMismatch(t *testing.T) {
	result := tax.ValidateTurkishAddress(tax.Address{
		Street:     "Kızılay Meydanı 5",
		District:   "Çankaya",
		City:       "İzmir",
		PostalCode: "06100",
	})

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Ankara")
	assert.Contains(t, result.Errors[0], "İzmir")
}

func TestCalculateLatePaymentInterest(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		days   int
		rate   string
		want   string
	}{
		{"30 days at 12%", "1000", 30, "12", "9.86"},
		{"45 days at 24%", "2500.50", 45, "24", "73.99"},
		{"one year", "1000", 365, "12", "120.00"},
		{"not overdue", "1000", 0, "12", "0.00"},
		{"negative days", "1000", -5, "12", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tax.CalculateLatePaymentInterest(d(tt.amount), tt.days, d(tt.rate))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	year := time.Now().Year()
	assert.Equal(t, "EMU202600000042", tax.FormatInvoiceNumber("EMU", 2026, 42, 8))
	assert.Equal(t, "GIB2025000000001", tax.FormatInvoiceNumber("GIB", 2025, 1, 0))
	assert.Equal(t, "A20241234", tax.FormatInvoiceNumber("A", 2024, 1234, 2))
	assert.Len(t, tax.FormatInvoiceNumber("ABC", year, 7, tax.DefaultNumberLength), 16)
}
