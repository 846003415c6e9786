package tax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

func TestValidateVKN(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"sequential", "1234567890", true},
		{"leading zeros", "0000000018", true},
		{"descending", "9876543217", true},
		{"repeated ones", "1111111113", true},
		{"mixed", "4567890128", true},
		{"zero prefix", "0123456780", true},
		{"formatted with separators", "123-456-7890", true},
		{"wrong check digit", "1234567891", false},
		{"wrong check digit 2", "1234567899", false},
		{"all zero", "0000000000", false},
		{"too short", "123456789", false},
		{"too long", "12345678901", false},
		{"empty", "", false},
		{"letters only", "abcdefghij", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.ValidateVKN(tt.input))
		})
	}
}

// Every 9 digit body has exactly one valid check digit.
func TestValidateVKN_SingleCheckDigit(t *testing.T) {
	bodies := []string{"123456789", "000000001", "987654321", "555555555", "102030405"}
	for _, body := range bodies {
		valid := 0
		for d := '0'; d <= '9'; d++ {
			if tax.ValidateVKN(body + string(d)) {
				valid++
			}
		}
		assert.Equal(t, 1, valid, "body %s", body)
	}
}

func TestValidateTCKN(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid 1", "10000000146", true},
		{"valid 2", "12345678950", true},
		{"valid 3", "98765432150", true},
		{"valid 4", "23456789060", true},
		{"with spaces", "123 456 789 50", true},
		{"placeholder fails checksum", "11111111111", false},
		{"bad tenth digit", "12345678901", false},
		{"bad eleventh digit", "98765432110", false},
		{"leading zero", "01234567890", false},
		{"all zero", "00000000000", false},
		{"ten digits", "1234567890", false},
		{"twelve digits", "123456789501", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.ValidateTCKN(tt.input))
		})
	}
}

func TestValidateTurkishTaxNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		valid     bool
		kind      tax.IdentifierType
		formatted string
	}{
		{"valid VKN", "1234567890", true, tax.IdentifierVKN, "1234567890"},
		{"invalid VKN", "1234567891", false, tax.IdentifierVKN, "1234567891"},
		{"valid TCKN", "10000000146", true, tax.IdentifierTCKN, "10000000146"},
		{"invalid TCKN", "12345678901", false, tax.IdentifierTCKN, "12345678901"},
		{"dashes stripped", "123-456-78-90", true, tax.IdentifierVKN, "1234567890"},
		{"wrong length", "12345", false, tax.IdentifierInvalid, "12345"},
		{"empty", "", false, tax.IdentifierInvalid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tax.ValidateTurkishTaxNumber(tt.input)
			assert.Equal(t, tt.valid, result.IsValid)
			assert.Equal(t, tt.kind, result.Type)
			assert.Equal(t, tt.formatted, result.Formatted)
			if tt.valid {
				assert.Empty(t, result.Errors)
			} else {
				assert.Len(t, result.Errors, 1)
			}
		})
	}
}

func TestSchemeID(t *testing.T) {
	assert.Equal(t, tax.IdentifierVKN, tax.SchemeID("1234567890"))
	assert.Equal(t, tax.IdentifierTCKN, tax.SchemeID("10000000146"))
	assert.Equal(t, tax.IdentifierTCKN, tax.SchemeID("123"))
}

func TestCleanDigits(t *testing.T) {
	assert.Equal(t, "1234567890", tax.CleanDigits(" 123.456-789 0 "))
	assert.Equal(t, "", tax.CleanDigits("abc"))
}
