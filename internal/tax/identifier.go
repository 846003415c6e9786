// Package tax holds the pure Turkish tax rules used by the e-Fatura engine:
// identifier checksums, KDV (VAT) arithmetic, postal codes and invoice numbering.
package tax

import (
	"strings"
)

// IdentifierType is the kind of Turkish tax identifier
type IdentifierType string

const (
	IdentifierVKN     IdentifierType = "VKN"
	IdentifierTCKN    IdentifierType = "TCKN"
	IdentifierInvalid IdentifierType = "INVALID"
)

// Identifier lengths
const (
	VKNLength  = 10
	TCKNLength = 11
)

// TaxNumberResult is the outcome of ValidateTurkishTaxNumber
type TaxNumberResult struct {
	IsValid   bool           `json:"isValid"`
	Type      IdentifierType `json:"type"`
	Formatted string         `json:"formatted"`
	Errors    []string       `json:"errors,omitempty"`
}

// CleanDigits strips every non-digit character
func CleanDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateVKN checks a 10 digit Vergi Kimlik Numarası against its check digit.
// Non-digit characters are ignored.
func ValidateVKN(input string) bool {
	vkn := CleanDigits(input)
	if len(vkn) != VKNLength || allZero(vkn) {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		digit := int(vkn[i] - '0')
		temp := (digit + (9 - i)) % 10
		sum += (temp * (1 << (9 - i))) % 9
	}

	check := (10 - (sum % 10)) % 10
	return check == int(vkn[9]-'0')
}

// ValidateTCKN checks an 11 digit T.C. Kimlik Numarası against both check digits.
// Non-digit characters are ignored.
func ValidateTCKN(input string) bool {
	tckn := CleanDigits(input)
	if len(tckn) != TCKNLength || allZero(tckn) || tckn[0] == '0' {
		return false
	}

	d := make([]int, TCKNLength)
	for i := range tckn {
		d[i] = int(tckn[i] - '0')
	}

	odd := d[0] + d[2] + d[4] + d[6] + d[8]
	even := d[1] + d[3] + d[5] + d[7]
	tenth := ((odd*7-even)%10 + 10) % 10
	if tenth != d[9] {
		return false
	}

	first10 := odd + even + d[9]
	return first10%10 == d[10]
}

// ValidateTurkishTaxNumber dispatches on the cleaned length: 10 digits are
// checked as a VKN, 11 as a TCKN, anything else is INVALID.
func ValidateTurkishTaxNumber(input string) TaxNumberResult {
	cleaned := CleanDigits(input)
	result := TaxNumberResult{Formatted: cleaned}

	switch len(cleaned) {
	case VKNLength:
		result.Type = IdentifierVKN
		result.IsValid = ValidateVKN(cleaned)
		if !result.IsValid {
			result.Errors = append(result.Errors, "Geçersiz vergi kimlik numarası (VKN)")
		}
	case TCKNLength:
		result.Type = IdentifierTCKN
		result.IsValid = ValidateTCKN(cleaned)
		if !result.IsValid {
			result.Errors = append(result.Errors, "Geçersiz T.C. kimlik numarası (TCKN)")
		}
	default:
		result.Type = IdentifierInvalid
		result.Errors = append(result.Errors, "Vergi numarası 10 haneli (VKN) veya T.C. kimlik numarası 11 haneli (TCKN) olmalıdır")
	}

	return result
}

// SchemeID returns the UBL schemeID for an identifier: VKN for 10 digits, TCKN otherwise
func SchemeID(identifier string) IdentifierType {
	if len(CleanDigits(identifier)) == VKNLength {
		return IdentifierVKN
	}
	return IdentifierTCKN
}

func allZero(s string) bool {
	return strings.Trim(s, "0") == ""
}
