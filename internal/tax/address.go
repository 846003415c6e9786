package tax

import (
	"errors"
	"fmt"

	"github.com/invopop/validation"
)

// Address is a Turkish postal address
type Address struct {
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// AddressValidation is the outcome of ValidateTurkishAddress
type AddressValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

var postalCodeRule = validation.By(func(value interface{}) error {
	code, _ := value.(string)
	if !ValidateTurkishPostalCode(code) {
		return errors.New("invalid postal code")
	}
	return nil
})

// ValidateTurkishAddress checks each field and, when both the postal code and
// the city are present, that the code belongs to that city. Every problem is
// reported; none of them aborts the remaining checks.
func ValidateTurkishAddress(addr Address) AddressValidation {
	var errs []string
	check := func(value string, message string, rules ...validation.Rule) bool {
		if err := validation.Validate(value, rules...); err != nil {
			errs = append(errs, message)
			return false
		}
		return true
	}

	check(addr.Street, "Sokak/cadde bilgisi en az 5 karakter olmalıdır",
		validation.Required, validation.Length(5, 0))
	check(addr.District, "İlçe bilgisi gereklidir",
		validation.Required, validation.Length(2, 0))
	cityOK := check(addr.City, "İl bilgisi gereklidir",
		validation.Required, validation.Length(2, 0))
	postalOK := check(addr.PostalCode, "Geçerli bir posta kodu giriniz (5 haneli)",
		validation.Required, postalCodeRule)

	if cityOK && postalOK {
		province := GetProvinceFromPostalCode(addr.PostalCode)
		if !SameProvince(province, addr.City) {
			errs = append(errs, fmt.Sprintf("Posta kodu %s iline ait, girilen il: %s", province, addr.City))
		}
	}

	return AddressValidation{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}
