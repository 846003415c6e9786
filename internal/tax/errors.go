package tax

import "fmt"

// Error codes for tax calculations
const (
	ErrCodeNegativeAmount   = "NEGATIVE_AMOUNT"
	ErrCodeRateOutOfRange   = "RATE_OUT_OF_RANGE"
	ErrCodeInvalidPrecision = "INVALID_PRECISION"
)

// TaxError is returned for out-of-range input to the tax calculations
type TaxError struct {
	Code    string
	Field   string
	Message string
}

func (e *TaxError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// NewTaxError creates a new tax error
func NewTaxError(code, field, message string) *TaxError {
	return &TaxError{
		Code:    code,
		Field:   field,
		Message: message,
	}
}
