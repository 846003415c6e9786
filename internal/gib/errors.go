package gib

import (
	"errors"
	"fmt"
)

// Portal result and error codes
const (
	ResultSuccess = "0"

	ErrCodeCredentials      = "1001"
	ErrCodeFormat           = "1002"
	ErrCodeDuplicate        = "1003"
	ErrCodeInvalidTaxNumber = "1004"
	ErrCodeCertificate      = "1005"
	ErrCodeSystem           = "SYSTEM_ERROR"
	ErrCodeSOAP             = "SOAP_ERROR"
)

// ErrorMessages maps portal error codes to the messages shown to users.
// Support processes match on these strings; do not reword them.
var ErrorMessages = map[string]string{
	ErrCodeCredentials:      "Kullanıcı adı veya şifre hatalı",
	ErrCodeFormat:           "Fatura formatı hatalı",
	ErrCodeDuplicate:        "Bu fatura daha önce gönderilmiş",
	ErrCodeInvalidTaxNumber: "Vergi/TC kimlik numarası geçersiz",
	ErrCodeCertificate:      "Sertifika hatası",
	ErrCodeSystem:           "Sistem hatası, lütfen daha sonra tekrar deneyiniz",
	ErrCodeSOAP:             "GİB bağlantı hatası",
}

var retryableCodes = map[string]bool{
	ErrCodeSystem: true,
	ErrCodeSOAP:   true,
}

// ErrNoCertificate is returned by SignXMLContent when no certificate is configured
var ErrNoCertificate = errors.New("gib: no signing certificate configured")

// MessageFor returns the user message for code, falling back to the
// portal's own text and then to the generic system message
func MessageFor(code, portalMessage string) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	if portalMessage != "" {
		return portalMessage
	}
	return ErrorMessages[ErrCodeSystem]
}

// IsRetryable reports whether a failure with this code may be retried
func IsRetryable(code string) bool {
	return retryableCodes[code]
}

// IsRetryableError reports whether err carries a retryable portal code
func IsRetryableError(err error) bool {
	var portalErr *PortalError
	if errors.As(err, &portalErr) {
		return IsRetryable(portalErr.Code)
	}
	return false
}

// PortalError is a failed portal call
type PortalError struct {
	Code      string
	Operation string
	Message   string
	Cause     error
}

func (e *PortalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gib %s [%s]: %s (%v)", e.Operation, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("gib %s [%s]: %s", e.Operation, e.Code, e.Message)
}

func (e *PortalError) Unwrap() error {
	return e.Cause
}

// NewPortalError creates a portal error
func NewPortalError(code, operation, message string, cause error) *PortalError {
	return &PortalError{Code: code, Operation: operation, Message: message, Cause: cause}
}

func transportError(operation string, cause error) *PortalError {
	return NewPortalError(ErrCodeSOAP, operation, ErrorMessages[ErrCodeSOAP], cause)
}
