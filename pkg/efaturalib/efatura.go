// Package efaturalib provides a public API for Turkish e-Fatura documents.
//
// This package exposes the invoice data model, the tax utilities and the
// UBL-TR 2.1 renderer so other Go programs can produce GIB compliant
// documents without running the invoicing service.
//
// Example usage:
//
//	check := efaturalib.ValidateTurkishTaxNumber("1234567890")
//	if !check.IsValid {
//	    log.Fatal(check.Errors)
//	}
//	doc, err := efaturalib.Build(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(doc.ETTN)
package efaturalib

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/ubl"
)

// Re-export core types for public API
type (
	InvoiceData  = model.InvoiceData
	Party        = model.Party
	PartyAddress = model.PartyAddress
	Line         = model.Line
	InvoiceType  = model.InvoiceType
	UnitCode     = model.UnitCode
	GIBStatus    = model.GIBStatus
	Document     = ubl.Document
	Invoice      = ubl.Invoice
	BuildOption  = ubl.Option
)

// Re-export tax utility types
type (
	TaxNumberResult   = tax.TaxNumberResult
	IdentifierType    = tax.IdentifierType
	VATCalculation    = tax.VATCalculation
	TaxError          = tax.TaxError
	OrderTaxItem      = tax.OrderTaxItem
	OrderTaxTotals    = tax.OrderTaxTotals
	VATBucket         = tax.VATBucket
	ServiceCategory   = tax.ServiceCategory
	Address           = tax.Address
	AddressValidation = tax.AddressValidation
)

// Re-export invoice types
const (
	InvoiceTypeSatis    = model.InvoiceTypeSatis
	InvoiceTypeIade     = model.InvoiceTypeIade
	InvoiceTypeTevkifat = model.InvoiceTypeTevkifat
	InvoiceTypeIstisna  = model.InvoiceTypeIstisna
)

// Re-export lifecycle statuses
const (
	StatusDraft     = model.StatusDraft
	StatusCreated   = model.StatusCreated
	StatusSent      = model.StatusSent
	StatusAccepted  = model.StatusAccepted
	StatusRejected  = model.StatusRejected
	StatusCancelled = model.StatusCancelled
	StatusArchived  = model.StatusArchived
)

// Re-export identifier kinds
const (
	IdentifierVKN     = tax.IdentifierVKN
	IdentifierTCKN    = tax.IdentifierTCKN
	IdentifierInvalid = tax.IdentifierInvalid
)

// Re-export service categories
const (
	CategoryLaundry     = tax.CategoryLaundry
	CategoryDryCleaning = tax.CategoryDryCleaning
	CategoryIroning     = tax.CategoryIroning
	CategoryOther       = tax.CategoryOther
)

// ErrInvalidInvoiceData wraps every Build validation failure
var ErrInvalidInvoiceData = ubl.ErrInvalidInvoiceData

// ValidateTurkishTaxNumber classifies and checks a VKN or TCKN
func ValidateTurkishTaxNumber(input string) TaxNumberResult {
	return tax.ValidateTurkishTaxNumber(input)
}

// ValidateVKN checks a 10 digit company tax number
func ValidateVKN(input string) bool { return tax.ValidateVKN(input) }

// ValidateTCKN checks an 11 digit national identity number
func ValidateTCKN(input string) bool { return tax.ValidateTCKN(input) }

// CalculateTurkishVAT computes VAT on a net amount at a percentage rate
func CalculateTurkishVAT(netAmount, vatRate decimal.Decimal, precision int32) (*VATCalculation, error) {
	return tax.CalculateTurkishVAT(netAmount, vatRate, precision)
}

// GetVATRateForService returns the VAT rate of a service category
func GetVATRateForService(category ServiceCategory) decimal.Decimal {
	return tax.GetVATRateForService(category)
}

// CalculateOrderTaxTotals sums order lines with a per-rate breakdown
func CalculateOrderTaxTotals(items []OrderTaxItem) *OrderTaxTotals {
	return tax.CalculateOrderTaxTotals(items)
}

func ValidateTurkishAddress(addr Address) AddressValidation {
	return tax.ValidateTurkishAddress(addr)
}

func ValidateTurkishPostalCode(code string) bool {
	return tax.ValidateTurkishPostalCode(code)
}

// GetProvinceFromPostalCode returns the province for a postal code, or ""
func GetProvinceFromPostalCode(code string) string {
	return tax.GetProvinceFromPostalCode(code)
}

// CalculateLatePaymentInterest returns simple daily interest on an overdue amount
func CalculateLatePaymentInterest(amount decimal.Decimal, daysPastDue int, annualRate decimal.Decimal) decimal.Decimal {
	return tax.CalculateLatePaymentInterest(amount, daysPastDue, annualRate)
}

// FormatInvoiceNumber builds prefix + year + zero padded sequence
func FormatInvoiceNumber(prefix string, year int, sequence int64, width int) string {
	return tax.FormatInvoiceNumber(prefix, year, sequence, width)
}

// WithUUIDSource replaces the generator used for the document UUID and ETTN
func WithUUIDSource(fn func() uuid.UUID) BuildOption {
	return ubl.WithUUIDSource(fn)
}

// WithInvoiceTypeCode overrides the emitted InvoiceTypeCode
func WithInvoiceTypeCode(code InvoiceType) BuildOption {
	return ubl.WithInvoiceTypeCode(code)
}

// Build validates data and renders it as a UBL-TR document
func Build(data *InvoiceData, opts ...BuildOption) (*Document, error) {
	return ubl.Build(data, opts...)
}

// GenerateInvoiceXML renders data and returns only the XML text
func GenerateInvoiceXML(data *InvoiceData, opts ...BuildOption) (string, error) {
	return ubl.GenerateInvoiceXML(data, opts...)
}

// Parse reads a UBL-TR document back into its typed form
func Parse(data []byte) (*Invoice, error) {
	return ubl.Parse(data)
}
