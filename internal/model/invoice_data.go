package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType is the logical e-Fatura invoice type
type InvoiceType string

const (
	InvoiceTypeSatis    InvoiceType = "SATIS"    // sale
	InvoiceTypeIade     InvoiceType = "IADE"     // return
	InvoiceTypeTevkifat InvoiceType = "TEVKIFAT" // withholding
	InvoiceTypeIstisna  InvoiceType = "ISTISNA"  // exemption
)

// IsValid reports whether t is a known invoice type
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeSatis, InvoiceTypeIade, InvoiceTypeTevkifat, InvoiceTypeIstisna:
		return true
	}
	return false
}

// UnitCode is a UN/ECE Recommendation 20 unit of measure
type UnitCode string

const (
	UnitPiece       UnitCode = "C62"
	UnitKilogram    UnitCode = "KGM"
	UnitSquareMetre UnitCode = "MTK"
	UnitMetre       UnitCode = "MTR"
	UnitLitre       UnitCode = "LTR"
	UnitHour        UnitCode = "HUR"
	UnitSet         UnitCode = "SET"
	UnitPair        UnitCode = "PR"
)

// IsValid reports whether u is one of the supported unit codes
func (u UnitCode) IsValid() bool {
	switch u {
	case UnitPiece, UnitKilogram, UnitSquareMetre, UnitMetre, UnitLitre, UnitHour, UnitSet, UnitPair:
		return true
	}
	return false
}

// DefaultCurrency is the document currency when none is given
const DefaultCurrency = "TRY"

// PartyAddress is the postal address of a supplier or customer
type PartyAddress struct {
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Party is the supplier or the customer of an invoice.
// FirstName and FamilyName are used for individuals identified by TCKN.
type Party struct {
	TaxID      string       `json:"taxId"`
	Title      string       `json:"title"`
	FirstName  string       `json:"firstName,omitempty"`
	FamilyName string       `json:"familyName,omitempty"`
	TaxOffice  string       `json:"taxOffice,omitempty"`
	Address    PartyAddress `json:"address"`
	Phone      string       `json:"phone,omitempty"`
	Email      string       `json:"email,omitempty"`
}

// DisplayName prefers an explicit first and family name over the title
func (p Party) DisplayName() string {
	if p.FirstName != "" && p.FamilyName != "" {
		return p.FirstName + " " + p.FamilyName
	}
	return p.Title
}

// HasPerson reports whether the party is a named individual
func (p Party) HasPerson() bool {
	return p.FirstName != "" && p.FamilyName != ""
}

// Line is one invoice line. LineAmount is net, LineTotal is net + VAT.
type Line struct {
	ID          int             `json:"id"`
	OrderItemID string          `json:"orderItemId,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCode    UnitCode        `json:"unitCode"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineAmount  decimal.Decimal `json:"lineAmount"`
	VATRate     decimal.Decimal `json:"vatRate"`
	VATAmount   decimal.Decimal `json:"vatAmount"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// InvoiceData is the transient value rendered into a UBL-TR document
type InvoiceData struct {
	InvoiceNumber string      `json:"invoiceNumber"`
	InvoiceDate   time.Time   `json:"invoiceDate"`
	InvoiceTime   string      `json:"invoiceTime,omitempty"` // HH:mm:ss, taken from InvoiceDate when empty
	InvoiceType   InvoiceType `json:"invoiceType"`
	CurrencyCode  string      `json:"currencyCode"`
	Notes         []string    `json:"notes,omitempty"`

	Supplier Party  `json:"supplier"`
	Customer Party  `json:"customer"`
	Lines    []Line `json:"invoiceLines"`

	SubtotalAmount decimal.Decimal `json:"subtotalAmount"`
	TotalVATAmount decimal.Decimal `json:"totalVatAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PayableAmount  decimal.Decimal `json:"payableAmount"`
}
