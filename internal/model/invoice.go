package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Kind discriminates the invoice variants stored side by side
type Kind string

const (
	KindBasic   Kind = "BASIC"
	KindEFatura Kind = "EFATURA"
)

// Invoice is the persisted invoice header. Rows of both kinds share the
// table; the e-Fatura columns are only meaningful for KindEFatura and are
// reached through Variant.
type Invoice struct {
	ID            string      `gorm:"primaryKey;size:64" json:"id"`
	Kind          Kind        `gorm:"size:16;not null" json:"kind"`
	BusinessID    string      `gorm:"size:64;not null;index;uniqueIndex:idx_invoice_business_number,priority:1" json:"businessId"`
	OrderID       string      `gorm:"size:64;not null;uniqueIndex" json:"orderId"`
	CustomerID    string      `gorm:"size:64;index" json:"customerId,omitempty"`
	InvoiceNumber string      `gorm:"size:32;not null;uniqueIndex:idx_invoice_business_number,priority:2" json:"invoiceNumber"`
	InvoiceType   InvoiceType `gorm:"size:16;not null" json:"invoiceType"`
	InvoiceDate   time.Time   `gorm:"not null;index" json:"invoiceDate"`
	CurrencyCode  string      `gorm:"size:3;not null" json:"currencyCode"`

	CustomerTaxID string `gorm:"size:11" json:"customerTaxId"`
	CustomerName  string `gorm:"size:255" json:"customerName"`

	SubtotalAmount decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"subtotalAmount"`
	VATAmount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"vatAmount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"totalAmount"`
	PayableAmount  decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"payableAmount"`

	// e-Fatura columns
	UUID             string     `gorm:"size:36;index" json:"uuid,omitempty"`
	ETTN             string     `gorm:"size:32" json:"ettn,omitempty"`
	GIBStatus        GIBStatus  `gorm:"size:16;index" json:"gibStatus,omitempty"`
	XMLContent       string     `gorm:"type:text" json:"-"`
	GIBTransactionID string     `gorm:"size:64" json:"gibTransactionId,omitempty"`
	GIBErrorCode     string     `gorm:"size:32" json:"gibErrorCode,omitempty"`
	GIBErrorMessage  string     `gorm:"size:500" json:"gibErrorMessage,omitempty"`
	GIBStatusDate    *time.Time `json:"gibStatusDate,omitempty"`
	SentAt           *time.Time `json:"sentAt,omitempty"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Variant is the sum of invoice kinds. It is implemented only by
// BasicInvoice and EFatura; use a type switch to branch on it.
type Variant interface {
	Header() *Invoice
	isVariant()
}

// BasicInvoice is a plain commercial invoice with no portal lifecycle
type BasicInvoice struct {
	*Invoice
}

// EFatura is an invoice registered with the GIB portal
type EFatura struct {
	*Invoice
}

func (v BasicInvoice) Header() *Invoice { return v.Invoice }
func (v EFatura) Header() *Invoice      { return v.Invoice }
func (BasicInvoice) isVariant()         {}
func (EFatura) isVariant()              {}

// Status returns the portal lifecycle status
func (v EFatura) Status() GIBStatus { return v.GIBStatus }

// Variant returns the typed view selected by Kind. Unknown kinds are
// treated as basic invoices.
func (i *Invoice) Variant() Variant {
	if i.Kind == KindEFatura {
		return EFatura{Invoice: i}
	}
	return BasicInvoice{Invoice: i}
}

// InvoiceItem is one persisted invoice line, tied back to its order line
type InvoiceItem struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	InvoiceID   string          `gorm:"size:64;not null;index" json:"invoiceId"`
	OrderItemID string          `gorm:"size:64;index" json:"orderItemId,omitempty"`
	LineNo      int             `gorm:"not null" json:"lineNo"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"size:500" json:"description,omitempty"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
	UnitCode    UnitCode        `gorm:"size:8;not null" json:"unitCode"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unitPrice"`
	LineAmount  decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"lineAmount"`
	VATRate     decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"vatRate"`
	VATAmount   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"vatAmount"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"lineTotal"`
}

// InvoiceLog is an append-only audit row for one lifecycle action
type InvoiceLog struct {
	ID             string         `gorm:"primaryKey;size:64" json:"id"`
	InvoiceID      string         `gorm:"size:64;not null;index" json:"invoiceId"`
	BusinessID     string         `gorm:"size:64;not null;index" json:"businessId"`
	Action         LogAction      `gorm:"size:32;not null" json:"action"`
	Outcome        LogOutcome     `gorm:"size:16;not null" json:"outcome"`
	PreviousStatus GIBStatus      `gorm:"size:16" json:"previousStatus,omitempty"`
	NewStatus      GIBStatus      `gorm:"size:16" json:"newStatus,omitempty"`
	ErrorCode      string         `gorm:"size:32" json:"errorCode,omitempty"`
	Message        string         `gorm:"size:1000" json:"message,omitempty"`
	Before         datatypes.JSON `json:"before,omitempty"`
	After          datatypes.JSON `json:"after,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"createdAt"`
}
