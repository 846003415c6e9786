package server

import (
	"github.com/shopspring/decimal"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
)

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// TaxNumberRequest is the body of POST /tax/validate
type TaxNumberRequest struct {
	Identifier string `json:"identifier"`
}

// VATRequest is the body of POST /tax/vat. Precision defaults to 2.
type VATRequest struct {
	NetAmount decimal.Decimal `json:"netAmount"`
	VATRate   decimal.Decimal `json:"vatRate"`
	Precision *int32          `json:"precision,omitempty"`
}

// InterestRequest is the body of POST /tax/interest. AnnualRate defaults
// to the statutory rate.
type InterestRequest struct {
	Amount      decimal.Decimal  `json:"amount"`
	DaysPastDue int              `json:"daysPastDue"`
	AnnualRate  *decimal.Decimal `json:"annualRate,omitempty"`
}

// InterestResponse is the result of POST /tax/interest
type InterestResponse struct {
	Amount     decimal.Decimal `json:"amount"`
	AnnualRate decimal.Decimal `json:"annualRate"`
	Interest   decimal.Decimal `json:"interest"`
}

// CreateInvoiceRequest is the body of POST /businesses/:businessId/invoices
type CreateInvoiceRequest struct {
	OrderID       string `json:"orderId" binding:"required"`
	CustomerTaxID string `json:"customerTaxId"`
	AutoSend      bool   `json:"autoSend"`
	Draft         bool   `json:"draft"`
}

// CancelRequest is the body of POST /invoices/:id/cancel
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// InvoiceResponse is an invoice with a summary of its stored UBL document
type InvoiceResponse struct {
	*model.Invoice
	Document *DocumentSummary `json:"document,omitempty"`
}

// DocumentSummary is read back from the stored XML
type DocumentSummary struct {
	ID              string `json:"id"`
	UUID            string `json:"uuid"`
	ETTN            string `json:"ettn"`
	ProfileID       string `json:"profileId"`
	InvoiceTypeCode string `json:"invoiceTypeCode"`
	IssueDate       string `json:"issueDate"`
	LineCount       int    `json:"lineCount"`
	PayableAmount   string `json:"payableAmount"`
	Currency        string `json:"currency"`
	Signed          bool   `json:"signed"`
}

// SendResponse is the answer of POST /invoices/:id/send
type SendResponse struct {
	Invoice       *model.Invoice `json:"invoice"`
	Success       bool           `json:"success"`
	TransactionID string         `json:"transactionId,omitempty"`
	ErrorCode     string         `json:"errorCode,omitempty"`
	ErrorMessage  string         `json:"errorMessage,omitempty"`
	Retryable     bool           `json:"retryable,omitempty"`
}

// CleanupResponse reports how many drafts were removed
type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// PortalTestResponse reports whether the portal session could be opened
type PortalTestResponse struct {
	Connected bool `json:"connected"`
}
