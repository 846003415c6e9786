// Package store defines the persistence boundary of the e-Fatura engine
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrStale is returned by UpdateInvoice when the stored status is no
	// longer the one the caller read
	ErrStale = errors.New("store: invoice changed concurrently")
)

// InvoiceFilter selects invoices of one business. Zero fields match everything.
type InvoiceFilter struct {
	BusinessID     string
	Statuses       []model.GIBStatus
	From           *time.Time // inclusive, on InvoiceDate
	To             *time.Time // inclusive, on InvoiceDate
	CustomerID     string
	OrderID        string
	NumberContains string
	Limit          int
	Offset         int
}

// InvoiceStats are aggregate figures for one business
type InvoiceStats struct {
	TotalCount   int64                     `json:"totalCount"`
	TotalAmount  decimal.Decimal           `json:"totalAmount"`
	RecentCount  int64                     `json:"recentCount"`
	RecentAmount decimal.Decimal           `json:"recentAmount"`
	ByStatus     map[model.GIBStatus]int64 `json:"byStatus"`
}

// Store is everything the assembly service reads and writes
type Store interface {
	// Order read model
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	SaveOrder(ctx context.Context, o *model.Order) error

	// e-Fatura settings
	GetSettings(ctx context.Context, businessID string) (*model.Settings, error)
	SaveSettings(ctx context.Context, s *model.Settings) error
	// NextInvoiceSequence atomically increments the business counter and
	// returns the new value together with the updated settings
	NextInvoiceSequence(ctx context.Context, businessID string) (int64, *model.Settings, error)

	// Invoices. CreateInvoice stores the header, its items and the log row
	// as one unit and fails with ErrAlreadyExists when the order already has
	// an invoice.
	CreateInvoice(ctx context.Context, inv *model.Invoice, log *model.InvoiceLog) error
	GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID string) (*model.Invoice, error)
	// UpdateInvoice writes the header only if its stored status is still
	// from, and appends log in the same unit
	UpdateInvoice(ctx context.Context, inv *model.Invoice, from model.GIBStatus, log *model.InvoiceLog) error
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, int64, error)
	InvoiceStats(ctx context.Context, businessID string, since time.Time) (*InvoiceStats, error)
	DeleteDrafts(ctx context.Context, businessID string, olderThan time.Time) (int64, error)

	// Audit log
	AppendLog(ctx context.Context, log *model.InvoiceLog) error
	ListLogs(ctx context.Context, invoiceID string) ([]model.InvoiceLog, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
