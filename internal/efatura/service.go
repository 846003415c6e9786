// Package efatura is the invoice assembly service: it turns orders into
// UBL-TR e-Fatura documents, numbers and persists them, and drives their
// lifecycle against the GIB portal.
package efatura

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/id"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/ubl"
)

// Defaults for the maintenance and reporting calls
const (
	DefaultStatsDays          = 30
	DefaultDraftRetentionDays = 7
)

// Enqueuer accepts invoices for asynchronous submission
type Enqueuer interface {
	Enqueue(invoiceID string) error
}

// Option configures a Service
type Option func(*Service)

// WithPortalFactory sets where portal sessions come from. Without one the
// lifecycle calls that reach the portal fail with ErrNotConfigured.
func WithPortalFactory(f PortalFactory) Option {
	return func(s *Service) {
		s.portals = f
	}
}

// WithLogger replaces the component logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithUUIDSource replaces the generator for document UUIDs and ETTNs
func WithUUIDSource(fn func() uuid.UUID) Option {
	return func(s *Service) {
		s.newUUID = fn
	}
}

// WithSendPolicy sets the retry policy of synchronous sends. The default
// is a single attempt; the Dispatcher brings its own policy.
func WithSendPolicy(p gib.RetryPolicy) Option {
	return func(s *Service) {
		s.sendPolicy = p
	}
}

// Service is safe for concurrent use
type Service struct {
	store      store.Store
	portals    PortalFactory
	queue      Enqueuer
	sendPolicy gib.RetryPolicy
	now        func() time.Time
	newUUID    func() uuid.UUID
	clock      *logClock
	log        zerolog.Logger
}

// NewService builds a Service over s. Without WithPortalFactory every portal
// operation fails with a configuration error.
func NewService(s store.Store, opts ...Option) *Service {
	svc := &Service{
		store:      s,
		sendPolicy: gib.RetryPolicy{MaxTries: 1},
		now:        time.Now,
		newUUID:    uuid.New,
		log:        logger.WithComponent("efatura"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.clock = newLogClock(svc.now)
	return svc
}

// UseDispatcher routes auto-send requests to q
func (s *Service) UseDispatcher(q Enqueuer) {
	s.queue = q
}

// CreateRequest is the input of CreateInvoiceFromOrder
type CreateRequest struct {
	BusinessID    string `json:"businessId"`
	OrderID       string `json:"orderId"`
	CustomerTaxID string `json:"customerTaxId,omitempty"`
	AutoSend      bool   `json:"autoSend"`
	// Draft keeps the invoice in DRAFT until FinalizeInvoice is called
	Draft bool `json:"draft,omitempty"`
}

// CreateInvoiceFromOrder numbers, renders and stores the e-Fatura for an
// order. The returned invoice carries its items.
func (s *Service) CreateInvoiceFromOrder(ctx context.Context, req CreateRequest) (*model.Invoice, error) {
	log := s.log.With().Str("business_id", req.BusinessID).Str("order_id", req.OrderID).Logger()

	order, err := s.store.GetOrder(ctx, req.OrderID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && req.BusinessID != "" && order.BusinessID != req.BusinessID) {
		return nil, model.NewNotFoundError("orderId", "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	businessID := order.BusinessID

	settings, err := s.enabledSettings(ctx, businessID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetInvoiceByOrder(ctx, order.ID); err == nil {
		return nil, model.NewConflictError("orderId", "order already has an invoice", nil)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing invoice: %w", err)
	}

	if len(order.Items) == 0 {
		return nil, model.NewServiceValidationError("items", "order has no items", nil)
	}

	customerTaxID, err := resolveCustomerTaxID(req.CustomerTaxID, order.Customer)
	if err != nil {
		return nil, err
	}
	if customerTaxID == PlaceholderCustomerTaxID {
		log.Warn().Msg("customer has no tax identifier, using placeholder TCKN")
	}

	seq, settings, err := s.store.NextInvoiceSequence(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("next invoice number: %w", err)
	}

	issued := s.now().UTC()
	number := tax.FormatInvoiceNumber(settings.InvoicePrefix, issued.Year(), seq, settings.NumberLength)
	data := assembleInvoiceData(order, settings, number, customerTaxID, issued)

	doc, err := ubl.Build(data, ubl.WithUUIDSource(s.newUUID))
	if err != nil {
		return nil, model.NewServiceValidationError("invoiceData", "document rejected by builder", err)
	}

	status := model.StatusCreated
	if req.Draft {
		status = model.StatusDraft
	}
	inv := newInvoiceRow(order, data, doc, status)
	createLog := s.newLog(inv, entry{
		action:  model.ActionCreate,
		outcome: model.OutcomeSuccess,
		to:      status,
		message: "invoice " + number + " created",
		after:   mustJSON(data),
	})
	inv.CreatedAt = createLog.CreatedAt

	if err := s.store.CreateInvoice(ctx, inv, createLog); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, model.NewConflictError("orderId", "order already has an invoice", err)
		}
		return nil, fmt.Errorf("store invoice: %w", err)
	}

	log.Info().
		Str("invoice_id", inv.ID).
		Str("invoice_number", number).
		Str("total", inv.TotalAmount.StringFixed(2)).
		Int("xml_bytes", len(doc.XML)).
		Msg("invoice created")

	if !req.Draft && (req.AutoSend || settings.AutoSend) {
		s.enqueue(inv.ID)
	}
	return inv, nil
}

func (s *Service) enqueue(invoiceID string) {
	if s.queue == nil {
		s.log.Warn().Str("invoice_id", invoiceID).Msg("auto send requested but no dispatcher is running")
		return
	}
	if err := s.queue.Enqueue(invoiceID); err != nil {
		s.log.Error().Err(err).Str("invoice_id", invoiceID).Msg("could not queue invoice for sending")
	}
}

func newInvoiceRow(order *model.Order, data *model.InvoiceData, doc *ubl.Document, status model.GIBStatus) *model.Invoice {
	invoiceID := id.NewInvoiceID()
	items := make([]model.InvoiceItem, len(data.Lines))
	for i, l := range data.Lines {
		items[i] = model.InvoiceItem{
			ID:          id.NewInvoiceItemID(),
			InvoiceID:   invoiceID,
			OrderItemID: l.OrderItemID,
			LineNo:      l.ID,
			Name:        l.Name,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitCode:    l.UnitCode,
			UnitPrice:   l.UnitPrice,
			LineAmount:  l.LineAmount,
			VATRate:     l.VATRate,
			VATAmount:   l.VATAmount,
			LineTotal:   l.LineTotal,
		}
	}

	return &model.Invoice{
		ID:             invoiceID,
		Kind:           model.KindEFatura,
		BusinessID:     order.BusinessID,
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		InvoiceNumber:  data.InvoiceNumber,
		InvoiceType:    data.InvoiceType,
		InvoiceDate:    data.InvoiceDate,
		CurrencyCode:   data.CurrencyCode,
		CustomerTaxID:  data.Customer.TaxID,
		CustomerName:   data.Customer.DisplayName(),
		SubtotalAmount: data.SubtotalAmount,
		VATAmount:      data.TotalVATAmount,
		TotalAmount:    data.TotalAmount,
		PayableAmount:  data.PayableAmount,
		UUID:           doc.UUID,
		ETTN:           doc.ETTN,
		GIBStatus:      status,
		XMLContent:     string(doc.XML),
		Items:          items,
	}
}

// enabledSettings loads settings and fails with ErrNotConfigured when they
// are missing or switched off
func (s *Service) enabledSettings(ctx context.Context, businessID string) (*model.Settings, error) {
	st, err := s.store.GetSettings(ctx, businessID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NewNotConfiguredError("e-Fatura settings not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !st.Enabled {
		return nil, model.NewNotConfiguredError("e-Fatura is disabled")
	}
	return st, nil
}

// Eligibility is the answer of IsOrderEligibleForInvoice
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// Ineligibility reasons
const (
	ReasonOrderNotFound   = "order not found"
	ReasonNotEnabled      = "e-Fatura is not enabled for this business"
	ReasonNotRequired     = "order does not require an invoice"
	ReasonPaymentPending  = "order is not paid"
	ReasonNotCompleted    = "order is not completed"
	ReasonAlreadyInvoiced = "order already has an invoice"
)

// IsOrderEligibleForInvoice runs the pre-invoice checks in order and
// reports the first failing one. It never writes.
func (s *Service) IsOrderEligibleForInvoice(ctx context.Context, orderID string) (*Eligibility, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return &Eligibility{Reason: ReasonOrderNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	st, err := s.store.GetSettings(ctx, order.BusinessID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &Eligibility{Reason: ReasonNotEnabled}, nil
	case err != nil:
		return nil, err
	case !st.Enabled:
		return &Eligibility{Reason: ReasonNotEnabled}, nil
	}

	switch {
	case !order.RequiresInvoice:
		return &Eligibility{Reason: ReasonNotRequired}, nil
	case st.RequirePayment && !order.IsPaid():
		return &Eligibility{Reason: ReasonPaymentPending}, nil
	case st.RequireCompletion && !order.IsCompleted():
		return &Eligibility{Reason: ReasonNotCompleted}, nil
	}

	_, err = s.store.GetInvoiceByOrder(ctx, orderID)
	switch {
	case err == nil:
		return &Eligibility{Reason: ReasonAlreadyInvoiced}, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	return &Eligibility{Eligible: true}, nil
}

// GetInvoice returns one invoice with its items
func (s *Service) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NewNotFoundError("invoiceId", "invoice not found")
	}
	return inv, err
}

// GetInvoiceLogs returns the audit trail of an invoice, oldest first
func (s *Service) GetInvoiceLogs(ctx context.Context, invoiceID string) ([]model.InvoiceLog, error) {
	if _, err := s.GetInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.store.ListLogs(ctx, invoiceID)
}

// InvoicePage is one page of GetInvoices
type InvoicePage struct {
	Invoices []model.Invoice `json:"invoices"`
	Total    int64           `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// GetInvoices lists invoices matching filter
func (s *Service) GetInvoices(ctx context.Context, filter store.InvoiceFilter) (*InvoicePage, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, model.NewServiceValidationError("limit", "limit and offset must not be negative", nil)
	}
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, model.NewServiceValidationError("status", "unknown status "+string(st), nil)
		}
	}

	invoices, total, err := s.store.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []model.Invoice{}
	}
	return &InvoicePage{Invoices: invoices, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetInvoiceStats aggregates a business's invoices; the recent window is
// the last days days (30 when zero)
func (s *Service) GetInvoiceStats(ctx context.Context, businessID string, days int) (*store.InvoiceStats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	return s.store.InvoiceStats(ctx, businessID, since)
}

// CleanupDraftInvoices hard-deletes DRAFT invoices older than the given
// number of days (7 when zero) and returns how many were removed
func (s *Service) CleanupDraftInvoices(ctx context.Context, businessID string, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = DefaultDraftRetentionDays
	}
	cutoff := s.now().UTC().AddDate(0, 0, -olderThanDays)

	n, err := s.store.DeleteDrafts(ctx, businessID, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Str("business_id", businessID).Int64("deleted", n).Time("cutoff", cutoff).Msg("draft invoices removed")
	}
	return n, nil
}
