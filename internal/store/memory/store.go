// Package memory is an in-process Store for tests and single-node demos
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps everything in maps behind one lock. Values are copied on the
// way in and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	orders   map[string]*model.Order
	settings map[string]*model.Settings

	invoices map[string]*model.Invoice
	byOrder  map[string]string
	logs     map[string][]model.InvoiceLog
}

func New() *Store {
	return &Store{
		orders:   make(map[string]*model.Order),
		settings: make(map[string]*model.Settings),
		invoices: make(map[string]*model.Invoice),
		byOrder:  make(map[string]string),
		logs:     make(map[string][]model.InvoiceLog),
	}
}

func (s *Store) GetOrder(_ context.Context, orderID string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *Store) SaveOrder(_ context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *Store) GetSettings(_ context.Context, businessID string) (*model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[businessID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *st
	return &out, nil
}

func (s *Store) SaveSettings(_ context.Context, st *model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	cp.UpdatedAt = time.Now().UTC()
	s.settings[st.BusinessID] = &cp
	return nil
}

func (s *Store) NextInvoiceSequence(_ context.Context, businessID string) (int64, *model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[businessID]
	if !ok {
		return 0, nil, store.ErrNotFound
	}
	st.InvoiceCounter++
	out := *st
	return st.InvoiceCounter, &out, nil
}

func (s *Store) CreateInvoice(_ context.Context, inv *model.Invoice, log *model.InvoiceLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return store.ErrAlreadyExists
	}
	if _, exists := s.byOrder[inv.OrderID]; exists {
		return store.ErrAlreadyExists
	}
	for _, other := range s.invoices {
		if other.BusinessID == inv.BusinessID && other.InvoiceNumber == inv.InvoiceNumber {
			return store.ErrAlreadyExists
		}
	}

	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	s.invoices[inv.ID] = copyInvoice(inv)
	s.byOrder[inv.OrderID] = inv.ID
	if log != nil {
		s.logs[inv.ID] = append(s.logs[inv.ID], *log)
	}
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invoiceID string) (*model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyInvoice(inv), nil
}

func (s *Store) GetInvoiceByOrder(_ context.Context, orderID string) (*model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOrder[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyInvoice(s.invoices[id]), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *model.Invoice, from model.GIBStatus, log *model.InvoiceLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.invoices[inv.ID]
	if !ok {
		return store.ErrNotFound
	}
	if current.GIBStatus != from {
		return store.ErrStale
	}

	updated := copyInvoice(inv)
	updated.Items = current.Items
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.invoices[inv.ID] = updated
	inv.UpdatedAt = updated.UpdatedAt

	if log != nil {
		s.logs[inv.ID] = append(s.logs[inv.ID], *log)
	}
	return nil
}

func (s *Store) ListInvoices(_ context.Context, f store.InvoiceFilter) ([]model.Invoice, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.Invoice
	for _, inv := range s.invoices {
		if matches(inv, f) {
			matched = append(matched, *copyInvoice(inv))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].InvoiceDate.Equal(matched[j].InvoiceDate) {
			return matched[i].InvoiceDate.After(matched[j].InvoiceDate)
		}
		return matched[i].InvoiceNumber > matched[j].InvoiceNumber
	})

	total := int64(len(matched))
	start := f.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if f.Limit == 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matches(inv *model.Invoice, f store.InvoiceFilter) bool {
	if f.BusinessID != "" && inv.BusinessID != f.BusinessID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if inv.GIBStatus == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && inv.InvoiceDate.Before(*f.From) {
		return false
	}
	if f.To != nil && inv.InvoiceDate.After(*f.To) {
		return false
	}
	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if f.OrderID != "" && inv.OrderID != f.OrderID {
		return false
	}
	if f.NumberContains != "" && !strings.Contains(inv.InvoiceNumber, f.NumberContains) {
		return false
	}
	return true
}

func (s *Store) InvoiceStats(_ context.Context, businessID string, since time.Time) (*store.InvoiceStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &store.InvoiceStats{
		TotalAmount:  decimal.Zero,
		RecentAmount: decimal.Zero,
		ByStatus:     make(map[model.GIBStatus]int64),
	}
	for _, inv := range s.invoices {
		if inv.BusinessID != businessID {
			continue
		}
		stats.TotalCount++
		stats.TotalAmount = stats.TotalAmount.Add(inv.TotalAmount)
		stats.ByStatus[inv.GIBStatus]++
		if !inv.CreatedAt.Before(since) {
			stats.RecentCount++
			stats.RecentAmount = stats.RecentAmount.Add(inv.TotalAmount)
		}
	}
	return stats, nil
}

func (s *Store) DeleteDrafts(_ context.Context, businessID string, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, inv := range s.invoices {
		if inv.BusinessID == businessID && inv.GIBStatus == model.StatusDraft && inv.CreatedAt.Before(olderThan) {
			delete(s.invoices, id)
			delete(s.byOrder, inv.OrderID)
			n++
		}
	}
	return n, nil
}

func (s *Store) AppendLog(_ context.Context, log *model.InvoiceLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[log.InvoiceID] = append(s.logs[log.InvoiceID], *log)
	return nil
}

func (s *Store) ListLogs(_ context.Context, invoiceID string) ([]model.InvoiceLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.InvoiceLog, len(s.logs[invoiceID]))
	copy(out, s.logs[invoiceID])
	return out, nil
}

func (s *Store) Migrate(context.Context) error { return nil }
func (s *Store) Ping(context.Context) error    { return nil }
func (s *Store) Close() error                  { return nil }

func copyInvoice(inv *model.Invoice) *model.Invoice {
	out := *inv
	if inv.Items != nil {
		out.Items = append([]model.InvoiceItem(nil), inv.Items...)
	}
	return &out
}

func copyOrder(o *model.Order) *model.Order {
	out := *o
	if o.Business != nil {
		b := *o.Business
		out.Business = &b
	}
	if o.Customer != nil {
		c := *o.Customer
		out.Customer = &c
	}
	out.Items = make([]model.OrderItem, len(o.Items))
	for i, item := range o.Items {
		out.Items[i] = item
		if item.Service != nil {
			svc := *item.Service
			out.Items[i].Service = &svc
		}
	}
	return &out
}
