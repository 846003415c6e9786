// Package storetest holds the behaviour every store.Store implementation
// must share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

// Factory returns an empty, migrated store
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Orders", func(t *testing.T) { testOrders(t, newStore(t)) })
	t.Run("Settings", func(t *testing.T) { testSettings(t, newStore(t)) })
	t.Run("SequenceConcurrent", func(t *testing.T) { testSequenceConcurrent(t, newStore(t)) })
	t.Run("CreateInvoice", func(t *testing.T) { testCreateInvoice(t, newStore(t)) })
	t.Run("UpdateInvoice", func(t *testing.T) { testUpdateInvoice(t, newStore(t)) })
	t.Run("ListInvoices", func(t *testing.T) { testListInvoices(t, newStore(t)) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore(t)) })
	t.Run("DeleteDrafts", func(t *testing.T) { testDeleteDrafts(t, newStore(t)) })
	t.Run("Logs", func(t *testing.T) { testLogs(t, newStore(t)) })
}

// Order returns a completed, paid order with two lines
func Order(id, businessID string) *model.Order {
	return &model.Order{
		ID:         id,
		BusinessID: businessID,
		Business: &model.Business{
			ID: businessID, Name: "Temiz Kuru Temizleme", TaxNumber: "1234567890",
			TaxOffice: "Kadıköy", City: "İstanbul",
		},
		CustomerID: "cus_" + id,
		Customer: &model.Customer{
			ID: "cus_" + id, BusinessID: businessID,
			FirstName: "Ayşe", LastName: "Yılmaz", TaxNumber: "10000000146",
		},
		OrderNumber:   "ORD-" + id,
		Status:        model.OrderStatusCompleted,
		PaymentStatus: model.PaymentStatusPaid,
		Items: []model.OrderItem{
			{
				ID: id + "_1", OrderID: id, ServiceID: "svc_dry",
				Service:  &model.Service{ID: "svc_dry", Name: "Kuru Temizleme", Category: tax.CategoryDryCleaning},
				Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("50.00"),
			},
			{
				ID: id + "_2", OrderID: id, ServiceID: "svc_iron",
				Service:  &model.Service{ID: "svc_iron", Name: "Ütü", Category: tax.CategoryIroning},
				Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("25.00"),
			},
		},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Settings returns enabled settings for businessID
func Settings(businessID string) *model.Settings {
	return &model.Settings{
		BusinessID:    businessID,
		Enabled:       true,
		CompanyVKN:    "1234567890",
		CompanyTitle:  "Temiz Kuru Temizleme Ltd.",
		InvoicePrefix: "EMU",
		NumberLength:  9,
	}
}

// Invoice returns a draft e-Fatura header for orderID
func Invoice(id, businessID, orderID, number string, total string) *model.Invoice {
	amount := decimal.RequireFromString(total)
	return &model.Invoice{
		ID:             id,
		Kind:           model.KindEFatura,
		BusinessID:     businessID,
		OrderID:        orderID,
		CustomerID:     "cus_" + orderID,
		InvoiceNumber:  number,
		InvoiceType:    model.InvoiceTypeSatis,
		InvoiceDate:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		CurrencyCode:   "TRY",
		SubtotalAmount: amount,
		VATAmount:      decimal.Zero,
		TotalAmount:    amount,
		PayableAmount:  amount,
		GIBStatus:      model.StatusDraft,
		Items: []model.InvoiceItem{{
			ID: id + "_1", InvoiceID: id, LineNo: 1, Name: "Kuru Temizleme",
			Quantity: decimal.NewFromInt(1), UnitCode: model.UnitPiece,
			UnitPrice: amount, LineAmount: amount, VATRate: decimal.Zero,
			VATAmount: decimal.Zero, LineTotal: amount,
		}},
	}
}

func logRow(id, invoiceID string, action model.LogAction, at time.Time) *model.InvoiceLog {
	return &model.InvoiceLog{
		ID: id, InvoiceID: invoiceID, BusinessID: "biz_1",
		Action: action, Outcome: model.OutcomeSuccess, CreatedAt: at,
	}
}

func testOrders(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SaveOrder(ctx, Order("ord_1", "biz_1")))

	got, err := s.GetOrder(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, "biz_1", got.BusinessID)
	require.NotNil(t, got.Business)
	assert.Equal(t, "1234567890", got.Business.TaxNumber)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Ayşe Yılmaz", got.Customer.FullName())

	require.Len(t, got.Items, 2)
	assert.Equal(t, "ord_1_1", got.Items[0].ID)
	require.NotNil(t, got.Items[0].Service)
	assert.Equal(t, tax.CategoryDryCleaning, got.Items[0].Service.Category)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, got.IsCompleted())
	assert.True(t, got.IsPaid())
}

func testSettings(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetSettings(ctx, "biz_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, _, err = s.NextInvoiceSequence(ctx, "biz_1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	st := Settings("biz_1")
	st.InvoiceCounter = 41
	require.NoError(t, s.SaveSettings(ctx, st))

	got, err := s.GetSettings(ctx, "biz_1")
	require.NoError(t, err)
	assert.Equal(t, "EMU", got.InvoicePrefix)
	assert.Equal(t, int64(41), got.InvoiceCounter)

	n, updated, err := s.NextInvoiceSequence(ctx, "biz_1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, int64(42), updated.InvoiceCounter)
	assert.Equal(t, "1234567890", updated.CompanyVKN)

	got, err = s.GetSettings(ctx, "biz_1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.InvoiceCounter)
}

func testSequenceConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveSettings(ctx, Settings("biz_1")))

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, _, err := s.NextInvoiceSequence(ctx, "biz_1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "sequence %d missing", i)
	}
}

func testCreateInvoice(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	inv := Invoice("inv_1", "biz_1", "ord_1", "EMU2026000000001", "118.00")
	require.NoError(t, s.CreateInvoice(ctx, inv, logRow("log_1", "inv_1", model.ActionCreate, at)))

	got, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, "EMU2026000000001", got.InvoiceNumber)
	assert.Equal(t, model.StatusDraft, got.GIBStatus)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("118")))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Kuru Temizleme", got.Items[0].Name)
	assert.False(t, got.CreatedAt.IsZero())

	byOrder, err := s.GetInvoiceByOrder(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, "inv_1", byOrder.ID)

	_, err = s.GetInvoiceByOrder(ctx, "ord_2")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetInvoice(ctx, "inv_missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	t.Run("same order", func(t *testing.T) {
		dup := Invoice("inv_2", "biz_1", "ord_1", "EMU2026000000002", "10.00")
		assert.ErrorIs(t, s.CreateInvoice(ctx, dup, nil), store.ErrAlreadyExists)
	})

	t.Run("same number", func(t *testing.T) {
		dup := Invoice("inv_3", "biz_1", "ord_3", "EMU2026000000001", "10.00")
		assert.ErrorIs(t, s.CreateInvoice(ctx, dup, nil), store.ErrAlreadyExists)
	})

	t.Run("same number other business", func(t *testing.T) {
		other := Invoice("inv_4", "biz_2", "ord_4", "EMU2026000000001", "10.00")
		assert.NoError(t, s.CreateInvoice(ctx, other, nil))
	})

	logs, err := s.ListLogs(ctx, "inv_1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionCreate, logs[0].Action)
}

func testUpdateInvoice(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateInvoice(ctx, Invoice("inv_1", "biz_1", "ord_1", "EMU2026000000001", "118.00"), nil))

	inv, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	inv.GIBStatus = model.StatusCreated
	inv.XMLContent = "<Invoice/>"
	require.NoError(t, s.UpdateInvoice(ctx, inv, model.StatusDraft, logRow("log_1", "inv_1", model.ActionCreate, at)))

	got, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCreated, got.GIBStatus)
	assert.Equal(t, "<Invoice/>", got.XMLContent)
	assert.Len(t, got.Items, 1, "items survive header updates")

	// a second writer still holding the draft view loses
	stale := *inv
	stale.GIBStatus = model.StatusCancelled
	err = s.UpdateInvoice(ctx, &stale, model.StatusDraft, logRow("log_2", "inv_1", model.ActionCancel, at))
	assert.ErrorIs(t, err, store.ErrStale)

	missing := *inv
	missing.ID = "inv_missing"
	assert.ErrorIs(t, s.UpdateInvoice(ctx, &missing, model.StatusDraft, nil), store.ErrNotFound)

	logs, err := s.ListLogs(ctx, "inv_1")
	require.NoError(t, err)
	require.Len(t, logs, 1, "log of the losing update is not written")
	assert.Equal(t, "log_1", logs[0].ID)
}

func testListInvoices(t *testing.T, s store.Store) {
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		inv := Invoice(fmt.Sprintf("inv_%d", i), "biz_1", fmt.Sprintf("ord_%d", i),
			fmt.Sprintf("EMU202600000000%d", i), "100.00")
		inv.InvoiceDate = time.Date(2026, 3, i, 10, 0, 0, 0, time.UTC)
		if i%2 == 0 {
			inv.GIBStatus = model.StatusSent
		}
		require.NoError(t, s.CreateInvoice(ctx, inv, nil))
	}
	require.NoError(t, s.CreateInvoice(ctx, Invoice("inv_x", "biz_2", "ord_x", "EMU2026000000009", "1.00"), nil))

	all, total, err := s.ListInvoices(ctx, store.InvoiceFilter{BusinessID: "biz_1"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, all, 5)
	assert.Equal(t, "inv_5", all[0].ID, "newest first")
	assert.Equal(t, "inv_1", all[4].ID)

	page, total, err := s.ListInvoices(ctx, store.InvoiceFilter{BusinessID: "biz_1", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "inv_3", page[0].ID)
	assert.Equal(t, "inv_2", page[1].ID)

	sent, total, err := s.ListInvoices(ctx, store.InvoiceFilter{
		BusinessID: "biz_1", Statuses: []model.GIBStatus{model.StatusSent},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, inv := range sent {
		assert.Equal(t, model.StatusSent, inv.GIBStatus)
	}

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 4, 23, 59, 59, 0, time.UTC)
	ranged, _, err := s.ListInvoices(ctx, store.InvoiceFilter{BusinessID: "biz_1", From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, ranged, 3)

	byNumber, _, err := s.ListInvoices(ctx, store.InvoiceFilter{BusinessID: "biz_1", NumberContains: "0004"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, "inv_4", byNumber[0].ID)

	byOrder, _, err := s.ListInvoices(ctx, store.InvoiceFilter{OrderID: "ord_x"})
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, "biz_2", byOrder[0].BusinessID)
}

func testStats(t *testing.T, s store.Store) {
	ctx := context.Background()

	stats, err := s.InvoiceStats(ctx, "biz_1", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCount)
	assert.True(t, stats.TotalAmount.IsZero())

	old := Invoice("inv_1", "biz_1", "ord_1", "EMU2026000000001", "100.00")
	old.CreatedAt = time.Now().UTC().Add(-60 * 24 * time.Hour)
	require.NoError(t, s.CreateInvoice(ctx, old, nil))

	fresh := Invoice("inv_2", "biz_1", "ord_2", "EMU2026000000002", "18.50")
	fresh.GIBStatus = model.StatusAccepted
	require.NoError(t, s.CreateInvoice(ctx, fresh, nil))

	require.NoError(t, s.CreateInvoice(ctx, Invoice("inv_3", "biz_2", "ord_3", "EMU2026000000003", "999.00"), nil))

	stats, err = s.InvoiceStats(ctx, "biz_1", time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCount)
	assert.True(t, stats.TotalAmount.Equal(decimal.RequireFromString("118.50")), stats.TotalAmount.String())
	assert.Equal(t, int64(1), stats.RecentCount)
	assert.True(t, stats.RecentAmount.Equal(decimal.RequireFromString("18.50")), stats.RecentAmount.String())
	assert.Equal(t, int64(1), stats.ByStatus[model.StatusDraft])
	assert.Equal(t, int64(1), stats.ByStatus[model.StatusAccepted])
}

func testDeleteDrafts(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	stale := Invoice("inv_1", "biz_1", "ord_1", "EMU2026000000001", "10.00")
	stale.CreatedAt = now.Add(-10 * 24 * time.Hour)
	require.NoError(t, s.CreateInvoice(ctx, stale, logRow("log_1", "inv_1", model.ActionCreate, at)))

	recent := Invoice("inv_2", "biz_1", "ord_2", "EMU2026000000002", "10.00")
	require.NoError(t, s.CreateInvoice(ctx, recent, nil))

	sent := Invoice("inv_3", "biz_1", "ord_3", "EMU2026000000003", "10.00")
	sent.CreatedAt = now.Add(-10 * 24 * time.Hour)
	sent.GIBStatus = model.StatusSent
	require.NoError(t, s.CreateInvoice(ctx, sent, nil))

	n, err := s.DeleteDrafts(ctx, "biz_1", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetInvoice(ctx, "inv_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetInvoiceByOrder(ctx, "ord_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetInvoice(ctx, "inv_2")
	assert.NoError(t, err)
	_, err = s.GetInvoice(ctx, "inv_3")
	assert.NoError(t, err)

	logs, err := s.ListLogs(ctx, "inv_1")
	require.NoError(t, err)
	assert.Len(t, logs, 1, "audit rows outlive the draft")

	// the order can be invoiced again
	require.NoError(t, s.CreateInvoice(ctx, Invoice("inv_4", "biz_1", "ord_1", "EMU2026000000004", "10.00"), nil))
}

func testLogs(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendLog(ctx, logRow("log_a", "inv_1", model.ActionCreate, base)))
	require.NoError(t, s.AppendLog(ctx, logRow("log_b", "inv_1", model.ActionSend, base.Add(time.Microsecond))))
	require.NoError(t, s.AppendLog(ctx, logRow("log_c", "inv_1", model.ActionStatusUpdate, base.Add(2*time.Microsecond))))
	require.NoError(t, s.AppendLog(ctx, logRow("log_z", "inv_2", model.ActionCreate, base)))

	logs, err := s.ListLogs(ctx, "inv_1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, []model.LogAction{model.ActionCreate, model.ActionSend, model.ActionStatusUpdate},
		[]model.LogAction{logs[0].Action, logs[1].Action, logs[2].Action})

	none, err := s.ListLogs(ctx, "inv_missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
