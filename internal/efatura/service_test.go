package efatura_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/efatura"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/memory"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/storetest"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/ubl"
)

func TestCreateInvoiceFromOrder_EndToEnd(t *testing.T) {
	f := newFixture(t)

	inv := f.create(t, "ord_1")

	assert.Equal(t, "EMU202600000042", inv.InvoiceNumber)
	assert.Equal(t, model.StatusCreated, inv.GIBStatus)
	assert.Equal(t, model.KindEFatura, inv.Kind)
	assert.Equal(t, "10000000146", inv.CustomerTaxID)
	assert.Equal(t, "Ayşe Yılmaz", inv.CustomerName)

	// 2 x 50.00 dry cleaning + 1 x 25.00 ironing, both at the service rate
	rate := tax.GetVATRateForService(tax.CategoryDryCleaning)
	subtotal := decimal.RequireFromString("125.00")
	vat := subtotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	assert.True(t, inv.SubtotalAmount.Equal(subtotal), inv.SubtotalAmount.String())
	assert.True(t, inv.VATAmount.Equal(vat), inv.VATAmount.String())
	assert.True(t, inv.TotalAmount.Equal(inv.SubtotalAmount.Add(inv.VATAmount)))
	assert.True(t, inv.PayableAmount.Equal(inv.TotalAmount))

	require.Len(t, inv.Items, 2)
	assert.Equal(t, "ord_1_1", inv.Items[0].OrderItemID)
	assert.Equal(t, "ord_1_2", inv.Items[1].OrderItemID)
	assert.Equal(t, 1, inv.Items[0].LineNo)
	assert.Equal(t, "Kuru Temizleme", inv.Items[0].Name)

	stored, err := f.store.GetInvoice(t.Context(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, stored.InvoiceNumber)

	doc, err := ubl.Parse([]byte(inv.XMLContent))
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, doc.ID)
	assert.Equal(t, inv.UUID, doc.UUID)
	assert.Equal(t, inv.ETTN, doc.ETTN())
	assert.Equal(t, "2026-03-15", doc.IssueDate)

	logs, err := f.store.ListLogs(t.Context(), inv.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionCreate, logs[0].Action)
	assert.Equal(t, model.StatusCreated, logs[0].NewStatus)

	var snapshot model.InvoiceData
	require.NoError(t, json.Unmarshal(logs[0].After, &snapshot))
	assert.Equal(t, inv.InvoiceNumber, snapshot.InvoiceNumber)
	assert.Len(t, snapshot.Lines, 2)

	st, err := f.store.GetSettings(t.Context(), businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), st.InvoiceCounter)
}

func TestCreateInvoiceFromOrder_TotalsMatchLines(t *testing.T) {
	tests := []struct {
		name     string
		prices   []string
		subtotal string
		vat      string
	}{
		{"quarter lira lines", []string{"0.25", "0.25"}, "0.50", "0.10"},
		{"repeating third", []string{"0.3333", "0.3333", "0.3333"}, "0.99", "0.18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			o := f.addOrder(t, "ord_small")
			o.Items = nil
			for i, price := range tt.prices {
				o.Items = append(o.Items, model.OrderItem{
					ID: fmt.Sprintf("ord_small_%d", i+1), OrderID: o.ID, ServiceID: "svc_wash",
					Service:  &model.Service{ID: "svc_wash", Name: "Yıkama", Category: tax.CategoryLaundry},
					Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString(price),
				})
			}
			require.NoError(t, f.store.SaveOrder(t.Context(), o))

			inv := f.create(t, "ord_small")
			assert.Equal(t, tt.subtotal, inv.SubtotalAmount.StringFixed(2))
			assert.Equal(t, tt.vat, inv.VATAmount.StringFixed(2))
			assert.True(t, inv.TotalAmount.Equal(inv.SubtotalAmount.Add(inv.VATAmount)))

			doc, err := ubl.Parse([]byte(inv.XMLContent))
			require.NoError(t, err)
			require.Len(t, doc.InvoiceLines, len(tt.prices))

			lineNet := decimal.Zero
			lineVAT := decimal.Zero
			for _, l := range doc.InvoiceLines {
				lineNet = lineNet.Add(decimal.RequireFromString(l.LineExtensionAmount.Value))
				lineVAT = lineVAT.Add(decimal.RequireFromString(l.TaxTotal.TaxAmount.Value))
			}

			require.Len(t, doc.TaxTotal, 1)
			header := doc.TaxTotal[0]
			assert.Equal(t, tt.vat, header.TaxAmount.Value)
			assert.True(t, decimal.RequireFromString(header.TaxAmount.Value).Equal(lineVAT))
			require.Len(t, header.TaxSubtotal, 1)
			assert.True(t, decimal.RequireFromString(header.TaxSubtotal[0].TaxAmount.Value).Equal(lineVAT))
			assert.True(t, decimal.RequireFromString(header.TaxSubtotal[0].TaxableAmount.Value).Equal(lineNet))
			assert.Equal(t, tt.subtotal, doc.LegalMonetaryTotal.LineExtensionAmount.Value)
			assert.True(t, inv.VATAmount.Equal(lineVAT))
			assert.True(t, inv.SubtotalAmount.Equal(lineNet))
		})
	}
}

func TestCreateInvoiceFromOrder_SupplierFallsBackToBusiness(t *testing.T) {
	f := newFixture(t)
	st := storetest.Settings(businessID)
	st.CompanyTitle = ""
	st.CompanyVKN = ""
	st.CompanyCity = ""
	f.saveSettings(t, st)

	inv := f.create(t, "ord_1")
	doc, err := ubl.Parse([]byte(inv.XMLContent))
	require.NoError(t, err)

	supplier := doc.AccountingSupplierParty.Party
	id, scheme := supplier.TaxID()
	assert.Equal(t, "1234567890", id)
	assert.Equal(t, "VKN", scheme)
	assert.Contains(t, inv.XMLContent, "Temiz Kuru Temizleme")
	assert.Contains(t, inv.XMLContent, "İstanbul")
}

func TestCreateInvoiceFromOrder_CustomerTaxID(t *testing.T) {
	t.Run("explicit wins", func(t *testing.T) {
		f := newFixture(t)
		inv, err := f.svc.CreateInvoiceFromOrder(t.Context(), efatura.CreateRequest{
			BusinessID: businessID, OrderID: "ord_1", CustomerTaxID: "1234567890",
		})
		require.NoError(t, err)
		assert.Equal(t, "1234567890", inv.CustomerTaxID)
	})

	t.Run("placeholder when missing", func(t *testing.T) {
		f := newFixture(t)
		o := f.addOrder(t, "ord_2")
		o.Customer.TaxNumber = ""
		require.NoError(t, f.store.SaveOrder(t.Context(), o))

		inv := f.create(t, "ord_2")
		assert.Equal(t, efatura.PlaceholderCustomerTaxID, inv.CustomerTaxID)
	})

	t.Run("invalid rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateInvoiceFromOrder(t.Context(), efatura.CreateRequest{
			BusinessID: businessID, OrderID: "ord_1", CustomerTaxID: "12345678901",
		})
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = f.store.GetInvoiceByOrder(t.Context(), "ord_1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCreateInvoiceFromOrder_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("order not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateInvoiceFromOrder(ctx, efatura.CreateRequest{BusinessID: businessID, OrderID: "nope"})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("order of another business", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateInvoiceFromOrder(ctx, efatura.CreateRequest{BusinessID: "biz_other", OrderID: "ord_1"})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("settings missing", func(t *testing.T) {
		s := memory.New()
		o := storetest.Order("ord_1", businessID)
		require.NoError(t, s.SaveOrder(ctx, o))
		svc := efatura.NewService(s)

		_, err := svc.CreateInvoiceFromOrder(ctx, efatura.CreateRequest{BusinessID: businessID, OrderID: "ord_1"})
		assert.ErrorIs(t, err, model.ErrNotConfigured)
	})

	t.Run("settings disabled", func(t *testing.T) {
		f := newFixture(t)
		st := storetest.Settings(businessID)
		st.Enabled = false
		f.saveSettings(t, st)

		_, err := f.svc.CreateInvoiceFromOrder(ctx, efatura.CreateRequest{BusinessID: businessID, OrderID: "ord_1"})
		assert.ErrorIs(t, err, model.ErrNotConfigured)
	})

	t.Run("already invoiced", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, "ord_1")

		_, err := f.svc.CreateInvoiceFromOrder(ctx, efatura.CreateRequest{BusinessID: businessID, OrderID: "ord_1"})
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("no items", func(t *testing.T) {
		f := newFixture(t)
		o := storetest.Order("ord_empty", businessID)
		o.Items = nil
		require.NoError(t, f.store.SaveOrder(ctx, o))

		_, err := f.svc.CreateInvoiceFromOrder(ctx, efatura.CreateRequest{BusinessID: businessID, OrderID: "ord_empty"})
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestCreateInvoiceFromOrder_ConcurrentSameOrder(t *testing.T) {
	f := newFixture(t)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateInvoiceFromOrder(context.Background(), efatura.CreateRequest{
				BusinessID: businessID, OrderID: "ord_1",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, model.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)

	page, err := f.svc.GetInvoices(t.Context(), store.InvoiceFilter{OrderID: "ord_1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestCreateInvoiceFromOrder_ConcurrentNumbering(t *testing.T) {
	f := newFixture(t)

	const orders = 20
	for i := 0; i < orders; i++ {
		f.addOrder(t, fmt.Sprintf("ord_c%02d", i))
	}

	numbers := make(chan string, orders)
	var wg sync.WaitGroup
	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv, err := f.svc.CreateInvoiceFromOrder(context.Background(), efatura.CreateRequest{
				BusinessID: businessID, OrderID: fmt.Sprintf("ord_c%02d", i),
			})
			if assert.NoError(t, err) {
				numbers <- inv.InvoiceNumber
			}
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	require.Len(t, seen, orders)
	for seq := 42; seq < 42+orders; seq++ {
		assert.True(t, seen[fmt.Sprintf("EMU2026%08d", seq)], "missing sequence %d", seq)
	}
}

func TestIsOrderEligibleForInvoice(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, f *fixture)
		order  string
		want   bool
		reason string
	}{
		{name: "eligible", order: "ord_1", want: true},
		{name: "missing order", order: "nope", reason: efatura.ReasonOrderNotFound},
		{
			name:  "disabled",
			order: "ord_1",
			setup: func(t *testing.T, f *fixture) {
				st := storetest.Settings(businessID)
				st.Enabled = false
				f.saveSettings(t, st)
			},
			reason: efatura.ReasonNotEnabled,
		},
		{
			name:  "not required",
			order: "ord_1",
			setup: func(t *testing.T, f *fixture) {
				o := storetest.Order("ord_1", businessID)
				require.NoError(t, f.store.SaveOrder(t.Context(), o))
			},
			reason: efatura.ReasonNotRequired,
		},
		{
			name:  "unpaid",
			order: "ord_1",
			setup: func(t *testing.T, f *fixture) {
				o := f.addOrder(t, "ord_1")
				o.PaymentStatus = "PENDING"
				o.Status = "IN_PROGRESS"
				require.NoError(t, f.store.SaveOrder(t.Context(), o))
			},
			reason: efatura.ReasonPaymentPending,
		},
		{
			name:  "incomplete",
			order: "ord_1",
			setup: func(t *testing.T, f *fixture) {
				o := f.addOrder(t, "ord_1")
				o.Status = "IN_PROGRESS"
				require.NoError(t, f.store.SaveOrder(t.Context(), o))
			},
			reason: efatura.ReasonNotCompleted,
		},
		{
			name:  "incomplete but completion not required",
			order: "ord_1",
			setup: func(t *testing.T, f *fixture) {
				st := storetest.Settings(businessID)
				st.RequirePayment = true
				f.saveSettings(t, st)
				o := f.addOrder(t, "ord_1")
				o.Status = "IN_PROGRESS"
				require.NoError(t, f.store.SaveOrder(t.Context(), o))
			},
			want: true,
		},
		{
			name:   "already invoiced",
			order:  "ord_1",
			setup:  func(t *testing.T, f *fixture) { f.create(t, "ord_1") },
			reason: efatura.ReasonAlreadyInvoiced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			got, err := f.svc.IsOrderEligibleForInvoice(t.Context(), tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Eligible)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestGetInvoices(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.addOrder(t, fmt.Sprintf("ord_l%d", i))
		f.create(t, fmt.Sprintf("ord_l%d", i))
		f.clock.Advance(24 * time.Hour)
	}

	page, err := f.svc.GetInvoices(t.Context(), store.InvoiceFilter{BusinessID: businessID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Invoices, 2)
	assert.Equal(t, "EMU202600000044", page.Invoices[0].InvoiceNumber)

	_, err = f.svc.GetInvoices(t.Context(), store.InvoiceFilter{Statuses: []model.GIBStatus{"PENDING"}})
	assert.ErrorIs(t, err, model.ErrValidation)

	empty, err := f.svc.GetInvoices(t.Context(), store.InvoiceFilter{BusinessID: "biz_none"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Invoices)
	assert.Zero(t, empty.Total)
}

func TestGetInvoiceStats(t *testing.T) {
	f := newFixture(t)
	f.create(t, "ord_1")
	f.clock.Advance(45 * 24 * time.Hour)
	f.addOrder(t, "ord_2")
	second := f.create(t, "ord_2")

	stats, err := f.svc.GetInvoiceStats(t.Context(), businessID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCount)
	assert.Equal(t, int64(1), stats.RecentCount)
	assert.True(t, stats.RecentAmount.Equal(second.TotalAmount))
	assert.True(t, stats.TotalAmount.Equal(second.TotalAmount.Mul(decimal.NewFromInt(2))))
	assert.Equal(t, int64(2), stats.ByStatus[model.StatusCreated])

	wide, err := f.svc.GetInvoiceStats(t.Context(), businessID, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(2), wide.RecentCount)
}

func TestCleanupDraftInvoices(t *testing.T) {
	f := newFixture(t)

	draft, err := f.svc.CreateInvoiceFromOrder(t.Context(), efatura.CreateRequest{
		BusinessID: businessID, OrderID: "ord_1", Draft: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, draft.GIBStatus)

	f.addOrder(t, "ord_2")
	created := f.create(t, "ord_2")

	n, err := f.svc.CleanupDraftInvoices(t.Context(), businessID, 0)
	require.NoError(t, err)
	assert.Zero(t, n, "fresh drafts are kept")

	f.clock.Advance(8 * 24 * time.Hour)
	n, err = f.svc.CleanupDraftInvoices(t.Context(), businessID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.svc.GetInvoice(t.Context(), draft.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.svc.GetInvoice(t.Context(), created.ID)
	assert.NoError(t, err)
}
