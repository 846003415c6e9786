package efatura_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/efatura"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib/gibtest"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/signaturetest"
	xmldsig "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/xml"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/memory"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/storetest"
)

const businessID = "biz_1"

// testClock is a settable clock
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store  *memory.Store
	svc    *efatura.Service
	portal *gibtest.Portal
	clock  *testClock
}

func newFixture(t *testing.T, opts ...efatura.Option) *fixture {
	t.Helper()

	f := &fixture{
		store:  memory.New(),
		portal: gibtest.New(t),
		clock:  &testClock{t: time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)},
	}

	ident := signaturetest.NewSelfSigned(t, "Temiz Kuru Temizleme Ltd.", "1234567890")
	signer, err := xmldsig.NewXMLSigner(ident.Credentials())
	require.NoError(t, err)

	pool := efatura.NewClientPool(f.portal.Config(), gib.WithLogger(logger.Nop()), gib.WithSigner(signer))
	base := []efatura.Option{
		efatura.WithPortalFactory(pool),
		efatura.WithLogger(logger.Nop()),
		efatura.WithClock(f.clock.Now),
	}
	f.svc = efatura.NewService(f.store, append(base, opts...)...)

	st := storetest.Settings(businessID)
	st.NumberLength = 8
	st.InvoiceCounter = 41
	st.RequirePayment = true
	st.RequireCompletion = true
	f.saveSettings(t, st)
	f.addOrder(t, "ord_1")
	return f
}

func (f *fixture) saveSettings(t *testing.T, st *model.Settings) {
	t.Helper()
	require.NoError(t, f.store.SaveSettings(t.Context(), st))
}

func (f *fixture) addOrder(t *testing.T, orderID string) *model.Order {
	t.Helper()
	o := storetest.Order(orderID, businessID)
	o.RequiresInvoice = true
	require.NoError(t, f.store.SaveOrder(t.Context(), o))
	return o
}

func (f *fixture) create(t *testing.T, orderID string) *model.Invoice {
	t.Helper()
	inv, err := f.svc.CreateInvoiceFromOrder(t.Context(), efatura.CreateRequest{
		BusinessID: businessID,
		OrderID:    orderID,
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) actions(t *testing.T, invoiceID string) []model.LogAction {
	t.Helper()
	logs, err := f.store.ListLogs(t.Context(), invoiceID)
	require.NoError(t, err)
	out := make([]model.LogAction, len(logs))
	for i, l := range logs {
		out[i] = l.Action
	}
	return out
}
