package efatura_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/efatura"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib/gibtest"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
)

var fastPolicy = gib.RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

func startDispatcher(t *testing.T, f *fixture) (*efatura.Dispatcher, <-chan efatura.DispatchResult) {
	t.Helper()
	results := make(chan efatura.DispatchResult, 16)
	nop := logger.Nop()
	d := efatura.NewDispatcher(f.svc, efatura.DispatcherConfig{
		Workers:  2,
		Policy:   fastPolicy,
		OnResult: func(r efatura.DispatchResult) { results <- r },
		Logger:   &nop,
	})
	t.Cleanup(d.Close)
	return d, results
}

func waitResult(t *testing.T, results <-chan efatura.DispatchResult) efatura.DispatchResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no dispatch result")
		return efatura.DispatchResult{}
	}
}

func TestDispatcher_AutoSend(t *testing.T) {
	f := newFixture(t)
	_, results := startDispatcher(t, f)

	inv, err := f.svc.CreateInvoiceFromOrder(t.Context(), efatura.CreateRequest{
		BusinessID: businessID, OrderID: "ord_1", AutoSend: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCreated, inv.GIBStatus, "creation returns before the send")

	r := waitResult(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, inv.ID, r.InvoiceID)
	assert.True(t, r.Result.Success)

	got, err := f.svc.GetInvoice(t.Context(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, got.GIBStatus)
}

func TestDispatcher_AutoSendFromSettings(t *testing.T) {
	f := newFixture(t)
	st, err := f.store.GetSettings(t.Context(), businessID)
	require.NoError(t, err)
	st.AutoSend = true
	f.saveSettings(t, st)
	_, results := startDispatcher(t, f)

	inv := f.create(t, "ord_1")
	r := waitResult(t, results)
	assert.Equal(t, inv.ID, r.InvoiceID)
	assert.True(t, r.Result.Success)
}

func TestDispatcher_DraftIsNotSent(t *testing.T) {
	f := newFixture(t)
	d, results := startDispatcher(t, f)

	_, err := f.svc.CreateInvoiceFromOrder(t.Context(), efatura.CreateRequest{
		BusinessID: businessID, OrderID: "ord_1", AutoSend: true, Draft: true,
	})
	require.NoError(t, err)

	d.Close()
	assert.Empty(t, results)
	assert.Empty(t, f.portal.Requests(gib.OpSendInvoice))
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	d, results := startDispatcher(t, f)
	inv := f.create(t, "ord_1")
	f.portal.QueueSend(gibtest.Reply{Fault: "temporarily unavailable"})

	require.NoError(t, d.Enqueue(inv.ID))
	r := waitResult(t, results)
	require.NoError(t, r.Err)
	assert.True(t, r.Result.Success)
	assert.Len(t, f.portal.Requests(gib.OpSendInvoice), 2)
	assert.Equal(t, model.StatusSent, r.Invoice.GIBStatus)
}

func TestDispatcher_DoesNotRetryRejections(t *testing.T) {
	f := newFixture(t)
	d, results := startDispatcher(t, f)
	inv := f.create(t, "ord_1")
	f.portal.QueueSend(gibtest.Reply{Result: "1", ErrorCode: gib.ErrCodeDuplicate})

	require.NoError(t, d.Enqueue(inv.ID))
	r := waitResult(t, results)
	require.NoError(t, r.Err)
	assert.False(t, r.Result.Success)
	assert.Equal(t, "Bu fatura daha önce gönderilmiş", r.Result.ErrorMessage)
	assert.Len(t, f.portal.Requests(gib.OpSendInvoice), 1)
	assert.Equal(t, model.StatusCreated, r.Invoice.GIBStatus)
}

func TestDispatcher_ReportsServiceErrors(t *testing.T) {
	f := newFixture(t)
	d, results := startDispatcher(t, f)

	require.NoError(t, d.Enqueue("inv_missing"))
	r := waitResult(t, results)
	assert.ErrorIs(t, r.Err, model.ErrNotFound)
	assert.Nil(t, r.Result)
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	f := newFixture(t)
	d, results := startDispatcher(t, f)

	var ids []string
	for _, o := range []string{"ord_2", "ord_3", "ord_4"} {
		f.addOrder(t, o)
		ids = append(ids, f.create(t, o).ID)
	}
	for _, id := range ids {
		require.NoError(t, d.Enqueue(id))
	}
	d.Close()

	assert.Len(t, results, 3)
	for _, id := range ids {
		got, err := f.svc.GetInvoice(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusSent, got.GIBStatus)
	}

	assert.ErrorIs(t, d.Enqueue(ids[0]), efatura.ErrDispatcherClosed)
	d.Close()
}

func TestDispatcher_AbortStopsBackoff(t *testing.T) {
	f := newFixture(t)
	results := make(chan efatura.DispatchResult, 1)
	nop := logger.Nop()
	d := efatura.NewDispatcher(f.svc, efatura.DispatcherConfig{
		Workers:  1,
		Policy:   gib.RetryPolicy{MaxTries: 5, InitialInterval: time.Hour, MaxInterval: time.Hour},
		OnResult: func(r efatura.DispatchResult) { results <- r },
		Logger:   &nop,
	})

	inv := f.create(t, "ord_1")
	f.portal.QueueSend(gibtest.Reply{Fault: "down"}, gibtest.Reply{Fault: "down"})
	require.NoError(t, d.Enqueue(inv.ID))
	require.Eventually(t, func() bool {
		return len(f.portal.Requests(gib.OpSendInvoice)) == 1
	}, 5*time.Second, 5*time.Millisecond)

	start := time.Now()
	d.Abort()
	assert.Less(t, time.Since(start), 5*time.Second)

	r := waitResult(t, results)
	assert.True(t, r.Err != nil || !r.Result.Success)
	assert.Len(t, f.portal.Requests(gib.OpSendInvoice), 1)
	assert.ErrorIs(t, d.Enqueue(inv.ID), efatura.ErrDispatcherClosed)
}
