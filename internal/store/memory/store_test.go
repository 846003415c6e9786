package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/memory"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return memory.New() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.SaveOrder(ctx, storetest.Order("ord_1", "biz_1")))
	o, err := s.GetOrder(ctx, "ord_1")
	require.NoError(t, err)
	o.Items[0].Service.Name = "changed"
	o.Business.Name = "changed"

	again, err := s.GetOrder(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, "Kuru Temizleme", again.Items[0].Service.Name)
	assert.Equal(t, "Temiz Kuru Temizleme", again.Business.Name)

	inv := storetest.Invoice("inv_1", "biz_1", "ord_1", "EMU2026000000001", "10.00")
	require.NoError(t, s.CreateInvoice(ctx, inv, nil))
	inv.InvoiceNumber = "changed"

	got, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, "EMU2026000000001", got.InvoiceNumber)
}
