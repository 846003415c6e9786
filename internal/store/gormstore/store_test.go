package gormstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/gormstore"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/storetest"
)

func openSQLite(t *testing.T) store.Store {
	t.Helper()

	s, err := gormstore.Open(gormstore.DriverSQLite, filepath.Join(t.TempDir(), "efatura.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, openSQLite)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := gormstore.Open("oracle", "dsn", logger.Nop())
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}
