package cmd

import (
	"fmt"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/config"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/efatura"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/gormstore"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/memory"
)

// app is the wiring shared by the commands that touch the database
type app struct {
	cfg     *config.Config
	store   store.Store
	portals *efatura.ClientPool
	svc     *efatura.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return nil, fmt.Errorf("logger setup: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	portals := efatura.NewClientPool(cfg.PortalConfig(), gib.WithLogger(logger.WithComponent("gib-client")))
	svc := efatura.NewService(st,
		efatura.WithPortalFactory(portals),
		efatura.WithLogger(logger.WithComponent("efatura")),
	)
	return &app{cfg: cfg, store: st, portals: portals, svc: svc}, nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		printVerbose("Using in-memory store, nothing will be persisted\n")
		return memory.New(), nil
	}
	st, err := gormstore.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, logger.WithComponent("store"))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DatabaseDriver, err)
	}
	return st, nil
}

// retryPolicy is the background sender policy with the configured attempt limit
func (a *app) retryPolicy() gib.RetryPolicy {
	p := gib.DefaultRetryPolicy()
	p.MaxTries = uint(a.cfg.GIBMaxRetries)
	return p
}

func (a *app) Close() error {
	return a.store.Close()
}
