package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/efatura"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/server"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/trust"
	xmldsig "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/xml"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
	autoMigrate  bool
	trustCAFile  string
	drainTimeout time.Duration
	ocspTimeout  time.Duration
	ocspCacheTTL time.Duration
	ocspSoftFail bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API together with the background invoice sender.

The API provides endpoints for:
  - POST /api/v1/tax/{validate,vat,address,interest}      - Tax utilities
  - POST /api/v1/businesses/:businessId/invoices          - Create from order
  - GET  /api/v1/businesses/:businessId/invoices          - List invoices
  - GET  /api/v1/businesses/:businessId/invoices/stats    - Statistics
  - POST /api/v1/businesses/:businessId/invoices/cleanup  - Remove old drafts
  - GET  /api/v1/orders/:orderId/eligibility              - Eligibility check
  - GET  /api/v1/invoices/:id[/xml|/logs]                 - Invoice details
  - POST /api/v1/invoices/:id/{send,status,cancel,archive,restore}
  - POST /api/v1/signature/verify                         - Verify a signed document
  - GET  /health                                          - Health check

Examples:
  # Start server on the configured address
  efatura serve

  # Start on a custom port in debug mode
  efatura serve --address :9090 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default EFATURA_HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 2*time.Minute, "HTTP write timeout")
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "Migrate the schema before serving")
	serveCmd.Flags().StringVar(&trustCAFile, "ca-file", "", "PEM roots trusted by the verify endpoint")
	serveCmd.Flags().DurationVar(&ocspTimeout, "ocsp-timeout", 10*time.Second, "Timeout for OCSP revocation checks")
	serveCmd.Flags().DurationVar(&ocspCacheTTL, "ocsp-cache-ttl", time.Hour, "How long OCSP answers are cached")
	serveCmd.Flags().BoolVar(&ocspSoftFail, "ocsp-soft-fail", false, "Accept signers whose revocation status is unknown")
	serveCmd.Flags().DurationVar(&drainTimeout, "drain-timeout", time.Minute, "How long queued sends may finish after shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if autoMigrate {
		if err := a.store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	trustOpts := []trust.TrustStoreOption{
		trust.WithOCSPTimeout(ocspTimeout),
		trust.WithOCSPCacheTTL(ocspCacheTTL),
	}
	if ocspSoftFail {
		trustOpts = append(trustOpts, trust.WithSoftFail())
	}
	if trustCAFile != "" {
		trustOpts = append(trustOpts, trust.WithCertificatesFromFile(trustCAFile))
	}
	trustStore, err := trust.NewTrustStore(trustOpts...)
	if err != nil {
		return fmt.Errorf("failed to create trust store: %w", err)
	}

	dispatcher := efatura.NewDispatcher(a.svc, efatura.DispatcherConfig{
		Workers: a.cfg.DispatchWorkers,
		Policy:  a.retryPolicy(),
	})
	defer drain(dispatcher, drainTimeout)

	addr := serverAddr
	if addr == "" {
		addr = a.cfg.HTTPAddr
	}
	srv := server.NewServer(&server.Config{
		Address:      addr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Debug:        serverDebug,
	}, a.svc,
		server.WithVerifier(xmldsig.NewXMLVerifier(trustStore)),
		server.WithHealthCheck(a.store.Ping),
		server.WithLogger(logger.WithComponent("server")),
	)

	fmt.Printf("Starting server on %s (%s store, %d send workers)\n", addr, a.cfg.DatabaseDriver, a.cfg.DispatchWorkers)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	fmt.Println("\nShutting down server...")
	return nil
}

// drain lets queued sends finish, then aborts the retries still running
func drain(d *efatura.Dispatcher, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		fmt.Println("Send queue did not drain in time, aborting")
		d.Abort()
		<-done
	}
}

// commandContext bounds one-shot commands
func commandContext(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), d)
}
