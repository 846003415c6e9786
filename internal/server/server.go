package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/efatura"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/trust"
	xmldsig "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/xml"
)

// Config holds server configuration
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
}

// Option customizes a Server
type Option func(*Server)

// WithVerifier replaces the signature verifier. The default trusts no
// roots, so only the signature value itself can pass.
func WithVerifier(v signature.Verifier) Option {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithHealthCheck adds a dependency probe to GET /health
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.healthCheck = check
	}
}

// WithLogger replaces the component logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// Server represents the HTTP API server
type Server struct {
	config      *Config
	router      *gin.Engine
	svc         *efatura.Service
	verifier    signature.Verifier
	healthCheck func(ctx context.Context) error
	log         zerolog.Logger
}

// NewServer creates a new API server over the assembly service
func NewServer(config *Config, svc *efatura.Service, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config: config,
		router: router,
		svc:    svc,
		log:    logger.WithComponent("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.verifier == nil {
		s.verifier = xmldsig.NewXMLVerifier(trust.NewEmptyTrustStore())
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		// Stateless tax utilities
		v1.POST("/tax/validate", s.handleValidateTaxNumber)
		v1.POST("/tax/vat", s.handleCalculateVAT)
		v1.POST("/tax/address", s.handleValidateAddress)
		v1.POST("/tax/interest", s.handleLatePaymentInterest)

		biz := v1.Group("/businesses/:businessId")
		biz.POST("/invoices", s.handleCreateInvoice)
		biz.GET("/invoices", s.handleListInvoices)
		biz.GET("/invoices/stats", s.handleInvoiceStats)
		biz.POST("/invoices/cleanup", s.handleCleanupDrafts)
		biz.POST("/portal/test", s.handlePortalTest)

		v1.GET("/orders/:orderId/eligibility", s.handleEligibility)

		inv := v1.Group("/invoices/:id")
		inv.GET("", s.handleGetInvoice)
		inv.GET("/xml", s.handleGetInvoiceXML)
		inv.GET("/logs", s.handleGetInvoiceLogs)
		inv.POST("/finalize", s.handleFinalize)
		inv.POST("/send", s.handleSend)
		inv.POST("/status", s.handleRefreshStatus)
		inv.POST("/cancel", s.handleCancel)
		inv.POST("/archive", s.handleArchive)
		inv.POST("/restore", s.handleRestore)

		v1.POST("/signature/verify", s.handleVerify)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.config.Address).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if s.healthCheck != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := s.healthCheck(ctx); err != nil {
			resp["status"] = "degraded"
			resp["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps service error kinds to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNotConfigured):
		return http.StatusPreconditionFailed
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrPortal):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var svcErr *model.ServiceError
	if errors.As(err, &svcErr) {
		resp.Error = svcErr.Message
		if svcErr.Kind == model.ErrPortal {
			resp.Code = svcErr.Field
		} else {
			resp.Field = svcErr.Field
		}
		if svcErr.Cause != nil {
			resp.Details = svcErr.Cause.Error()
		}
	}
	var valErr *model.ValidationError
	if errors.As(err, &valErr) {
		resp.Error = valErr.Message
		resp.Field = valErr.Field
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		resp = ErrorResponse{Error: "internal error"}
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
