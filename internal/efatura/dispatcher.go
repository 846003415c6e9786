package efatura

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
)

var (
	ErrDispatcherClosed = errors.New("efatura: dispatcher closed")
	ErrQueueFull        = errors.New("efatura: send queue full")
)

// DispatchResult reports what happened to one queued invoice
type DispatchResult struct {
	InvoiceID string
	Invoice   *model.Invoice
	Result    *gib.SendResult
	Err       error
}

// DispatcherConfig sizes the worker pool
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	Policy      gib.RetryPolicy
	SendTimeout time.Duration // per invoice, across all retries
	// OnResult is called from the worker after each invoice
	OnResult func(DispatchResult)
	Logger   *zerolog.Logger
}

// Dispatcher sends queued invoices in the background. Retryable portal
// failures are retried with exponential backoff; rejections are not.
type Dispatcher struct {
	svc    *Service
	cfg    DispatcherConfig
	log    zerolog.Logger
	queue  chan string
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
}

var _ Enqueuer = (*Dispatcher)(nil)

// NewDispatcher starts cfg.Workers workers and attaches the dispatcher to svc
func NewDispatcher(svc *Service, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Policy.MaxTries == 0 {
		cfg.Policy = gib.DefaultRetryPolicy()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Minute
	}

	log := logger.WithComponent("dispatcher")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		svc:    svc,
		cfg:    cfg,
		log:    log,
		queue:  make(chan string, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for w := 0; w < cfg.Workers; w++ {
		d.wg.Add(1)
		go d.worker(w)
	}
	svc.UseDispatcher(d)

	log.Info().Int("workers", cfg.Workers).Int("queue_size", cfg.QueueSize).Msg("dispatcher started")
	return d
}

// Enqueue queues an invoice without blocking
func (d *Dispatcher) Enqueue(invoiceID string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- invoiceID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting work and waits until queued invoices are sent
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
	d.log.Info().Msg("dispatcher stopped")
}

// Abort stops the workers without waiting for retries to finish
func (d *Dispatcher) Abort() {
	d.cancel()
	d.Close()
}

func (d *Dispatcher) worker(n int) {
	defer d.wg.Done()

	for invoiceID := range d.queue {
		ctx, cancel := context.WithTimeout(d.ctx, d.cfg.SendTimeout)
		inv, res, err := d.svc.send(ctx, invoiceID, d.cfg.Policy)
		cancel()

		ev := d.log.Info()
		switch {
		case err != nil:
			ev = d.log.Error().Err(err)
		case !res.Success:
			ev = d.log.Warn().Str("error_code", res.ErrorCode)
		}
		ev.Int("worker", n).Str("invoice_id", invoiceID).Msg("dispatch finished")

		if d.cfg.OnResult != nil {
			d.cfg.OnResult(DispatchResult{InvoiceID: invoiceID, Invoice: inv, Result: res, Err: err})
		}
	}
}
