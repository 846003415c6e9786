package gib

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds automatic resubmission of retryable failures
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is three attempts starting at one second
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
	}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// Sender submits invoices
type Sender interface {
	SendInvoice(ctx context.Context, req SendRequest) *SendResult
}

// SendWithRetry resubmits while the portal answers with SYSTEM_ERROR or
// SOAP_ERROR, backing off exponentially. The last result is returned
// whether or not it succeeded; business rejections are never retried.
func SendWithRetry(ctx context.Context, s Sender, req SendRequest, policy RetryPolicy) *SendResult {
	if policy.MaxTries == 0 {
		policy.MaxTries = 1
	}

	var last *SendResult
	_, _ = backoff.Retry(ctx, func() (*SendResult, error) {
		last = s.SendInvoice(ctx, req)
		if last.Retryable() {
			return nil, NewPortalError(last.ErrorCode, OpSendInvoice, last.ErrorMessage, nil)
		}
		return last, nil
	},
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxTries(policy.MaxTries),
	)

	if last == nil {
		// Context was done before the first attempt
		return &SendResult{ErrorCode: ErrCodeSOAP, ErrorMessage: ErrorMessages[ErrCodeSOAP]}
	}
	return last
}
