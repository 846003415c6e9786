package gib

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature"
	xmldsig "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/xml"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

const dateLayout = "2006-01-02"

// Portal status codes
var statusCodes = map[string]model.GIBStatus{
	"100": model.StatusSent,
	"110": model.StatusAccepted,
	"120": model.StatusRejected,
	"130": model.StatusCancelled,
}

// SendRequest is one invoice submission
type SendRequest struct {
	InvoiceUUID        string
	InvoiceNumber      string
	ETTN               string
	SignedXMLContent   string
	ReceiverIdentifier string
}

// SendResult is the outcome of a submission. Business and transport
// failures both come back here with Success false.
type SendResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// Retryable reports whether the failure may be retried
func (r *SendResult) Retryable() bool {
	return !r.Success && IsRetryable(r.ErrorCode)
}

// StatusResult is the portal-side state of one invoice. StatusDate is zero
// when the portal sent no parseable date.
type StatusResult struct {
	InvoiceUUID  string          `json:"invoiceUuid"`
	Status       model.GIBStatus `json:"status"`
	StatusDate   time.Time       `json:"statusDate"`
	ErrorCode    string          `json:"errorCode,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// InvoiceSummary is one entry of GetInvoiceList
type InvoiceSummary struct {
	InvoiceUUID        string          `json:"invoiceUuid"`
	InvoiceNumber      string          `json:"invoiceNumber"`
	ReceiverIdentifier string          `json:"receiverIdentifier,omitempty"`
	Status             model.GIBStatus `json:"status"`
	StatusDate         time.Time       `json:"statusDate"`
	Amount             string          `json:"amount,omitempty"`
}

// Portal is the part of the client the assembly service depends on
type Portal interface {
	SendInvoice(ctx context.Context, req SendRequest) *SendResult
	QueryInvoiceStatus(ctx context.Context, invoiceUUID string) (*StatusResult, error)
	CancelInvoice(ctx context.Context, invoiceUUID, reason string) bool
	SignXMLContent(xmlContent string) (string, error)
	TestConnection(ctx context.Context) bool
}

var _ Portal = (*Client)(nil)

// basicAuthTransport adds HTTP basic auth to every portal request
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPTransport replaces the underlying transport, e.g. for tests
func WithHTTPTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithLogger sets the client logger
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithSigner sets the document signer instead of loading the configured certificate
func WithSigner(s signature.Signer) ClientOption {
	return func(c *Client) {
		c.signer = s
	}
}

// Client talks to one portal account. Calls are serialized; the SOAP
// session is not shared between in-flight requests.
type Client struct {
	cfg       Config
	transport http.RoundTripper
	log       zerolog.Logger

	mu      sync.Mutex
	http    *http.Client
	session *session

	signerMu sync.Mutex
	signer   signature.Signer
}

// NewClient creates a client. No network traffic happens until the first call.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg: cfg,
		log: logger.WithComponent("gib-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client configuration
func (c *Client) Config() Config {
	return c.cfg
}

// Initialize fetches and parses the WSDL with the configured credentials.
// Calling it again replaces the session.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialize(ctx)
}

func (c *Client) initialize(ctx context.Context) error {
	httpClient := &http.Client{
		Timeout: c.cfg.Timeout,
		Transport: &basicAuthTransport{
			username: c.cfg.Username,
			password: c.cfg.Password,
			base:     c.transport,
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.WSDLURL(), nil)
	if err != nil {
		return transportError("initialize", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return transportError("initialize", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return NewPortalError(ErrCodeCredentials, "initialize", ErrorMessages[ErrCodeCredentials], nil)
	}
	if resp.StatusCode != http.StatusOK {
		return transportError("initialize", fmt.Errorf("WSDL request returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError("initialize", err)
	}
	s, err := parseWSDL(body)
	if err != nil {
		return transportError("initialize", err)
	}
	if s.endpoint == "" {
		s.endpoint = c.cfg.ServiceURL()
	}

	c.http = httpClient
	c.session = s
	c.log.Info().
		Bool("test_mode", c.cfg.TestMode).
		Str("endpoint", s.endpoint).
		Msg("Portal session initialized")
	return nil
}

// call performs one SOAP round trip, initializing lazily. The caller holds c.mu.
func (c *Client) call(ctx context.Context, operation string, fields ...field) (*etree.Element, error) {
	if c.session == nil {
		if err := c.initialize(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := buildEnvelope(c.session.targetNamespace, operation, fields...)
	if err != nil {
		return nil, transportError(operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.session.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, transportError(operation, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", operation)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(operation, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, NewPortalError(ErrCodeCredentials, operation, ErrorMessages[ErrCodeCredentials], nil)
	}
	// SOAP 1.1 faults arrive with status 500, so parse before judging the status
	result, err := parseResponse(body, operation)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, transportError(operation, fmt.Errorf("portal returned status %d", resp.StatusCode))
	}
	return result, nil
}

// SendInvoice submits a signed invoice. It never returns an error: portal
// rejections carry the portal's code, transport failures carry SOAP_ERROR.
func (c *Client) SendInvoice(ctx context.Context, req SendRequest) *SendResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.log.With().
		Str("invoice_uuid", req.InvoiceUUID).
		Str("invoice_number", req.InvoiceNumber).
		Logger()

	resp, err := c.call(ctx, OpSendInvoice,
		field{fieldETTN, req.ETTN},
		field{fieldUUID, req.InvoiceUUID},
		field{fieldNumber, req.InvoiceNumber},
		field{fieldReceiver, req.ReceiverIdentifier},
		field{fieldContent, base64.StdEncoding.EncodeToString([]byte(req.SignedXMLContent))},
	)
	if err != nil {
		code := ErrCodeSOAP
		var pe *PortalError
		if errors.As(err, &pe) {
			code = pe.Code
		}
		log.Error().Err(err).Int("payload_bytes", len(req.SignedXMLContent)).Msg("Invoice submission failed")
		return &SendResult{ErrorCode: code, ErrorMessage: MessageFor(code, "")}
	}

	if result := childText(resp, fieldResult); result != ResultSuccess {
		code := childText(resp, fieldErrorCode)
		if code == "" {
			code = ErrCodeSystem
		}
		log.Warn().Str("result", result).Str("error_code", code).Msg("Invoice rejected by portal")
		return &SendResult{ErrorCode: code, ErrorMessage: MessageFor(code, childText(resp, fieldErrorMessage))}
	}

	txID := childText(resp, fieldTransaction)
	log.Info().Str("transaction_id", txID).Msg("Invoice accepted for processing")
	return &SendResult{Success: true, TransactionID: txID}
}

// QueryInvoiceStatus returns the portal status of an invoice, or nil when
// the portal does not know it. Transport failures are returned as errors.
func (c *Client) QueryInvoiceStatus(ctx context.Context, invoiceUUID string) (*StatusResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.call(ctx, OpGetInvoiceStatus, field{fieldUUID, invoiceUUID})
	if err != nil {
		c.log.Error().Err(err).Str("invoice_uuid", invoiceUUID).Msg("Status query failed")
		return nil, err
	}

	code := childText(resp, fieldStatusCode)
	if code == "" {
		return nil, nil
	}

	result := &StatusResult{
		InvoiceUUID:  invoiceUUID,
		Status:       mapStatus(code),
		StatusDate:   parsePortalTime(childText(resp, fieldStatusDate)),
		ErrorCode:    childText(resp, fieldErrorCode),
		ErrorMessage: childText(resp, fieldErrorMessage),
	}
	if uuid := childText(resp, fieldUUID); uuid != "" {
		result.InvoiceUUID = uuid
	}
	return result, nil
}

// CancelInvoice asks the portal to cancel an invoice. Any failure is false.
func (c *Client) CancelInvoice(ctx context.Context, invoiceUUID, reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.call(ctx, OpCancelInvoice,
		field{fieldUUID, invoiceUUID},
		field{fieldReason, reason},
	)
	if err != nil {
		c.log.Error().Err(err).Str("invoice_uuid", invoiceUUID).Msg("Cancellation failed")
		return false
	}
	if result := childText(resp, fieldResult); result != ResultSuccess {
		c.log.Warn().
			Str("invoice_uuid", invoiceUUID).
			Str("error_code", childText(resp, fieldErrorCode)).
			Msg("Cancellation rejected by portal")
		return false
	}
	return true
}

// GetInvoiceList lists invoices whose date falls in [start, end]
func (c *Client) GetInvoiceList(ctx context.Context, start, end time.Time) ([]InvoiceSummary, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("gib: end date %s is before start date %s", end.Format(dateLayout), start.Format(dateLayout))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.call(ctx, OpGetInvoiceList,
		field{fieldStartDate, start.Format(dateLayout)},
		field{fieldEndDate, end.Format(dateLayout)},
	)
	if err != nil {
		c.log.Error().Err(err).Msg("Invoice list failed")
		return nil, err
	}

	if result := childText(resp, fieldResult); result != "" && result != ResultSuccess {
		code := childText(resp, fieldErrorCode)
		return nil, NewPortalError(code, OpGetInvoiceList, MessageFor(code, childText(resp, fieldErrorMessage)), nil)
	}

	entries := resp.FindElements("./" + fieldInvoice)
	out := make([]InvoiceSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, InvoiceSummary{
			InvoiceUUID:        childText(e, fieldUUID),
			InvoiceNumber:      childText(e, fieldNumber),
			ReceiverIdentifier: childText(e, fieldReceiver),
			Status:             mapStatus(childText(e, fieldStatusCode)),
			StatusDate:         parsePortalTime(childText(e, fieldStatusDate)),
			Amount:             childText(e, fieldAmount),
		})
	}
	return out, nil
}

// TestConnection re-initializes the session and reports whether it worked
func (c *Client) TestConnection(ctx context.Context) bool {
	if err := c.Initialize(ctx); err != nil {
		c.log.Warn().Err(err).Msg("Portal connection test failed")
		return false
	}
	return true
}

// SignXMLContent returns xmlContent with an enveloped XML-DSig signature
// made with the configured PKCS#12 certificate
func (c *Client) SignXMLContent(xmlContent string) (string, error) {
	s, err := c.documentSigner()
	if err != nil {
		return "", err
	}
	signed, err := s.Sign([]byte(xmlContent))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

func (c *Client) documentSigner() (signature.Signer, error) {
	c.signerMu.Lock()
	defer c.signerMu.Unlock()

	if c.signer != nil {
		return c.signer, nil
	}
	if c.cfg.CertificatePath == "" {
		return nil, ErrNoCertificate
	}
	s, err := xmldsig.NewXMLSignerFromFile(c.cfg.CertificatePath, c.cfg.CertificatePassword)
	if err != nil {
		return nil, err
	}
	c.signer = s
	return s, nil
}

// ValidateTaxIdentifier checks a VKN or TCKN before a round trip
func ValidateTaxIdentifier(identifier string) tax.TaxNumberResult {
	return tax.ValidateTurkishTaxNumber(identifier)
}

func mapStatus(code string) model.GIBStatus {
	if s, ok := statusCodes[code]; ok {
		return s
	}
	return model.StatusSent
}

// parsePortalTime returns the zero time when s matches no known layout
func parsePortalTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
