package trust

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/ocsp"
)

// Default OCSP configuration
const (
	DefaultOCSPTimeout  = 10 * time.Second
	DefaultOCSPCacheTTL = 1 * time.Hour
)

// OCSPCache caches revocation answers per certificate
type OCSPCache struct {
	mu      sync.RWMutex
	entries map[string]ocspCacheEntry
	ttl     time.Duration
}

type ocspCacheEntry struct {
	revoked   bool
	expiresAt time.Time
}

// NewOCSPCache creates a new OCSP response cache
func NewOCSPCache(ttl time.Duration) *OCSPCache {
	return &OCSPCache{
		entries: make(map[string]ocspCacheEntry),
		ttl:     ttl,
	}
}

// Get returns the cached revocation status of cert
func (c *OCSPCache) Get(cert *x509.Certificate) (revoked bool, found bool) {
	if cert == nil {
		return false, false
	}
	key := certCacheKey(cert)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, false
	}

	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false, false
	}
	return entry.revoked, true
}

// Set caches the revocation status of cert
func (c *OCSPCache) Set(cert *x509.Certificate, revoked bool) {
	if cert == nil {
		return
	}
	c.mu.Lock()
	c.entries[certCacheKey(cert)] = ocspCacheEntry{
		revoked:   revoked,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Size returns the number of cached entries
func (c *OCSPCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func certCacheKey(cert *x509.Certificate) string {
	return fmt.Sprintf("%s:%s", cert.Issuer.String(), cert.SerialNumber.String())
}

// OCSPChecker queries the responders listed in a certificate
type OCSPChecker struct {
	client  *http.Client
	cache   *OCSPCache
	timeout time.Duration
}

// NewOCSPChecker creates a checker with the default timeout and cache
func NewOCSPChecker() *OCSPChecker {
	return &OCSPChecker{
		client:  &http.Client{},
		cache:   NewOCSPCache(DefaultOCSPCacheTTL),
		timeout: DefaultOCSPTimeout,
	}
}

// Check asks each responder in turn until one answers. Good and revoked
// answers are cached; unknown status is an error.
func (c *OCSPChecker) Check(ctx context.Context, cert, issuer *x509.Certificate) (revoked bool, err error) {
	if revoked, ok := c.cache.Get(cert); ok {
		return revoked, nil
	}
	if len(cert.OCSPServer) == 0 {
		return false, fmt.Errorf("no OCSP server URL in certificate")
	}

	request, err := ocsp.CreateRequest(cert, issuer, &ocsp.RequestOptions{Hash: crypto.SHA256})
	if err != nil {
		return false, fmt.Errorf("failed to create OCSP request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for _, server := range cert.OCSPServer {
		revoked, err := c.query(ctx, server, request, issuer)
		if err == nil {
			c.cache.Set(cert, revoked)
			return revoked, nil
		}
		lastErr = err
	}
	return false, fmt.Errorf("all OCSP servers failed: %w", lastErr)
}

func (c *OCSPChecker) query(ctx context.Context, serverURL string, request []byte, issuer *x509.Certificate) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL, bytes.NewReader(request))
	if err != nil {
		return false, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("OCSP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("OCSP server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read OCSP response: %w", err)
	}

	parsed, err := ocsp.ParseResponseForCert(body, nil, issuer)
	if err != nil {
		return false, fmt.Errorf("failed to parse OCSP response: %w", err)
	}

	switch parsed.Status {
	case ocsp.Good:
		return false, nil
	case ocsp.Revoked:
		return true, nil
	case ocsp.Unknown:
		return false, fmt.Errorf("OCSP status unknown")
	default:
		return false, fmt.Errorf("unexpected OCSP status: %d", parsed.Status)
	}
}
