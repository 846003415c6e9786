package trust

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"sync"
	"time"
)

// TrustStore holds the CA certificates accepted for invoice signatures
// (the Kamu SM and commercial e-seal issuers) and checks revocation.
type TrustStore struct {
	mu        sync.RWMutex
	roots     *x509.CertPool
	rootCerts []*x509.Certificate
	ocsp      *OCSPChecker
	softFail  bool
	loadErr   error
}

// TrustStoreOption configures a TrustStore
type TrustStoreOption func(*TrustStore)

// NewTrustStore creates a trust store. Certificate files given through
// options are loaded eagerly and the first failure is returned.
func NewTrustStore(opts ...TrustStoreOption) (*TrustStore, error) {
	store := NewEmptyTrustStore(opts...)
	if store.loadErr != nil {
		return nil, store.loadErr
	}
	return store, nil
}

// NewEmptyTrustStore creates a trust store without any roots. Load errors
// from options are ignored; use NewTrustStore to see them.
func NewEmptyTrustStore(opts ...TrustStoreOption) *TrustStore {
	store := &TrustStore{
		roots:     x509.NewCertPool(),
		rootCerts: make([]*x509.Certificate, 0),
		ocsp:      NewOCSPChecker(),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// WithSoftFail accepts certificates whose revocation status cannot be determined
func WithSoftFail() TrustStoreOption {
	return func(s *TrustStore) {
		s.softFail = true
	}
}

// WithOCSPTimeout sets the timeout for OCSP requests
func WithOCSPTimeout(d time.Duration) TrustStoreOption {
	return func(s *TrustStore) {
		s.ocsp.timeout = d
	}
}

// WithOCSPCacheTTL sets the TTL for OCSP cache entries
func WithOCSPCacheTTL(d time.Duration) TrustStoreOption {
	return func(s *TrustStore) {
		s.ocsp.cache = NewOCSPCache(d)
	}
}

// WithCertificates trusts the given certificates
func WithCertificates(certs ...*x509.Certificate) TrustStoreOption {
	return func(s *TrustStore) {
		s.AddCertificates(certs...)
	}
}

// WithCertificatesFromFile trusts every certificate in a PEM file
func WithCertificatesFromFile(path string) TrustStoreOption {
	return func(s *TrustStore) {
		data, err := os.ReadFile(path)
		if err == nil {
			err = s.AddCertificatesFromPEM(data)
		}
		if err != nil && s.loadErr == nil {
			s.loadErr = fmt.Errorf("trust store %s: %w", path, err)
		}
	}
}

// AddCertificate adds a single certificate to the trust store
func (s *TrustStore) AddCertificate(cert *x509.Certificate) {
	if cert == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots.AddCert(cert)
	s.rootCerts = append(s.rootCerts, cert)
}

// AddCertificates adds multiple certificates to the trust store
func (s *TrustStore) AddCertificates(certs ...*x509.Certificate) {
	for _, cert := range certs {
		s.AddCertificate(cert)
	}
}

// AddCertificatesFromPEM parses and adds certificates from PEM data
func (s *TrustStore) AddCertificatesFromPEM(pemData []byte) error {
	var certs []*x509.Certificate
	for {
		block, rest := pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return fmt.Errorf("failed to parse certificate: %w", err)
			}
			certs = append(certs, cert)
		}
		pemData = rest
	}
	if len(certs) == 0 {
		return fmt.Errorf("no certificates found in PEM data")
	}
	s.AddCertificates(certs...)
	return nil
}

// VerifyChain verifies cert against the trusted roots and returns the chain
// starting with cert
func (s *TrustStore) VerifyChain(cert *x509.Certificate, intermediates []*x509.Certificate) ([]*x509.Certificate, error) {
	if cert == nil {
		return nil, fmt.Errorf("certificate is nil")
	}

	var interPool *x509.CertPool
	if len(intermediates) > 0 {
		interPool = x509.NewCertPool()
		for _, inter := range intermediates {
			interPool.AddCert(inter)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chains, err := cert.Verify(x509.VerifyOptions{
		Roots:         s.roots,
		Intermediates: interPool,
		CurrentTime:   time.Now(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return nil, fmt.Errorf("chain verification failed: %w", err)
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("no valid certificate chains found")
	}

	return chains[0], nil
}

// CheckRevocation reports whether cert is still good. Certificates without
// an OCSP responder are treated as not revoked.
func (s *TrustStore) CheckRevocation(ctx context.Context, cert, issuer *x509.Certificate) (bool, error) {
	if cert == nil || issuer == nil {
		return false, fmt.Errorf("certificate or issuer is nil")
	}
	if len(cert.OCSPServer) == 0 {
		return true, nil
	}

	revoked, err := s.ocsp.Check(ctx, cert, issuer)
	if err != nil {
		if s.softFail {
			return true, fmt.Errorf("OCSP check failed (soft-fail enabled): %w", err)
		}
		return false, fmt.Errorf("OCSP check failed: %w", err)
	}
	return !revoked, nil
}

// RootCerts returns a copy of the trusted certificates
func (s *TrustStore) RootCerts() []*x509.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*x509.Certificate, len(s.rootCerts))
	copy(out, s.rootCerts)
	return out
}

// IsSoftFail returns whether soft-fail mode is enabled
func (s *TrustStore) IsSoftFail() bool {
	return s.softFail
}
