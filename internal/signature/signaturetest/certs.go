// Package signaturetest generates throwaway keys and certificates for tests
package signaturetest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature"
)

// Identity is a generated RSA key with its certificate
type Identity struct {
	Key         *rsa.PrivateKey
	Certificate *x509.Certificate
}

// Options tweak the generated certificate
type Options struct {
	CommonName string
	TaxID      string
	NotBefore  time.Time
	NotAfter   time.Time
	IsCA       bool
	OCSPServer []string
}

var serial int64

// NewCA returns a self-signed CA valid for one hour around now
func NewCA(t testing.TB, cn string) *Identity {
	t.Helper()
	return New(t, nil, Options{CommonName: cn, IsCA: true})
}

// NewSelfSigned returns a self-signed end-entity certificate
func NewSelfSigned(t testing.TB, cn, taxID string) *Identity {
	t.Helper()
	return New(t, nil, Options{CommonName: cn, TaxID: taxID})
}

// New creates a certificate signed by parent, or self-signed when parent is nil
func New(t testing.TB, parent *Identity, opts Options) *Identity {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	if opts.NotBefore.IsZero() {
		opts.NotBefore = time.Now().Add(-time.Hour)
	}
	if opts.NotAfter.IsZero() {
		opts.NotAfter = time.Now().Add(time.Hour)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(atomic.AddInt64(&serial, 1)),
		Subject: pkix.Name{
			CommonName:   opts.CommonName,
			Organization: []string{opts.CommonName},
			SerialNumber: opts.TaxID,
		},
		NotBefore:             opts.NotBefore,
		NotAfter:              opts.NotAfter,
		IsCA:                  opts.IsCA,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		OCSPServer:            opts.OCSPServer,
	}
	if opts.IsCA {
		template.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature
	}

	issuer, signer := template, key
	if parent != nil {
		issuer, signer = parent.Certificate, parent.Key
	}

	der, err := x509.CreateCertificate(rand.Reader, template, issuer, &key.PublicKey, signer)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	return &Identity{Key: key, Certificate: cert}
}

// Credentials wraps the identity for signing
func (i *Identity) Credentials() *signature.Credentials {
	return &signature.Credentials{PrivateKey: i.Key, Certificate: i.Certificate}
}

// PEM encodes the certificate
func (i *Identity) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: i.Certificate.Raw})
}
