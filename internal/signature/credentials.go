package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"
)

// Credentials is the private key and certificate used to sign invoices
type Credentials struct {
	PrivateKey  crypto.Signer
	Certificate *x509.Certificate
}

// LoadPKCS12File reads a .p12/.pfx bundle from disk
func LoadPKCS12File(path, password string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrCertificateLoad(path, err)
	}
	return LoadPKCS12(data, password)
}

// LoadPKCS12 decodes a PKCS#12 bundle holding one key and its certificate.
// The certificate must be valid now.
func LoadPKCS12(data []byte, password string) (*Credentials, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, ErrCertificateLoad("pkcs12", err)
	}
	return NewCredentials(key, cert)
}

// NewCredentials checks that key is usable for XML-DSig and that cert is
// currently valid
func NewCredentials(key interface{}, cert *x509.Certificate) (*Credentials, error) {
	if cert == nil {
		return nil, ErrCertificateLoad("pkcs12", fmt.Errorf("no certificate"))
	}

	var signer crypto.Signer
	switch k := key.(type) {
	case *rsa.PrivateKey:
		signer = k
	case *ecdsa.PrivateKey:
		signer = k
	default:
		return nil, ErrUnsupportedKey(fmt.Sprintf("%T", key))
	}

	now := time.Now()
	if now.Before(cert.NotBefore) {
		return nil, ErrCertNotYetValid(cert.Subject.CommonName)
	}
	if now.After(cert.NotAfter) {
		return nil, ErrCertExpired(cert.Subject.CommonName)
	}

	return &Credentials{PrivateKey: signer, Certificate: cert}, nil
}

// CertificateBase64 is the DER certificate in base64, i.e. PEM without the
// header and footer lines
func (c *Credentials) CertificateBase64() string {
	return base64.StdEncoding.EncodeToString(c.Certificate.Raw)
}
