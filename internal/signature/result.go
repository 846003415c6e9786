package signature

import (
	"crypto/x509"
	"time"
)

// VerificationResult contains the complete signature verification outcome
type VerificationResult struct {
	// Valid is true only if all checks pass
	Valid bool `json:"valid"`

	SignatureFound bool `json:"signatureFound"`
	SignatureValid bool `json:"signatureValid"`
	CertChainValid bool `json:"certChainValid"`
	NotRevoked     bool `json:"notRevoked"`

	Signer *SignerInfo `json:"signer,omitempty"`

	// SignedAt is the XAdES signing time when the signature carries one
	SignedAt *time.Time `json:"signedAt,omitempty"`

	// Document identity, filled in when the signed document is a UBL invoice
	Document *DocumentInfo `json:"document,omitempty"`

	CertChain []*x509.Certificate `json:"-"`

	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`

	Format string `json:"format,omitempty"`
}

// SignerInfo contains certificate subject information
type SignerInfo struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`

	// TaxID is the VKN or TCKN carried in the subject serialNumber
	// attribute of Turkish e-seal and e-signature certificates
	TaxID string `json:"taxId,omitempty"`

	SerialNumber string    `json:"serialNumber"`
	Issuer       string    `json:"issuer"`
	ValidFrom    time.Time `json:"validFrom"`
	ValidTo      time.Time `json:"validTo"`
}

// DocumentInfo identifies the invoice that was signed
type DocumentInfo struct {
	InvoiceNumber string `json:"invoiceNumber"`
	UUID          string `json:"uuid"`
	ETTN          string `json:"ettn,omitempty"`
	SupplierVKN   string `json:"supplierVkn,omitempty"`
}

// NewVerificationResult creates a new empty result
func NewVerificationResult() *VerificationResult {
	return &VerificationResult{
		Warnings: make([]string, 0),
		Errors:   make([]string, 0),
	}
}

// AddWarning adds a warning message to the result
func (r *VerificationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError adds an error message and sets Valid to false
func (r *VerificationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

// SetSigner populates SignerInfo from an x509 certificate
func (r *VerificationResult) SetSigner(cert *x509.Certificate) {
	if cert == nil {
		return
	}
	r.Signer = NewSignerInfo(cert)
}

// NewSignerInfo extracts the subject details of cert
func NewSignerInfo(cert *x509.Certificate) *SignerInfo {
	signer := &SignerInfo{
		Name:         cert.Subject.CommonName,
		TaxID:        cert.Subject.SerialNumber,
		SerialNumber: cert.SerialNumber.String(),
		ValidFrom:    cert.NotBefore,
		ValidTo:      cert.NotAfter,
	}

	if len(cert.Subject.Organization) > 0 {
		signer.Organization = cert.Subject.Organization[0]
	}

	if cert.Issuer.CommonName != "" {
		signer.Issuer = cert.Issuer.CommonName
	} else if len(cert.Issuer.Organization) > 0 {
		signer.Issuer = cert.Issuer.Organization[0]
	}

	return signer
}

// ComputeValidity sets the Valid field based on individual check results
func (r *VerificationResult) ComputeValidity() {
	r.Valid = r.SignatureFound &&
		r.SignatureValid &&
		r.CertChainValid &&
		r.NotRevoked &&
		len(r.Errors) == 0
}
