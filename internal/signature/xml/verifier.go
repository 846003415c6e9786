package xml

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/trust"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/ubl"
)

// XMLVerifier verifies enveloped XML-DSig signatures on UBL-TR documents
type XMLVerifier struct {
	trustStore *trust.TrustStore
	extractor  *SignatureExtractor
}

var _ signature.Verifier = (*XMLVerifier)(nil)

// NewXMLVerifier creates a verifier. A nil trust store trusts nothing, so
// every chain check fails while the signature itself is still checked.
func NewXMLVerifier(ts *trust.TrustStore) *XMLVerifier {
	if ts == nil {
		ts = trust.NewEmptyTrustStore()
	}
	return &XMLVerifier{
		trustStore: ts,
		extractor:  NewSignatureExtractor(),
	}
}

// Verify checks the signature value, the signer's chain against the trust
// store and its revocation status
func (v *XMLVerifier) Verify(ctx context.Context, data []byte) (*signature.VerificationResult, error) {
	result := signature.NewVerificationResult()
	result.Format = signature.FormatXML

	if !v.CanVerify(data) {
		result.AddError("document is not XML")
		return result, signature.ErrUnsupportedFormat("non-XML document")
	}

	extraction, err := v.extractor.Extract(data)
	if err != nil {
		result.AddError(err.Error())
		return result, signature.ErrNoSignature()
	}
	result.SignatureFound = true
	result.Document = documentInfo(data)

	cert, err := ExtractCertificate(extraction.SignatureElement)
	if err != nil {
		result.AddError(fmt.Sprintf("signing certificate: %v", err))
		result.ComputeValidity()
		return result, nil
	}
	result.SetSigner(cert)

	// goxmldsig only accepts KeyInfo certificates that are in its store, so
	// it gets the leaf and the chain is checked separately below
	validationCtx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	if _, err := validationCtx.Validate(extraction.SignedElement); err != nil {
		result.AddError(fmt.Sprintf("signature validation failed: %v", err))
	} else {
		result.SignatureValid = true
	}

	chain, err := v.trustStore.VerifyChain(cert, nil)
	if err != nil {
		result.AddError(signature.ErrChainInvalid(err).Error())
	} else {
		result.CertChain = chain
		result.CertChainValid = true
		v.checkRevocation(ctx, result, cert, chain)
	}

	if signedAt := extractSigningTime(extraction.SignatureElement); signedAt != nil {
		result.SignedAt = signedAt
	}

	result.ComputeValidity()
	return result, nil
}

func (v *XMLVerifier) checkRevocation(ctx context.Context, result *signature.VerificationResult, cert *x509.Certificate, chain []*x509.Certificate) {
	if len(chain) < 2 {
		result.NotRevoked = true
		result.AddWarning("revocation check skipped: no issuer certificate in chain")
		return
	}

	notRevoked, err := v.trustStore.CheckRevocation(ctx, cert, chain[1])
	switch {
	case err != nil && v.trustStore.IsSoftFail():
		result.AddWarning(fmt.Sprintf("OCSP check: %v", err))
		result.NotRevoked = true
	case err != nil:
		result.AddError(signature.ErrOCSPUnavailable(err).Error())
	case !notRevoked:
		result.AddError(signature.ErrCertRevoked(cert.Subject.CommonName).Error())
	default:
		result.NotRevoked = true
	}
}

// CanVerify returns true if the data appears to be XML
func (v *XMLVerifier) CanVerify(data []byte) bool {
	return looksLikeXML(data)
}

// Format returns the format this verifier handles
func (v *XMLVerifier) Format() string {
	return signature.FormatXML
}

func documentInfo(data []byte) *signature.DocumentInfo {
	inv, err := ubl.Parse(data)
	if err != nil {
		return nil
	}
	vkn, _ := inv.AccountingSupplierParty.Party.TaxID()
	return &signature.DocumentInfo{
		InvoiceNumber: inv.ID,
		UUID:          inv.UUID,
		ETTN:          inv.ETTN(),
		SupplierVKN:   vkn,
	}
}

// extractSigningTime reads the XAdES SigningTime when present
func extractSigningTime(sigElem *etree.Element) *time.Time {
	paths := []string{
		"Object/QualifyingProperties/SignedProperties/SignedSignatureProperties/SigningTime",
		"Object/SignatureProperties/SignatureProperty/SigningTime",
	}

	for _, path := range paths {
		elem := sigElem.FindElement(path)
		if elem == nil {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, elem.Text()); err == nil {
				return &t
			}
		}
	}
	return nil
}
