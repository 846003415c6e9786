package xml

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature"
)

// XMLSigner adds an enveloped XML-DSig signature to UBL documents. The
// signature covers the whole document (Reference URI "") and is appended
// as the last child of the root element.
type XMLSigner struct {
	creds *signature.Credentials
}

var _ signature.Signer = (*XMLSigner)(nil)

// NewXMLSigner creates a signer for the given credentials
func NewXMLSigner(creds *signature.Credentials) (*XMLSigner, error) {
	if creds == nil || creds.PrivateKey == nil || creds.Certificate == nil {
		return nil, signature.ErrCertificateLoad("credentials", fmt.Errorf("missing key or certificate"))
	}
	return &XMLSigner{creds: creds}, nil
}

// NewXMLSignerFromFile loads a PKCS#12 bundle and creates a signer for it
func NewXMLSignerFromFile(path, password string) (*XMLSigner, error) {
	creds, err := signature.LoadPKCS12File(path, password)
	if err != nil {
		return nil, err
	}
	return NewXMLSigner(creds)
}

// Credentials returns the signing credentials
func (s *XMLSigner) Credentials() *signature.Credentials {
	return s.creds
}

// Sign returns a signed copy of data. The XML declaration and any
// content outside the root are kept as they were.
func (s *XMLSigner) Sign(data []byte) ([]byte, error) {
	if !looksLikeXML(data) {
		return nil, signature.ErrUnsupportedFormat("non-XML document")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, signature.ErrSigningFailed(err)
	}
	root := doc.Root()
	if root == nil {
		return nil, signature.ErrSigningFailed(fmt.Errorf("empty XML document"))
	}
	if findSignatureElement(root) != nil {
		return nil, signature.ErrSigningFailed(fmt.Errorf("document is already signed"))
	}

	ctx, err := s.signingContext()
	if err != nil {
		return nil, err
	}

	signed, err := ctx.SignEnveloped(root)
	if err != nil {
		return nil, signature.ErrSigningFailed(err)
	}
	doc.SetRoot(signed)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, signature.ErrSigningFailed(err)
	}
	return out, nil
}

func (s *XMLSigner) signingContext() (*dsig.SigningContext, error) {
	ctx, err := dsig.NewSigningContext(s.creds.PrivateKey, [][]byte{s.creds.Certificate.Raw})
	if err != nil {
		return nil, signature.ErrSigningFailed(err)
	}
	ctx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")

	var method string
	switch s.creds.PrivateKey.(type) {
	case *rsa.PrivateKey:
		method = dsig.RSASHA256SignatureMethod
	case *ecdsa.PrivateKey:
		method = dsig.ECDSASHA256SignatureMethod
	default:
		return nil, signature.ErrUnsupportedKey(fmt.Sprintf("%T", s.creds.PrivateKey))
	}
	if err := ctx.SetSignatureMethod(method); err != nil {
		return nil, signature.ErrSigningFailed(err)
	}
	return ctx, nil
}
