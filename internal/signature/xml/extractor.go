package xml

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// XML namespaces
const (
	XMLDSigNamespace = "http://www.w3.org/2000/09/xmldsig#"
	UBLExtNamespace  = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
)

// Document types recognised from the root element
const (
	DocumentInvoice             = "Invoice"
	DocumentApplicationResponse = "ApplicationResponse"
	DocumentDespatchAdvice      = "DespatchAdvice"
	DocumentUnknown             = "Unknown"
)

// SignatureExtractor locates the XML-DSig signature of a UBL-TR document
type SignatureExtractor struct{}

// NewSignatureExtractor creates a new signature extractor
func NewSignatureExtractor() *SignatureExtractor {
	return &SignatureExtractor{}
}

// ExtractionResult contains the extracted signature and related elements
type ExtractionResult struct {
	// SignatureElement is the <ds:Signature> element
	SignatureElement *etree.Element
	// SignedElement is the document root, which an enveloped signature covers
	SignedElement *etree.Element
	Document      *etree.Document
	DocumentType  string
}

// Extract parses data and finds its signature
func (e *SignatureExtractor) Extract(data []byte) (*ExtractionResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty XML document")
	}

	sig := findSignatureElement(root)
	if sig == nil {
		return nil, fmt.Errorf("no Signature element found in document")
	}

	return &ExtractionResult{
		SignatureElement: sig,
		SignedElement:    root,
		Document:         doc,
		DocumentType:     detectDocumentType(root),
	}, nil
}

// findSignatureElement looks where signers put the signature: directly under
// the root, or inside the UBL extension content
func findSignatureElement(root *etree.Element) *etree.Element {
	searchPaths := []string{
		"Signature",
		"UBLExtensions/UBLExtension/ExtensionContent/Signature",
	}

	for _, path := range searchPaths {
		if elem := root.FindElement(path); elem != nil && isDSig(elem) {
			return elem
		}
	}

	return findElementRecursive(root, "Signature")
}

func findElementRecursive(elem *etree.Element, localName string) *etree.Element {
	if elem.Tag == localName && isDSig(elem) {
		return elem
	}
	for _, child := range elem.ChildElements() {
		if found := findElementRecursive(child, localName); found != nil {
			return found
		}
	}
	return nil
}

// isDSig accepts the XML-DSig namespace, or no namespace at all for
// documents that omit the declaration
func isDSig(elem *etree.Element) bool {
	ns := elem.NamespaceURI()
	return ns == "" || ns == XMLDSigNamespace
}

func detectDocumentType(root *etree.Element) string {
	switch root.Tag {
	case DocumentInvoice, DocumentApplicationResponse, DocumentDespatchAdvice:
		return root.Tag
	default:
		return DocumentUnknown
	}
}

// ExtractCertificateData returns the base64 text of the first
// KeyInfo/X509Data/X509Certificate in sig
func ExtractCertificateData(sig *etree.Element) ([]byte, error) {
	if certElem := sig.FindElement("KeyInfo/X509Data/X509Certificate"); certElem != nil {
		if text := strings.TrimSpace(certElem.Text()); text != "" {
			return []byte(text), nil
		}
	}
	return nil, fmt.Errorf("no X509Certificate found in Signature")
}

// ExtractCertificate decodes the signing certificate embedded in sig
func ExtractCertificate(sig *etree.Element) (*x509.Certificate, error) {
	certData, err := ExtractCertificateData(sig)
	if err != nil {
		return nil, err
	}

	// Some signers wrap the base64 at 64 or 76 columns
	cleaned := strings.Join(strings.Fields(string(certData)), "")
	der, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to decode certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}

// CanExtract returns true if the data appears to be XML with a signature
func (e *SignatureExtractor) CanExtract(data []byte) bool {
	if !looksLikeXML(data) {
		return false
	}
	return bytes.Contains(data, []byte("<Signature")) ||
		bytes.Contains(data, []byte(":Signature"))
}

func looksLikeXML(data []byte) bool {
	if len(data) < 5 {
		return false
	}
	trimmed := bytes.TrimSpace(data)
	return bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<"))
}
