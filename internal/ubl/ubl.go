// Package ubl renders invoice data as UBL-TR 2.1 documents accepted by the
// GIB e-Fatura portal, and parses them back.
package ubl

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/invopop/xmlctx"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

// UBL schema constants
const (
	NamespaceUBLInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NamespaceCBC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NamespaceCAC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NamespaceUDT        = "urn:oasis:names:specification:ubl:schema:xsd:UnqualifiedDataTypes-2"
	NamespaceXSI        = "http://www.w3.org/2001/XMLSchema-instance"

	SchemaLocationInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2 UBL-Invoice-2.1.xsd"
)

// UBL-TR header constants
const (
	Version         = "2.1"
	CustomizationID = "TR1.2"
	ProfileID       = "TICARIFATURA"

	// DefaultNote is written as the first note of every document
	DefaultNote = "Bu fatura elektronik ortamda oluşturulmuştur."
)

// Tax scheme constants. 0015 is the GIB code for KDV.
const (
	TaxTypeCodeKDV       = "0015"
	TaxSchemeKDV         = "KDV"
	TaxSchemeIncomeTax   = "Gelir Vergisi"
	CountryNameTurkey    = "Türkiye"
	DocumentTypeETTN     = "ETTN"
	invoiceTypeCodeSatis = "SATIS"
)

var (
	// ErrInvalidInvoiceData is returned when the input cannot produce a valid document
	ErrInvalidInvoiceData = errors.New("ubl: invalid invoice data")

	// ErrUnknownDocumentType is returned when parsing something that is not a UBL invoice
	ErrUnknownDocumentType = errors.New("ubl: unknown document type")
)

// Parse reads a UBL invoice, signed or not, back into its struct model
func Parse(data []byte) (*Invoice, error) {
	ns, err := extractRootNamespace(data)
	if err != nil {
		return nil, err
	}
	if ns != NamespaceUBLInvoice {
		return nil, ErrUnknownDocumentType
	}

	in := new(Invoice)
	if err := xmlctx.Unmarshal(data, in, xmlctx.WithNamespaces(map[string]string{
		"":    ns,
		"cbc": NamespaceCBC,
		"cac": NamespaceCAC,
		"udt": NamespaceUDT,
		"xsi": NamespaceXSI,
	})); err != nil {
		return nil, fmt.Errorf("ubl: parse: %w", err)
	}
	return in, nil
}

func extractRootNamespace(data []byte) (string, error) {
	dc := xml.NewDecoder(bytes.NewReader(data))
	for {
		tk, err := dc.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("ubl: error parsing XML: %w", err)
		}
		if t, ok := tk.(xml.StartElement); ok {
			return t.Name.Space, nil
		}
	}
	return "", ErrUnknownDocumentType
}

// Bytes returns the raw XML of the document including the XML header
func Bytes(in *Invoice) ([]byte, error) {
	b, err := xml.MarshalIndent(in, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), b...), nil
}

// ValidateVKN is tax.ValidateVKN, exposed next to the builder
func ValidateVKN(vkn string) bool { return tax.ValidateVKN(vkn) }

// ValidateTCKN is tax.ValidateTCKN, exposed next to the builder
func ValidateTCKN(tckn string) bool { return tax.ValidateTCKN(tckn) }

// ValidateTaxIdentifier dispatches on length and validates a VKN or TCKN
func ValidateTaxIdentifier(identifier string) tax.TaxNumberResult {
	return tax.ValidateTurkishTaxNumber(identifier)
}
