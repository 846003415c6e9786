package ubl

import "encoding/xml"

// Invoice is the root element of a UBL-TR invoice. Field order follows the
// UBL 2.1 schema sequence and must not be changed.
type Invoice struct {
	XMLName        xml.Name
	UBLNamespace   string `xml:"xmlns,attr"`
	CACNamespace   string `xml:"xmlns:cac,attr"`
	CBCNamespace   string `xml:"xmlns:cbc,attr"`
	UDTNamespace   string `xml:"xmlns:udt,attr"`
	XSINamespace   string `xml:"xmlns:xsi,attr"`
	SchemaLocation string `xml:"xsi:schemaLocation,attr"`

	UBLVersionID                string              `xml:"cbc:UBLVersionID"`
	CustomizationID             string              `xml:"cbc:CustomizationID"`
	ProfileID                   string              `xml:"cbc:ProfileID"`
	ID                          string              `xml:"cbc:ID"`
	CopyIndicator               string              `xml:"cbc:CopyIndicator"`
	UUID                        string              `xml:"cbc:UUID"`
	IssueDate                   string              `xml:"cbc:IssueDate"`
	IssueTime                   string              `xml:"cbc:IssueTime"`
	InvoiceTypeCode             string              `xml:"cbc:InvoiceTypeCode"`
	Note                        []string            `xml:"cbc:Note,omitempty"`
	DocumentCurrencyCode        string              `xml:"cbc:DocumentCurrencyCode"`
	LineCountNumeric            int                 `xml:"cbc:LineCountNumeric"`
	AdditionalDocumentReference []DocumentReference `xml:"cac:AdditionalDocumentReference,omitempty"`
	AccountingSupplierParty     SupplierParty       `xml:"cac:AccountingSupplierParty"`
	AccountingCustomerParty     CustomerParty       `xml:"cac:AccountingCustomerParty"`
	TaxTotal                    []TaxTotal          `xml:"cac:TaxTotal"`
	LegalMonetaryTotal          MonetaryTotal       `xml:"cac:LegalMonetaryTotal"`
	InvoiceLines                []InvoiceLine       `xml:"cac:InvoiceLine"`
}

// DocumentReference carries the ETTN of the document
type DocumentReference struct {
	ID           string `xml:"cbc:ID"`
	IssueDate    string `xml:"cbc:IssueDate,omitempty"`
	DocumentType string `xml:"cbc:DocumentType,omitempty"`
}

// ETTN returns the ETTN carried in the additional document references
func (inv *Invoice) ETTN() string {
	for _, ref := range inv.AdditionalDocumentReference {
		if ref.DocumentType == DocumentTypeETTN {
			return ref.ID
		}
	}
	return ""
}

// Amount is a monetary amount with its currency
type Amount struct {
	CurrencyID string `xml:"currencyID,attr"`
	Value      string `xml:",chardata"`
}

// Quantity is a quantity with a UN/ECE unit code
type Quantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

// IDType is an identifier with an optional scheme
type IDType struct {
	SchemeID string `xml:"schemeID,attr,omitempty"`
	Value    string `xml:",chardata"`
}
