package gib

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	soapPrefix     = "soapenv"
	tnsPrefix      = "tns"
)

// Portal operations
const (
	OpSendInvoice      = "sendInvoice"
	OpGetInvoiceStatus = "getInvoiceStatus"
	OpCancelInvoice    = "cancelInvoice"
	OpGetInvoiceList   = "getInvoiceList"
)

var requiredOperations = []string{OpSendInvoice, OpGetInvoiceStatus, OpCancelInvoice, OpGetInvoiceList}

// Portal message field names
const (
	fieldETTN         = "ETTN"
	fieldUUID         = "FATURA_UUID"
	fieldNumber       = "BELGE_NO"
	fieldReceiver     = "ALICI_VKN"
	fieldContent      = "FATURA_ICERIK"
	fieldResult       = "SONUC"
	fieldTransaction  = "ISLEM_ID"
	fieldErrorCode    = "HATA_KODU"
	fieldErrorMessage = "HATA_ACIKLAMA"
	fieldStatusCode   = "DURUM_KODU"
	fieldStatusDate   = "DURUM_TARIHI"
	fieldReason       = "IPTAL_NEDENI"
	fieldStartDate    = "BASLANGIC_TARIHI"
	fieldEndDate      = "BITIS_TARIHI"
	fieldInvoice      = "FATURA"
	fieldAmount       = "TUTAR"
)

// session is what a parsed WSDL tells us about the service
type session struct {
	endpoint        string
	targetNamespace string
	operations      map[string]bool
}

func parseWSDL(data []byte) (*session, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse WSDL: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "definitions" {
		return nil, fmt.Errorf("parse WSDL: root is not wsdl:definitions")
	}

	s := &session{
		targetNamespace: root.SelectAttrValue("targetNamespace", ""),
		operations:      make(map[string]bool),
	}
	if addr := root.FindElement("./service/port/address"); addr != nil {
		s.endpoint = addr.SelectAttrValue("location", "")
	}
	for _, op := range root.FindElements("./portType/operation") {
		s.operations[op.SelectAttrValue("name", "")] = true
	}

	var missing []string
	for _, op := range requiredOperations {
		if !s.operations[op] {
			missing = append(missing, op)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("parse WSDL: missing operations %s", strings.Join(missing, ", "))
	}
	return s, nil
}

type field struct {
	name  string
	value string
}

func buildEnvelope(targetNamespace, operation string, fields ...field) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement(soapPrefix + ":Envelope")
	env.CreateAttr("xmlns:"+soapPrefix, soapEnvelopeNS)
	if targetNamespace != "" {
		env.CreateAttr("xmlns:"+tnsPrefix, targetNamespace)
	}
	env.CreateElement(soapPrefix + ":Header")
	body := env.CreateElement(soapPrefix + ":Body")

	req := body.CreateElement(tnsPrefix + ":" + operation)
	for _, f := range fields {
		req.CreateElement(f.name).SetText(f.value)
	}
	return doc.WriteToBytes()
}

// parseResponse returns the <operationResponse> element of a SOAP reply.
// A SOAP fault becomes a SYSTEM_ERROR portal error.
func parseResponse(data []byte, operation string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, transportError(operation, fmt.Errorf("parse response: %w", err))
	}

	body := doc.FindElement("./Envelope/Body")
	if body == nil {
		return nil, transportError(operation, fmt.Errorf("response has no SOAP body"))
	}

	if fault := body.FindElement("./Fault"); fault != nil {
		msg := childText(fault, "faultstring")
		if msg == "" {
			msg = ErrorMessages[ErrCodeSystem]
		}
		return nil, NewPortalError(ErrCodeSystem, operation, msg, nil)
	}

	resp := body.FindElement("./" + operation + "Response")
	if resp == nil {
		return nil, transportError(operation, fmt.Errorf("response has no %sResponse element", operation))
	}
	return resp, nil
}

func childText(el *etree.Element, name string) string {
	if c := el.FindElement("./" + name); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
