// Package gibtest runs an in-process fake of the GIB e-Fatura SOAP portal
package gibtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
)

const (
	Username        = "test-user"
	Password        = "test-pass"
	servicePath     = "/EFaturaService"
	targetNamespace = "http://efatura.gib.gov.tr/ws"
)

// Reply scripts the answer to one call
type Reply struct {
	Result        string // SONUC, "0" for success
	TransactionID string
	ErrorCode     string
	ErrorMessage  string
	Fault         string // non-empty answers with a SOAP fault
	HTTPStatus    int    // non-zero answers with a bare HTTP error
}

// Request is a call the portal received
type Request struct {
	Operation string
	Fields    map[string]string
}

type status struct {
	code, date, errorCode, errorMessage string
}

// Portal is a scripted fake portal
type Portal struct {
	Server *httptest.Server

	mu           sync.Mutex
	sendReplies  []Reply
	cancelReply  *Reply
	statuses     map[string]status
	list         []map[string]string
	requests     []Request
	wsdlRequests int
	txSeq        int
}

// New starts a fake portal that is shut down when the test ends
func New(t testing.TB) *Portal {
	t.Helper()
	p := &Portal{statuses: make(map[string]status)}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

// Config returns client settings pointing at the fake
func (p *Portal) Config() gib.Config {
	return gib.Config{
		Username:  Username,
		Password:  Password,
		TestMode:  true,
		PortalURL: p.Server.URL + servicePath,
	}
}

// QueueSend scripts the next sendInvoice answers in order. Once the queue
// is empty every submission succeeds.
func (p *Portal) QueueSend(replies ...Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendReplies = append(p.sendReplies, replies...)
}

// SetCancelReply scripts every cancelInvoice answer
func (p *Portal) SetCancelReply(r Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelReply = &r
}

// SetStatus sets what getInvoiceStatus reports for uuid
func (p *Portal) SetStatus(uuid, code, date string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[uuid] = status{code: code, date: date}
}

// SetRejected reports uuid as rejected with an error
func (p *Portal) SetRejected(uuid, date, errorCode, errorMessage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[uuid] = status{code: "120", date: date, errorCode: errorCode, errorMessage: errorMessage}
}

// AddListEntry adds an invoice to getInvoiceList answers
func (p *Portal) AddListEntry(uuid, number, statusCode, date string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = append(p.list, map[string]string{
		"FATURA_UUID":  uuid,
		"BELGE_NO":     number,
		"DURUM_KODU":   statusCode,
		"DURUM_TARIHI": date,
	})
}

// Requests returns the received calls of one operation, or all calls when op is empty
func (p *Portal) Requests(op string) []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Request
	for _, r := range p.requests {
		if op == "" || r.Operation == op {
			out = append(out, r)
		}
	}
	return out
}

// WSDLRequests counts session initializations
func (p *Portal) WSDLRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wsdlRequests
}

func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != Username || pass != Password {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Method == http.MethodGet {
		if _, isWSDL := r.URL.Query()["wsdl"]; isWSDL {
			p.mu.Lock()
			p.wsdlRequests++
			p.mu.Unlock()
			w.Header().Set("Content-Type", "text/xml")
			_, _ = io.WriteString(w, wsdl(p.Server.URL+servicePath))
			return
		}
		http.NotFound(w, r)
		return
	}

	body, _ := io.ReadAll(r.Body)
	req, err := parseRequest(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.requests = append(p.requests, req)
	reply, fields := p.answer(req)
	p.mu.Unlock()

	switch {
	case reply.HTTPStatus != 0:
		http.Error(w, "scripted failure", reply.HTTPStatus)
		return
	case reply.Fault != "":
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, fault(reply.Fault))
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, _ = w.Write(response(req.Operation, fields))
}

// answer decides the reply for req. The caller holds p.mu.
func (p *Portal) answer(req Request) (Reply, *etree.Element) {
	out := etree.NewElement("fields")
	add := func(name, value string) {
		if value != "" {
			out.CreateElement(name).SetText(value)
		}
	}
	uuid := req.Fields["FATURA_UUID"]

	switch req.Operation {
	case gib.OpSendInvoice:
		reply := Reply{Result: gib.ResultSuccess}
		if len(p.sendReplies) > 0 {
			reply, p.sendReplies = p.sendReplies[0], p.sendReplies[1:]
		}
		if reply.Result == gib.ResultSuccess && reply.Fault == "" && reply.HTTPStatus == 0 {
			p.txSeq++
			if reply.TransactionID == "" {
				reply.TransactionID = fmt.Sprintf("TX-%06d", p.txSeq)
			}
			p.statuses[uuid] = status{code: "100", date: "2026-01-01T10:00:00"}
		}
		add("SONUC", reply.Result)
		add("ISLEM_ID", reply.TransactionID)
		add("HATA_KODU", reply.ErrorCode)
		add("HATA_ACIKLAMA", reply.ErrorMessage)
		return reply, out

	case gib.OpGetInvoiceStatus:
		if st, ok := p.statuses[uuid]; ok {
			add("FATURA_UUID", uuid)
			add("DURUM_KODU", st.code)
			add("DURUM_TARIHI", st.date)
			add("HATA_KODU", st.errorCode)
			add("HATA_ACIKLAMA", st.errorMessage)
		}
		return Reply{}, out

	case gib.OpCancelInvoice:
		reply := Reply{Result: gib.ResultSuccess}
		if p.cancelReply != nil {
			reply = *p.cancelReply
		}
		if reply.Result == gib.ResultSuccess {
			st := p.statuses[uuid]
			st.code = "130"
			p.statuses[uuid] = st
		}
		add("SONUC", reply.Result)
		add("HATA_KODU", reply.ErrorCode)
		return reply, out

	case gib.OpGetInvoiceList:
		add("SONUC", gib.ResultSuccess)
		for _, entry := range p.list {
			inv := out.CreateElement("FATURA")
			for _, k := range []string{"FATURA_UUID", "BELGE_NO", "DURUM_KODU", "DURUM_TARIHI"} {
				inv.CreateElement(k).SetText(entry[k])
			}
		}
		return Reply{}, out
	}

	return Reply{Fault: "unknown operation " + req.Operation}, out
}

func parseRequest(body []byte) (Request, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return Request{}, err
	}
	bodyEl := doc.FindElement("./Envelope/Body")
	if bodyEl == nil || len(bodyEl.ChildElements()) == 0 {
		return Request{}, fmt.Errorf("no SOAP body")
	}
	op := bodyEl.ChildElements()[0]
	req := Request{Operation: op.Tag, Fields: make(map[string]string)}
	for _, f := range op.ChildElements() {
		req.Fields[f.Tag] = strings.TrimSpace(f.Text())
	}
	return req, nil
}

func response(operation string, fields *etree.Element) []byte {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := doc.CreateElement("S:Envelope")
	env.CreateAttr("xmlns:S", "http://schemas.xmlsoap.org/soap/envelope/")
	body := env.CreateElement("S:Body")
	resp := body.CreateElement("ns2:" + operation + "Response")
	resp.CreateAttr("xmlns:ns2", targetNamespace)
	for _, f := range fields.ChildElements() {
		resp.AddChild(f.Copy())
	}
	out, _ := doc.WriteToBytes()
	return out
}

func fault(msg string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body>` +
		`<S:Fault><faultcode>S:Server</faultcode><faultstring>` + msg + `</faultstring></S:Fault>` +
		`</S:Body></S:Envelope>`
}

func wsdl(location string) string {
	var ops strings.Builder
	for _, op := range []string{gib.OpSendInvoice, gib.OpGetInvoiceStatus, gib.OpCancelInvoice, gib.OpGetInvoiceList} {
		fmt.Fprintf(&ops, `<wsdl:operation name="%s"/>`, op)
	}
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<wsdl:definitions xmlns:wsdl="http://schemas.xmlsoap.org/wsdl/" xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/" targetNamespace="` + targetNamespace + `">` +
		`<wsdl:portType name="EFaturaPortType">` + ops.String() + `</wsdl:portType>` +
		`<wsdl:service name="EFaturaService"><wsdl:port name="EFaturaPort" binding="tns:EFaturaBinding">` +
		`<soap:address location="` + location + `"/>` +
		`</wsdl:port></wsdl:service>` +
		`</wsdl:definitions>`
}
