package gib_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib/gibtest"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/signaturetest"
	xmldsig "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/xml"
)

func newClient(p *gibtest.Portal, opts ...gib.ClientOption) *gib.Client {
	return gib.NewClient(p.Config(), append([]gib.ClientOption{gib.WithLogger(logger.Nop())}, opts...)...)
}

func sendRequest() gib.SendRequest {
	return gib.SendRequest{
		InvoiceUUID:        "6f1d2c3b-4a59-4e8f-9a1b-2c3d4e5f6a7b",
		InvoiceNumber:      "EMU2026000000042",
		ETTN:               "6F1D2C3B4A594E8F9A1B2C3D4E5F6A7B",
		SignedXMLContent:   "<Invoice>signed</Invoice>",
		ReceiverIdentifier: "10000000146",
	}
}

func TestSendInvoice_Success(t *testing.T) {
	portal := gibtest.New(t)
	client := newClient(portal)

	res := client.SendInvoice(context.Background(), sendRequest())
	require.True(t, res.Success)
	assert.Equal(t, "TX-000001", res.TransactionID)
	assert.Empty(t, res.ErrorCode)

	reqs := portal.Requests(gib.OpSendInvoice)
	require.Len(t, reqs, 1)
	f := reqs[0].Fields
	assert.Equal(t, "6F1D2C3B4A594E8F9A1B2C3D4E5F6A7B", f["ETTN"])
	assert.Equal(t, "6f1d2c3b-4a59-4e8f-9a1b-2c3d4e5f6a7b", f["FATURA_UUID"])
	assert.Equal(t, "EMU2026000000042", f["BELGE_NO"])
	assert.Equal(t, "10000000146", f["ALICI_VKN"])

	content, err := base64.StdEncoding.DecodeString(f["FATURA_ICERIK"])
	require.NoError(t, err)
	assert.Equal(t, "<Invoice>signed</Invoice>", string(content))

	// Session is reused
	client.SendInvoice(context.Background(), sendRequest())
	assert.Equal(t, 1, portal.WSDLRequests())
}

func TestSendInvoice_BusinessRejection(t *testing.T) {
	portal := gibtest.New(t)
	portal.QueueSend(gibtest.Reply{Result: "1", ErrorCode: "1004", ErrorMessage: "VKN hatali"})

	res := newClient(portal).SendInvoice(context.Background(), sendRequest())
	assert.False(t, res.Success)
	assert.Equal(t, "1004", res.ErrorCode)
	assert.Equal(t, "Vergi/TC kimlik numarası geçersiz", res.ErrorMessage)
	assert.False(t, res.Retryable())
}

func TestSendInvoice_UnknownCodeKeepsPortalMessage(t *testing.T) {
	portal := gibtest.New(t)
	portal.QueueSend(gibtest.Reply{Result: "1", ErrorCode: "2042", ErrorMessage: "Alıcı kayıtlı kullanıcı değil"})

	res := newClient(portal).SendInvoice(context.Background(), sendRequest())
	assert.Equal(t, "2042", res.ErrorCode)
	assert.Equal(t, "Alıcı kayıtlı kullanıcı değil", res.ErrorMessage)
}

func TestSendInvoice_TransportFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply gibtest.Reply
		code  string
	}{
		{"soap fault", gibtest.Reply{Fault: "internal error"}, gib.ErrCodeSystem},
		{"http 502", gibtest.Reply{HTTPStatus: http.StatusBadGateway}, gib.ErrCodeSOAP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			portal := gibtest.New(t)
			portal.QueueSend(tt.reply)

			res := newClient(portal).SendInvoice(context.Background(), sendRequest())
			assert.False(t, res.Success)
			assert.Equal(t, tt.code, res.ErrorCode)
			assert.True(t, res.Retryable())
		})
	}
}

func TestSendInvoice_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := gib.NewClient(gib.Config{Username: "u", Password: "p", PortalURL: url}, gib.WithLogger(logger.Nop()))
	res := client.SendInvoice(context.Background(), sendRequest())
	assert.False(t, res.Success)
	assert.Equal(t, gib.ErrCodeSOAP, res.ErrorCode)
	assert.Equal(t, gib.ErrorMessages[gib.ErrCodeSOAP], res.ErrorMessage)
}

func TestSendInvoice_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	cfg := gib.Config{Username: "u", Password: "p", PortalURL: slow.URL, Timeout: 20 * time.Millisecond}
	res := gib.NewClient(cfg, gib.WithLogger(logger.Nop())).SendInvoice(context.Background(), sendRequest())
	assert.False(t, res.Success)
	assert.Equal(t, gib.ErrCodeSOAP, res.ErrorCode)
	assert.True(t, res.Retryable())
}

func TestInitialize_BadCredentials(t *testing.T) {
	portal := gibtest.New(t)
	cfg := portal.Config()
	cfg.Password = "wrong"
	client := gib.NewClient(cfg, gib.WithLogger(logger.Nop()))

	err := client.Initialize(context.Background())
	var portalErr *gib.PortalError
	require.ErrorAs(t, err, &portalErr)
	assert.Equal(t, gib.ErrCodeCredentials, portalErr.Code)
	assert.False(t, gib.IsRetryableError(err))

	assert.False(t, client.TestConnection(context.Background()))

	res := client.SendInvoice(context.Background(), sendRequest())
	assert.Equal(t, gib.ErrCodeCredentials, res.ErrorCode)
	assert.Equal(t, "Kullanıcı adı veya şifre hatalı", res.ErrorMessage)
}

func TestTestConnection(t *testing.T) {
	portal := gibtest.New(t)
	client := newClient(portal)

	assert.True(t, client.TestConnection(context.Background()))
	assert.True(t, client.TestConnection(context.Background()))
	assert.Equal(t, 2, portal.WSDLRequests())
}

func TestQueryInvoiceStatus(t *testing.T) {
	portal := gibtest.New(t)
	client := newClient(portal)

	tests := []struct {
		code string
		want model.GIBStatus
	}{
		{"100", model.StatusSent},
		{"110", model.StatusAccepted},
		{"120", model.StatusRejected},
		{"130", model.StatusCancelled},
		{"999", model.StatusSent},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			uuid := "uuid-" + tt.code
			portal.SetStatus(uuid, tt.code, "2026-03-16T08:30:00")

			res, err := client.QueryInvoiceStatus(context.Background(), uuid)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, uuid, res.InvoiceUUID)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, time.Date(2026, 3, 16, 8, 30, 0, 0, time.UTC), res.StatusDate)
		})
	}
}

func TestQueryInvoiceStatus_StatusDate(t *testing.T) {
	tests := []struct {
		name string
		date string
		want time.Time
	}{
		{"date and time", "2026-03-16T08:30:00", time.Date(2026, 3, 16, 8, 30, 0, 0, time.UTC)},
		{"space separated", "2026-03-16 08:30:00", time.Date(2026, 3, 16, 8, 30, 0, 0, time.UTC)},
		{"date only", "2026-03-16", time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"unparseable", "16/03/2026", time.Time{}},
		{"missing", "", time.Time{}},
	}

	portal := gibtest.New(t)
	client := newClient(portal)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uuid := "uuid-" + tt.name
			portal.SetStatus(uuid, "110", tt.date)

			res, err := client.QueryInvoiceStatus(context.Background(), uuid)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, tt.want, res.StatusDate)
			assert.Equal(t, tt.want.IsZero(), res.StatusDate.IsZero())
		})
	}
}

func TestQueryInvoiceStatus_RejectedCarriesError(t *testing.T) {
	portal := gibtest.New(t)
	portal.SetRejected("uuid-r", "2026-03-16", "1002", "Şema hatası")

	res, err := newClient(portal).QueryInvoiceStatus(context.Background(), "uuid-r")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, res.Status)
	assert.Equal(t, "1002", res.ErrorCode)
	assert.Equal(t, "Şema hatası", res.ErrorMessage)
}

func TestQueryInvoiceStatus_Unknown(t *testing.T) {
	portal := gibtest.New(t)

	res, err := newClient(portal).QueryInvoiceStatus(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestQueryInvoiceStatus_TransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := gib.NewClient(gib.Config{Username: "u", Password: "p", PortalURL: srv.URL}, gib.WithLogger(logger.Nop()))
	_, err := client.QueryInvoiceStatus(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, gib.IsRetryableError(err))
}

func TestCancelInvoice(t *testing.T) {
	portal := gibtest.New(t)
	client := newClient(portal)

	assert.True(t, client.CancelInvoice(context.Background(), "uuid-1", "Müşteri talebi"))
	reqs := portal.Requests(gib.OpCancelInvoice)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Müşteri talebi", reqs[0].Fields["IPTAL_NEDENI"])

	status, err := client.QueryInvoiceStatus(context.Background(), "uuid-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, status.Status)

	portal.SetCancelReply(gibtest.Reply{Result: "1", ErrorCode: "1003"})
	assert.False(t, client.CancelInvoice(context.Background(), "uuid-2", "x"))

	portal.SetCancelReply(gibtest.Reply{Fault: "boom"})
	assert.False(t, client.CancelInvoice(context.Background(), "uuid-3", "x"))
}

func TestGetInvoiceList(t *testing.T) {
	portal := gibtest.New(t)
	portal.AddListEntry("uuid-1", "EMU2026000000001", "110", "2026-03-01")
	portal.AddListEntry("uuid-2", "EMU2026000000002", "120", "2026-03-02")
	client := newClient(portal)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	list, err := client.GetInvoiceList(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "EMU2026000000001", list[0].InvoiceNumber)
	assert.Equal(t, model.StatusAccepted, list[0].Status)
	assert.Equal(t, model.StatusRejected, list[1].Status)

	req := portal.Requests(gib.OpGetInvoiceList)[0]
	assert.Equal(t, "2026-03-01", req.Fields["BASLANGIC_TARIHI"])
	assert.Equal(t, "2026-03-31", req.Fields["BITIS_TARIHI"])

	_, err = client.GetInvoiceList(context.Background(), end, start)
	assert.Error(t, err)
}

func TestClient_SerializesConcurrentCalls(t *testing.T) {
	portal := gibtest.New(t)
	client := newClient(portal)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, client.SendInvoice(context.Background(), sendRequest()).Success)
		}()
	}
	wg.Wait()

	assert.Len(t, portal.Requests(gib.OpSendInvoice), 8)
	assert.Equal(t, 1, portal.WSDLRequests())
}

func TestSignXMLContent(t *testing.T) {
	client := gib.NewClient(gib.Config{}, gib.WithLogger(logger.Nop()))
	_, err := client.SignXMLContent("<Invoice/>")
	assert.ErrorIs(t, err, gib.ErrNoCertificate)

	id := signaturetest.NewSelfSigned(t, "Beyaz Çamaşırhane", "1234567890")
	signer, err := xmldsig.NewXMLSigner(id.Credentials())
	require.NoError(t, err)

	client = gib.NewClient(gib.Config{}, gib.WithLogger(logger.Nop()), gib.WithSigner(signer))
	signed, err := client.SignXMLContent(`<?xml version="1.0" encoding="UTF-8"?><Invoice><ID>1</ID></Invoice>`)
	require.NoError(t, err)
	assert.Contains(t, signed, "SignatureValue")
	assert.Contains(t, signed, id.Credentials().CertificateBase64()[:40])
}

func TestSignXMLContent_MissingFile(t *testing.T) {
	client := gib.NewClient(gib.Config{CertificatePath: "/nonexistent/cert.p12", CertificatePassword: "x"}, gib.WithLogger(logger.Nop()))
	_, err := client.SignXMLContent("<Invoice/>")
	assert.Error(t, err)
}

func TestValidateTaxIdentifier(t *testing.T) {
	assert.True(t, gib.ValidateTaxIdentifier("1234567890").IsValid)
	assert.True(t, gib.ValidateTaxIdentifier("100 000 001 46").IsValid)
	assert.False(t, gib.ValidateTaxIdentifier("123").IsValid)
}
