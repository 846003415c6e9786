package gib

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrCodeSystem))
	assert.True(t, IsRetryable(ErrCodeSOAP))
	for _, code := range []string{ErrCodeCredentials, ErrCodeFormat, ErrCodeDuplicate, ErrCodeInvalidTaxNumber, ErrCodeCertificate, "", "9999"} {
		assert.False(t, IsRetryable(code), code)
	}

	wrapped := fmt.Errorf("send: %w", NewPortalError(ErrCodeSOAP, OpSendInvoice, "x", errors.New("timeout")))
	assert.True(t, IsRetryableError(wrapped))
	assert.False(t, IsRetryableError(errors.New("plain")))
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "Vergi/TC kimlik numarası geçersiz", MessageFor("1004", "ignored"))
	assert.Equal(t, "portal text", MessageFor("7777", "portal text"))
	assert.Equal(t, ErrorMessages[ErrCodeSystem], MessageFor("7777", ""))
}

func TestConfig_URLs(t *testing.T) {
	assert.Equal(t, TestPortalURL+"?wsdl", Config{TestMode: true}.WSDLURL())
	assert.Equal(t, ProductionPortalURL, Config{}.ServiceURL())
	assert.Equal(t, "http://local/ws", Config{TestMode: true, PortalURL: "http://local/ws"}.ServiceURL())

	assert.Error(t, Config{Username: "u"}.Validate())
	assert.NoError(t, Config{Username: "u", Password: "p"}.Validate())
}

func TestConfig_Merge(t *testing.T) {
	base := Config{Username: "global", Password: "gp", TestMode: true, Timeout: DefaultTimeout}

	merged := base.Merge(Config{CertificatePath: "/certs/a.p12", CertificatePassword: "cp"})
	assert.Equal(t, "global", merged.Username)
	assert.Equal(t, "/certs/a.p12", merged.CertificatePath)

	merged = base.Merge(Config{Username: "biz", Password: "bp", TestMode: false})
	assert.Equal(t, "biz", merged.Username)
	assert.Equal(t, "bp", merged.Password)
	assert.False(t, merged.TestMode)
	assert.Equal(t, DefaultTimeout, merged.Timeout)

	assert.Equal(t, 5*time.Second, base.Merge(Config{Timeout: 5 * time.Second}).Timeout)
}

func TestConfig_MergeTestMode(t *testing.T) {
	tests := []struct {
		name     string
		base     bool
		override Config
		want     bool
	}{
		{"inherits test mode", true, Config{}, true},
		{"inherits production", false, Config{}, false},
		{"enabled without credentials", false, Config{TestMode: true}, true},
		{"enabled with certificate only", false, Config{TestMode: true, CertificatePath: "/certs/a.p12"}, true},
		{"enabled with credentials", false, Config{Username: "biz", Password: "bp", TestMode: true}, true},
		{"disabled with credentials", true, Config{Username: "biz", Password: "bp"}, false},
		{"cannot disable without credentials", true, Config{PortalURL: "https://portal.example"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := Config{Username: "global", Password: "gp", TestMode: tt.base}
			merged := base.Merge(tt.override)
			assert.Equal(t, tt.want, merged.TestMode)
		})
	}

	merged := Config{Username: "global", Password: "gp"}.Merge(Config{TestMode: true})
	assert.Equal(t, TestPortalURL, merged.ServiceURL())
	assert.Equal(t, "global", merged.Username)
}

func TestParseWSDL(t *testing.T) {
	good := []byte(`<definitions xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/" targetNamespace="urn:x">
		<portType><operation name="sendInvoice"/><operation name="getInvoiceStatus"/>
		<operation name="cancelInvoice"/><operation name="getInvoiceList"/></portType>
		<service><port><soap:address location="http://portal/ws"/></port></service></definitions>`)
	s, err := parseWSDL(good)
	require.NoError(t, err)
	assert.Equal(t, "http://portal/ws", s.endpoint)
	assert.Equal(t, "urn:x", s.targetNamespace)

	_, err = parseWSDL([]byte(`<definitions><portType><operation name="sendInvoice"/></portType></definitions>`))
	assert.ErrorContains(t, err, "getInvoiceStatus")

	_, err = parseWSDL([]byte(`<html>login</html>`))
	assert.Error(t, err)

	_, err = parseWSDL([]byte(`not xml`))
	assert.Error(t, err)
}

func TestBuildEnvelope(t *testing.T) {
	out, err := buildEnvelope("urn:x", OpCancelInvoice, field{fieldUUID, "u-1"}, field{fieldReason, "a & b"})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tns="urn:x">`)
	assert.Contains(t, s, `<tns:cancelInvoice><FATURA_UUID>u-1</FATURA_UUID><IPTAL_NEDENI>a &amp; b</IPTAL_NEDENI></tns:cancelInvoice>`)
}

func TestParseResponse(t *testing.T) {
	resp, err := parseResponse([]byte(`<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body>
		<ns2:sendInvoiceResponse xmlns:ns2="urn:x"><SONUC>0</SONUC><ISLEM_ID>T1</ISLEM_ID></ns2:sendInvoiceResponse>
		</S:Body></S:Envelope>`), OpSendInvoice)
	require.NoError(t, err)
	assert.Equal(t, "0", childText(resp, fieldResult))
	assert.Equal(t, "T1", childText(resp, fieldTransaction))

	_, err = parseResponse([]byte(`<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body>
		<S:Fault><faultstring>boom</faultstring></S:Fault></S:Body></S:Envelope>`), OpSendInvoice)
	var pe *PortalError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeSystem, pe.Code)
	assert.Equal(t, "boom", pe.Message)

	_, err = parseResponse([]byte(`<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body/></S:Envelope>`), OpSendInvoice)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeSOAP, pe.Code)
}
