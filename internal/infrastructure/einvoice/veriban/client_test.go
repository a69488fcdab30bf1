package veriban

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "0190d3b4-7c1e-7a51-9a3c-2f4d8e1b6a70"

func envelope(body string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
		body +
		`</s:Body></s:Envelope>`
}

type invoice struct {
	number  string
	profile string
}

// fakeVeriban answers SOAP calls by SOAPAction.
type fakeVeriban struct {
	mu       sync.Mutex
	calls    []string
	requests map[string]string

	loginFault bool
	invoices   map[string]invoice
	order      []string
	statusErr  map[string]bool
}

func (f *fakeVeriban) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := r.Header.Get("SOAPAction")
	raw, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, action)
	if f.requests == nil {
		f.requests = map[string]string{}
	}
	f.requests[action] = string(raw)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")

	switch action {
	case "Login":
		if f.loginFault {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, envelope(`<s:Fault><faultcode>s:Client</faultcode><faultstring>Kullanici adi veya sifre hatali</faultstring></s:Fault>`))
			return
		}
		fmt.Fprint(w, envelope(`<LoginResponse xmlns="http://tempuri.org/"><LoginResult>session-1</LoginResult></LoginResponse>`))
	case "Logout":
		fmt.Fprint(w, envelope(`<LogoutResponse xmlns="http://tempuri.org/"/>`))
	case "GetSalesInvoiceList":
		var b strings.Builder
		for _, id := range f.order {
			fmt.Fprintf(&b, `<SalesInvoice><InvoiceUUID>%s</InvoiceUUID></SalesInvoice>`, id)
		}
		fmt.Fprint(w, envelope(`<GetSalesInvoiceListResponse xmlns="http://tempuri.org/"><GetSalesInvoiceListResult>`+
			b.String()+`</GetSalesInvoiceListResult></GetSalesInvoiceListResponse>`))
	case "GetSalesInvoiceStatusWithInvoiceUUID":
		doc := etree.NewDocument()
		_ = doc.ReadFromBytes(raw)
		id := ""
		if el := doc.FindElement("//invoiceUUID"); el != nil {
			id = el.Text()
		}
		if f.statusErr[id] {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, envelope(`<s:Fault><detail><FaultCode>404</FaultCode><FaultDescription>Fatura bulunamadi</FaultDescription></detail></s:Fault>`))
			return
		}
		inv := f.invoices[id]
		fmt.Fprintf(w, envelope(`<GetSalesInvoiceStatusWithInvoiceUUIDResponse xmlns="http://tempuri.org/"><Result>`+
			`<InvoiceNumber>%s</InvoiceNumber><InvoiceProfile>%s</InvoiceProfile></Result>`+
			`</GetSalesInvoiceStatusWithInvoiceUUIDResponse>`), inv.number, inv.profile)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeVeriban) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestClient(t *testing.T, f *fakeVeriban, mutate func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL)
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100
	if mutate != nil {
		mutate(&cfg)
	}
	c := New(cfg, StaticCredentials{Username: "demo", Password: "secret"})
	c.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestLastIssuedNumber_PicksHighestOfSeries(t *testing.T) {
	f := &fakeVeriban{
		order: []string{"u1", "u2", "u3", "u4"},
		invoices: map[string]invoice{
			"u1": {number: "FAT2025000000041", profile: "TICARIFATURA"},
			"u2": {number: "FAT2025000000043", profile: "TICARIFATURA"},
			"u3": {number: "ABC2025000000900", profile: "TICARIFATURA"},
			"u4": {number: "FAT-2025-0099", profile: "TICARIFATURA"},
		},
	}
	c := newTestClient(t, f, nil)

	got, found, err := c.LastIssuedNumber(context.Background(), companyID, "FAT")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "FAT2025000000043", got)

	actions := f.actions()
	assert.Equal(t, "Login", actions[0])
	assert.Equal(t, "Logout", actions[len(actions)-1])
}

func TestLastIssuedNumber_ProfileFilter(t *testing.T) {
	f := &fakeVeriban{
		order: []string{"u1", "u2"},
		invoices: map[string]invoice{
			"u1": {number: "FAT2025000000050", profile: "TICARIFATURA"},
			"u2": {number: "FAT2025000000012", profile: "EARSIVFATURA"},
		},
	}
	c := newTestClient(t, f, func(cfg *Config) { cfg.Profile = "EARSIVFATURA" })

	got, found, err := c.LastIssuedNumber(context.Background(), companyID, "FAT{YYYY}{000000001}")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "FAT2025000000012", got)
}

func TestLastIssuedNumber_NothingForSeries(t *testing.T) {
	f := &fakeVeriban{
		order:    []string{"u1"},
		invoices: map[string]invoice{"u1": {number: "ABC2025000000001"}},
	}
	c := newTestClient(t, f, nil)

	got, found, err := c.LastIssuedNumber(context.Background(), companyID, "FAT")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got)
}

func TestLastIssuedNumber_SkipsFailedStatus(t *testing.T) {
	f := &fakeVeriban{
		order: []string{"u1", "u2"},
		invoices: map[string]invoice{
			"u2": {number: "FAT2025000000007"},
		},
		statusErr: map[string]bool{"u1": true},
	}
	c := newTestClient(t, f, nil)

	got, found, err := c.LastIssuedNumber(context.Background(), companyID, "FAT")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "FAT2025000000007", got)
}

func TestLastIssuedNumber_StatusLimit(t *testing.T) {
	f := &fakeVeriban{
		order: []string{"u1", "u2", "u3"},
		invoices: map[string]invoice{
			"u1": {number: "FAT2025000000001"},
			"u2": {number: "FAT2025000000002"},
			"u3": {number: "FAT2025000000099"},
		},
	}
	c := newTestClient(t, f, func(cfg *Config) { cfg.StatusLimit = 2 })

	got, _, err := c.LastIssuedNumber(context.Background(), companyID, "FAT")

	require.NoError(t, err)
	assert.Equal(t, "FAT2025000000002", got)

	statusCalls := 0
	for _, a := range f.actions() {
		if a == "GetSalesInvoiceStatusWithInvoiceUUID" {
			statusCalls++
		}
	}
	assert.Equal(t, 2, statusCalls)
}

func TestLastIssuedNumber_LoginFault(t *testing.T) {
	f := &fakeVeriban{loginFault: true}
	c := newTestClient(t, f, nil)

	_, found, err := c.LastIssuedNumber(context.Background(), companyID, "FAT")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFault)
	assert.Contains(t, err.Error(), "sifre hatali")
	assert.False(t, found)
	assert.Equal(t, []string{"Login"}, f.actions())
}

func TestLastIssuedNumber_NoCredentials(t *testing.T) {
	f := &fakeVeriban{}
	c := newTestClient(t, f, nil)
	c.creds = StaticCredentials{}

	_, _, err := c.LastIssuedNumber(context.Background(), companyID, "FAT")

	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Empty(t, f.actions())
}

func TestSalesInvoiceUUIDs_Request(t *testing.T) {
	f := &fakeVeriban{}
	c := newTestClient(t, f, nil)

	start := time.Date(2025, 2, 13, 12, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	_, err := c.SalesInvoiceUUIDs(context.Background(), "session-1", start, end, 1, 20)
	require.NoError(t, err)

	req := f.requests["GetSalesInvoiceList"]
	assert.Contains(t, req, `xmlns:tem="http://tempuri.org/"`)
	assert.Contains(t, req, "<tem:sessionCode>session-1</tem:sessionCode>")
	assert.Contains(t, req, "<tem:startDate>2025-02-13T12:00:00</tem:startDate>")
	assert.Contains(t, req, "<tem:endDate>2025-03-15T12:00:00</tem:endDate>")
	assert.Contains(t, req, "<tem:pageIndex>1</tem:pageIndex>")
	assert.Contains(t, req, "<tem:pageSize>20</tem:pageSize>")
}

func TestBuildEnvelope_EscapesText(t *testing.T) {
	raw, err := buildEnvelope("Login", arg("userName", "a&b"), arg("password", "<p>"))
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "<soapenv:Header/>")
	assert.Contains(t, s, "<tem:userName>a&amp;b</tem:userName>")
	assert.Contains(t, s, "<tem:password>&lt;p&gt;</tem:password>")
}

func TestParseResponse_Faults(t *testing.T) {
	_, err := parseResponse([]byte(envelope(`<s:Fault><faultstring>boom</faultstring></s:Fault>`)))
	assert.ErrorIs(t, err, ErrFault)
	assert.Contains(t, err.Error(), "boom")

	_, err = parseResponse([]byte(envelope(`<s:Fault/>`)))
	assert.ErrorIs(t, err, ErrFault)

	_, err = parseResponse([]byte("not xml <"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrFault)

	doc, err := parseResponse([]byte(envelope(`<LoginResponse><LoginResult> s1 </LoginResult></LoginResponse>`)))
	require.NoError(t, err)
	assert.Equal(t, "s1", text(doc, "//LoginResult"))
}

func TestBelongsTo(t *testing.T) {
	assert.True(t, belongsTo("FAT2025000000001", "FAT"))
	assert.False(t, belongsTo("FAT202500000001", "FAT"))
	assert.False(t, belongsTo("FAT20250000000A1", "FAT"))
	assert.False(t, belongsTo("ABC2025000000001", "FAT"))
}
