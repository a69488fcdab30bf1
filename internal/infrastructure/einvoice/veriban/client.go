package veriban

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	corenumerator "belgeno/internal/core/numerator"
	"belgeno/pkg/logger"
)

const (
	dateLayout   = "2006-01-02T15:04:05"
	logoutBudget = 5 * time.Second
)

// InvoiceStatus is the part of a sales invoice status the numbering needs.
type InvoiceStatus struct {
	UUID    string
	Number  string
	Profile string
}

// Client talks to the Veriban SOAP endpoint.
type Client struct {
	cfg     Config
	creds   CredentialSource
	http    *resty.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// Ensure compile-time interface compliance.
var _ corenumerator.RemoteInvoiceAuthority = (*Client)(nil)

// New creates a client for cfg.URL.
func New(cfg Config, creds CredentialSource) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:   cfg,
		creds: creds,
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "text/xml; charset=utf-8"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		now:     time.Now,
	}
}

// LastIssuedNumber implements core numerator.RemoteInvoiceAuthority.
// It inspects the most recent sales invoices and returns the highest
// number that belongs to the series of seriesFormat.
func (c *Client) LastIssuedNumber(ctx context.Context, companyID, seriesFormat string) (string, bool, error) {
	creds, err := c.creds.Credentials(ctx, companyID)
	if err != nil {
		return "", false, err
	}

	session, err := c.Login(ctx, creds)
	if err != nil {
		return "", false, err
	}
	defer func() {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutBudget)
		defer cancel()
		if err := c.Logout(lctx, session); err != nil {
			logger.Warn(lctx, "veriban logout failed", "error", err)
		}
	}()

	end := c.now()
	start := end.AddDate(0, 0, -c.cfg.LookbackDays)
	uuids, err := c.SalesInvoiceUUIDs(ctx, session, start, end, 1, c.cfg.PageSize)
	if err != nil {
		return "", false, err
	}
	if len(uuids) > c.cfg.StatusLimit {
		uuids = uuids[:c.cfg.StatusLimit]
	}

	series := corenumerator.Series(seriesFormat)
	best := ""
	for _, id := range uuids {
		st, err := c.InvoiceStatus(ctx, session, id)
		if err != nil {
			if ctx.Err() != nil {
				return "", false, ctx.Err()
			}
			logger.Warn(ctx, "veriban status lookup failed", "invoice_uuid", id, "error", err)
			continue
		}
		if c.cfg.Profile != "" && !strings.EqualFold(st.Profile, c.cfg.Profile) {
			continue
		}
		if belongsTo(st.Number, series) && st.Number > best {
			best = st.Number
		}
	}

	logger.Debug(ctx, "veriban last issued number",
		"series", series,
		"inspected", len(uuids),
		"number", best)

	return best, best != "", nil
}

// belongsTo reports whether number is a well-formed number of series.
// Same-series numbers share a fixed width, so they compare lexically.
func belongsTo(number, series string) bool {
	if len(number) != corenumerator.GIBLength || !strings.HasPrefix(number, series) {
		return false
	}
	for _, r := range number[len(series):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Login opens a session and returns its code.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	doc, err := c.call(ctx, "Login",
		arg("userName", creds.Username),
		arg("password", creds.Password))
	if err != nil {
		return "", err
	}
	session := text(doc, "//LoginResult")
	if session == "" {
		return "", fmt.Errorf("veriban: login returned no session code")
	}
	return session, nil
}

// Logout closes a session.
func (c *Client) Logout(ctx context.Context, session string) error {
	_, err := c.call(ctx, "Logout", arg("sessionCode", session))
	return err
}

// SalesInvoiceUUIDs lists the UUIDs of sales invoices created in [start, end].
func (c *Client) SalesInvoiceUUIDs(ctx context.Context, session string, start, end time.Time, page, size int) ([]string, error) {
	doc, err := c.call(ctx, "GetSalesInvoiceList",
		arg("sessionCode", session),
		arg("startDate", start.Format(dateLayout)),
		arg("endDate", end.Format(dateLayout)),
		arg("pageIndex", strconv.Itoa(page)),
		arg("pageSize", strconv.Itoa(size)))
	if err != nil {
		return nil, err
	}
	return texts(doc, "//InvoiceUUID"), nil
}

// InvoiceStatus reads the status of one sales invoice.
func (c *Client) InvoiceStatus(ctx context.Context, session, invoiceUUID string) (InvoiceStatus, error) {
	doc, err := c.call(ctx, "GetSalesInvoiceStatusWithInvoiceUUID",
		arg("sessionCode", session),
		arg("invoiceUUID", invoiceUUID))
	if err != nil {
		return InvoiceStatus{}, err
	}
	return InvoiceStatus{
		UUID:    invoiceUUID,
		Number:  text(doc, "//InvoiceNumber"),
		Profile: text(doc, "//InvoiceProfile"),
	}, nil
}

// call sends one SOAP operation and returns the parsed response.
func (c *Client) call(ctx context.Context, operation string, params ...param) (*etree.Document, error) {
	payload, err := buildEnvelope(operation, params...)
	if err != nil {
		return nil, fmt.Errorf("veriban: build %s: %w", operation, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(soapAction, operation).
		SetBody(payload).
		Post(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("veriban: %s: %w", operation, err)
	}

	// Faults arrive with HTTP 500, so the body is inspected before the status.
	doc, perr := parseResponse(resp.Body())
	if perr != nil && resp.StatusCode() == http.StatusOK {
		return nil, fmt.Errorf("veriban: %s: %w", operation, perr)
	}
	if resp.StatusCode() != http.StatusOK {
		if perr != nil {
			return nil, fmt.Errorf("veriban: %s: status %d: %w", operation, resp.StatusCode(), perr)
		}
		return nil, fmt.Errorf("veriban: %s: unexpected status %d", operation, resp.StatusCode())
	}
	return doc, nil
}
