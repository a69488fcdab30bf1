// Package veriban is a client for the Veriban e-invoice SOAP service.
// It reports the last invoice number the vendor issued for a series.
package veriban

import (
	"context"
	"errors"
	"time"
)

// Config holds the client configuration.
type Config struct {
	URL     string
	Timeout time.Duration

	// RequestsPerSecond and Burst throttle calls to the vendor.
	RequestsPerSecond float64
	Burst             int

	// LookbackDays is how far back the invoice list is read.
	LookbackDays int
	// PageSize is the invoice list page size.
	PageSize int
	// StatusLimit bounds how many listed invoices are inspected.
	StatusLimit int

	// Profile, when set, keeps only invoices of this profile (e.g. EARSIVFATURA).
	Profile string
}

// DefaultConfig returns the standard settings for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		Burst:             4,
		LookbackDays:      30,
		PageSize:          20,
		StatusLimit:       10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig(c.URL)
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = d.LookbackDays
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.StatusLimit <= 0 {
		c.StatusLimit = d.StatusLimit
	}
	return c
}

// Credentials authenticate a Veriban session.
type Credentials struct {
	Username string
	Password string
}

// ErrNoCredentials is returned when a company has no Veriban account configured.
var ErrNoCredentials = errors.New("veriban: no credentials for company")

// CredentialSource resolves the Veriban account of a company.
type CredentialSource interface {
	Credentials(ctx context.Context, companyID string) (Credentials, error)
}

// StaticCredentials uses one account for every company.
type StaticCredentials Credentials

// Credentials implements CredentialSource.
func (s StaticCredentials) Credentials(context.Context, string) (Credentials, error) {
	if s.Username == "" {
		return Credentials{}, ErrNoCredentials
	}
	return Credentials(s), nil
}
