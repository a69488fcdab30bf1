// Package numbering issues document numbers for a company.
//
// A number is produced from the company's format for the document kind. The
// highest number already persisted (and, for e-invoice kinds, the vendor's
// last issued number) sets the floor, and candidates above it are probed until
// a free one is found.
package numbering

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"belgeno/internal/core/apperror"
	"belgeno/internal/core/numerator"
	"belgeno/internal/core/tx"
	"belgeno/pkg/logger"
)

var tracer = otel.Tracer("belgeno/numbering")

// Service implements the numbering entry points on top of a DataStore.
type Service struct {
	store       numerator.DataStore
	authorities numerator.Authorities
	audit       numerator.AuditLog
	tx          tx.Manager
	cfg         numerator.Config
	now         func() time.Time
	sleep       numerator.SleepFunc
}

// Option customizes a Service.
type Option func(*Service)

// WithConfig overrides the numbering tunables. Zero fields keep their defaults.
func WithConfig(cfg numerator.Config) Option {
	return func(s *Service) { s.cfg = cfg.WithDefaults() }
}

// WithAuthority registers the remote authority consulted for kind.
func WithAuthority(kind numerator.DocumentKind, a numerator.RemoteInvoiceAuthority) Option {
	return func(s *Service) { s.authorities[kind] = a }
}

// WithAuditLog records format saves and counter resets in log.
func WithAuditLog(log numerator.AuditLog) Option {
	return func(s *Service) { s.audit = log }
}

// WithTransactions runs each format save and counter reset, together with its
// audit entry, in one transaction of m.
func WithTransactions(m tx.Manager) Option {
	return func(s *Service) { s.tx = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSleep replaces the pause used between retries.
func WithSleep(sleep numerator.SleepFunc) Option {
	return func(s *Service) { s.sleep = sleep }
}

// NewService creates a numbering service.
func NewService(store numerator.DataStore, opts ...Option) *Service {
	s := &Service{
		store:       store,
		authorities: make(numerator.Authorities),
		tx:          inline{},
		cfg:         numerator.DefaultConfig(),
		now:         time.Now,
		sleep:       numerator.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KindInfo describes a document kind for listings.
type KindInfo struct {
	Kind          numerator.DocumentKind
	FormatKey     string
	DefaultFormat string
	Scheme        numerator.Scheme
	Remote        bool
}

// Kinds lists every document kind with its defaults.
func (s *Service) Kinds() []KindInfo {
	out := make([]KindInfo, 0, len(numerator.Kinds()))
	for _, k := range numerator.Kinds() {
		out = append(out, KindInfo{
			Kind:          k,
			FormatKey:     k.FormatKey(),
			DefaultFormat: k.DefaultFormat(),
			Scheme:        k.Scheme(),
			Remote:        k.RemoteReconcilable(),
		})
	}
	return out
}

// GetNumberFormat returns the company's format for kind, or the kind's default when
// none is configured or the store cannot be read. It never fails.
func (s *Service) GetNumberFormat(ctx context.Context, kind numerator.DocumentKind, companyID string) string {
	def := kind.DefaultFormat()
	if companyID == "" {
		logger.Warn(ctx, "number format requested without company, using default", "kind", kind)
		return def
	}

	value, found, err := s.store.FormatValue(ctx, companyID, kind.FormatKey())
	if err != nil {
		logger.Warn(ctx, "number format lookup failed, using default", "kind", kind, "error", err)
		return def
	}
	if !found || strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// SaveFormat sanitizes and validates format and stores it as the company's format for kind.
// It returns the stored value.
func (s *Service) SaveFormat(ctx context.Context, kind numerator.DocumentKind, companyID, format string) (string, error) {
	if !kind.Valid() {
		return "", apperror.NewValidation("unknown document kind").WithDetail("kind", kind.String())
	}
	if companyID == "" {
		return "", apperror.NewValidation("company is required")
	}

	clean := numerator.SanitizeFormat(format)
	if res := kind.ValidateFormat(clean); !res.Valid {
		return "", apperror.NewInvalidFormat(clean, res.Errors)
	}

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		previous := s.previousFormat(ctx, kind, companyID)
		err := s.store.SaveFormatValue(ctx, companyID, numerator.Parameter{
			Key:         kind.FormatKey(),
			Value:       clean,
			Type:        "string",
			Category:    "formats",
			Description: fmt.Sprintf("Number format for %s", kind),
			Editable:    true,
		})
		if err != nil {
			return err
		}
		s.record(ctx, companyID, kind, numerator.AuditFormatSaved, previous, clean)
		return nil
	})
	if err != nil {
		return "", apperror.NewDatabase(fmt.Errorf("save number format: %w", err))
	}

	logger.Info(ctx, "number format saved", "kind", kind, "format", clean)
	return clean, nil
}

// inline runs work without a transaction; used when none is configured.
type inline struct{}

func (inline) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (inline) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
