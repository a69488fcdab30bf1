package numerator

import (
	"context"
	"time"
)

// AuditAction names an administrative change to a kind.
type AuditAction string

const (
	AuditFormatSaved   AuditAction = "format_saved"
	AuditSequenceReset AuditAction = "sequence_reset"
)

// AuditEntry records who changed a format or counter, and from what to what.
type AuditEntry struct {
	CompanyID string
	Kind      DocumentKind
	Action    AuditAction
	UserID    string
	Old       string
	New       string
	RequestID string
	At        time.Time
}

// AuditLog stores administrative changes.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
	// History returns the newest entries of kind first.
	History(ctx context.Context, companyID string, kind DocumentKind, limit int) ([]AuditEntry, error)
}
