package numbering

import (
	"context"
	"fmt"
	"strconv"

	"belgeno/internal/core/apperror"
	appctx "belgeno/internal/core/context"
	"belgeno/internal/core/numerator"
	"belgeno/pkg/logger"
)

// defaultHistoryLimit applies when History is called with limit <= 0.
const defaultHistoryLimit = 50

// History returns the recorded format and counter changes of kind, newest first.
// It is empty when no audit log is configured.
func (s *Service) History(ctx context.Context, kind numerator.DocumentKind, companyID string, limit int) ([]numerator.AuditEntry, error) {
	if companyID == "" {
		return nil, apperror.NewValidation("company is required")
	}
	if s.audit == nil {
		return []numerator.AuditEntry{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries, err := s.audit.History(ctx, companyID, kind, limit)
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("load audit history: %w", err))
	}
	return entries, nil
}

// record writes an audit entry in the transaction of the change it describes.
// It runs behind a savepoint, so a failure is only logged and the change still
// commits.
func (s *Service) record(ctx context.Context, companyID string, kind numerator.DocumentKind, action numerator.AuditAction, oldValue, newValue string) {
	if s.audit == nil {
		return
	}

	entry := numerator.AuditEntry{
		CompanyID: companyID,
		Kind:      kind,
		Action:    action,
		UserID:    appctx.GetUserID(ctx),
		Old:       oldValue,
		New:       newValue,
		RequestID: appctx.GetRequestID(ctx),
		At:        s.now().UTC(),
	}
	err := s.tx.Savepoint(ctx, func(ctx context.Context) error {
		return s.audit.Record(ctx, entry)
	})
	if err != nil {
		logger.Warn(ctx, "failed to record audit entry", "kind", kind, "action", action, "error", err)
	}
}

// previousFormat is the stored format of kind, read only when auditing.
func (s *Service) previousFormat(ctx context.Context, kind numerator.DocumentKind, companyID string) string {
	if s.audit == nil {
		return ""
	}
	value, _, err := s.store.FormatValue(ctx, companyID, kind.FormatKey())
	if err != nil {
		return ""
	}
	return value
}

// previousSequence is the counter of kind, read only when auditing.
func (s *Service) previousSequence(ctx context.Context, kind numerator.DocumentKind, companyID string) string {
	if s.audit == nil {
		return ""
	}
	value, found, err := s.store.LoadSequence(ctx, companyID, kind.SequenceKey())
	if err != nil || !found {
		return ""
	}
	return strconv.FormatInt(value, 10)
}
