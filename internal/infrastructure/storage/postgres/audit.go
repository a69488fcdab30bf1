package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"belgeno/internal/core/numerator"
)

// CompressionAlgo specifies how the changes of an audit row are stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressAbove is the changes size, in bytes, from which rows are compressed.
const DefaultCompressAbove = 1024

var errNoAuditQuerier = errors.New("audit store: no database connection in context")

// auditChanges is the JSON document kept in numbering_audit.changes.
type auditChanges struct {
	Old       string `json:"old"`
	New       string `json:"new"`
	RequestID string `json:"request_id,omitempty"`
}

type auditRow struct {
	CompanyID         string    `db:"company_id"`
	Kind              string    `db:"kind"`
	Action            string    `db:"action"`
	UserID            string    `db:"user_id"`
	Changes           []byte    `db:"changes"`
	ChangesCompressed []byte    `db:"changes_compressed"`
	CompressionAlgo   string    `db:"compression_algo"`
	CreatedAt         time.Time `db:"created_at"`
}

// AuditStore implements numerator.AuditLog on the numbering_audit table.
type AuditStore struct {
	static        Querier
	encoder       *zstd.Encoder
	decoder       *zstd.Decoder
	compressAbove int
}

// Ensure compile-time interface compliance.
var _ numerator.AuditLog = (*AuditStore)(nil)

// NewAuditStore creates an audit store. Queries join the transaction open in the
// context, otherwise they run on q. Changes larger than compressAbove bytes are
// stored zstd-compressed; compressAbove <= 0 uses DefaultCompressAbove.
func NewAuditStore(q Querier, compressAbove int) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if compressAbove <= 0 {
		compressAbove = DefaultCompressAbove
	}

	return &AuditStore{
		static:        q,
		encoder:       encoder,
		decoder:       decoder,
		compressAbove: compressAbove,
	}, nil
}

func (s *AuditStore) querier(ctx context.Context) (Querier, error) {
	q := QuerierFromContext(ctx, s.static)
	if q == nil {
		return nil, errNoAuditQuerier
	}
	return q, nil
}

// Record inserts entry.
func (s *AuditStore) Record(ctx context.Context, entry numerator.AuditEntry) error {
	q, err := s.querier(ctx)
	if err != nil {
		return err
	}

	row, err := s.encode(entry)
	if err != nil {
		return err
	}

	sql, args, err := buildInsertAudit(row)
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History returns up to limit entries of kind, newest first.
func (s *AuditStore) History(ctx context.Context, companyID string, kind numerator.DocumentKind, limit int) ([]numerator.AuditEntry, error) {
	q, err := s.querier(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := buildSelectAudit(companyID, kind.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}

	out := make([]numerator.AuditEntry, 0, len(rows))
	for _, r := range rows {
		e, err := s.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// encode turns entry into a row, compressing large change documents.
func (s *AuditStore) encode(entry numerator.AuditEntry) (auditRow, error) {
	changes, err := json.Marshal(auditChanges{Old: entry.Old, New: entry.New, RequestID: entry.RequestID})
	if err != nil {
		return auditRow{}, fmt.Errorf("marshal changes: %w", err)
	}

	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	row := auditRow{
		CompanyID:       entry.CompanyID,
		Kind:            entry.Kind.String(),
		Action:          string(entry.Action),
		UserID:          entry.UserID,
		Changes:         changes,
		CompressionAlgo: string(CompressionNone),
		CreatedAt:       at,
	}
	if len(changes) > s.compressAbove {
		row.ChangesCompressed = s.encoder.EncodeAll(changes, nil)
		row.Changes = nil
		row.CompressionAlgo = string(CompressionZstd)
	}
	return row, nil
}

func (s *AuditStore) decode(r auditRow) (numerator.AuditEntry, error) {
	raw := r.Changes
	if CompressionAlgo(r.CompressionAlgo) == CompressionZstd && len(r.ChangesCompressed) > 0 {
		decompressed, err := s.decoder.DecodeAll(r.ChangesCompressed, nil)
		if err != nil {
			return numerator.AuditEntry{}, fmt.Errorf("decompress changes: %w", err)
		}
		raw = decompressed
	}

	var ch auditChanges
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ch); err != nil {
			return numerator.AuditEntry{}, fmt.Errorf("unmarshal changes: %w", err)
		}
	}

	return numerator.AuditEntry{
		CompanyID: r.CompanyID,
		Kind:      numerator.DocumentKind(r.Kind),
		Action:    numerator.AuditAction(r.Action),
		UserID:    r.UserID,
		Old:       ch.Old,
		New:       ch.New,
		RequestID: ch.RequestID,
		At:        r.CreatedAt,
	}, nil
}

func auditBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func buildInsertAudit(r auditRow) (string, []any, error) {
	return auditBuilder().
		Insert("numbering_audit").
		Columns("company_id", "kind", "action", "user_id",
			"changes", "changes_compressed", "compression_algo", "created_at").
		Values(r.CompanyID, r.Kind, r.Action, r.UserID,
			r.Changes, r.ChangesCompressed, r.CompressionAlgo, r.CreatedAt).
		ToSql()
}

func buildSelectAudit(companyID, kind string, limit int) (string, []any, error) {
	return auditBuilder().
		Select("company_id::text AS company_id", "kind", "action", "user_id",
			"changes", "changes_compressed", "compression_algo", "created_at").
		From("numbering_audit").
		Where(squirrel.Eq{"company_id": companyID, "kind": kind}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
}
