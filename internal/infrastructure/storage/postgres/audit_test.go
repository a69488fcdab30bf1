package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belgeno/internal/core/numerator"
)

const auditCompany = "0190d3b4-7c1e-7a51-9a3c-2f4d8e1b6a70"

type execRecorder struct {
	sql  string
	args []any
	err  error
}

func (e *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql, e.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), e.err
}

func (e *execRecorder) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (e *execRecorder) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func newAuditStore(t *testing.T, q Querier, compressAbove int) *AuditStore {
	t.Helper()
	s, err := NewAuditStore(q, compressAbove)
	require.NoError(t, err)
	return s
}

func TestAuditStore_Record(t *testing.T) {
	q := &execRecorder{}
	s := newAuditStore(t, q, 0)
	at := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	err := s.Record(context.Background(), numerator.AuditEntry{
		CompanyID: auditCompany,
		Kind:      numerator.KindInvoice,
		Action:    numerator.AuditSequenceReset,
		UserID:    "u-1",
		Old:       "41",
		New:       "0",
		At:        at,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q.sql, "INSERT INTO numbering_audit"))
	require.Len(t, q.args, 8)
	assert.Equal(t, auditCompany, q.args[0])
	assert.Equal(t, "invoice", q.args[1])
	assert.Equal(t, "sequence_reset", q.args[2])
	assert.JSONEq(t, `{"old":"41","new":"0"}`, string(q.args[4].([]byte)))
	assert.Nil(t, q.args[5])
	assert.Equal(t, "none", q.args[6])
	assert.Equal(t, at, q.args[7])
}

func TestAuditStore_RecordError(t *testing.T) {
	s := newAuditStore(t, &execRecorder{err: errors.New("relation does not exist")}, 0)

	err := s.Record(context.Background(), numerator.AuditEntry{CompanyID: auditCompany, Kind: numerator.KindOrder})
	assert.ErrorContains(t, err, "insert audit entry")
}

func TestAuditStore_WithoutQuerier(t *testing.T) {
	s := newAuditStore(t, nil, 0)

	assert.ErrorIs(t, s.Record(context.Background(), numerator.AuditEntry{}), errNoAuditQuerier)
	_, err := s.History(context.Background(), auditCompany, numerator.KindOrder, 10)
	assert.ErrorIs(t, err, errNoAuditQuerier)
}

func TestAuditStore_CompressesLargeChanges(t *testing.T) {
	s := newAuditStore(t, nil, 32)
	entry := numerator.AuditEntry{
		CompanyID: auditCompany,
		Kind:      numerator.KindProposal,
		Action:    numerator.AuditFormatSaved,
		Old:       "TKF-{YYYY}-{0001}",
		New:       "TEKLIF-{YYYY}-{MM}-{000000001}",
		RequestID: "req-1",
	}

	row, err := s.encode(entry)
	require.NoError(t, err)
	assert.Equal(t, string(CompressionZstd), row.CompressionAlgo)
	assert.Nil(t, row.Changes)
	assert.NotEmpty(t, row.ChangesCompressed)

	got, err := s.decode(row)
	require.NoError(t, err)
	assert.Equal(t, entry.Old, got.Old)
	assert.Equal(t, entry.New, got.New)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, numerator.AuditFormatSaved, got.Action)
}

func TestAuditStore_DecodeCorrupt(t *testing.T) {
	s := newAuditStore(t, nil, 0)

	_, err := s.decode(auditRow{CompressionAlgo: "zstd", ChangesCompressed: []byte("not zstd")})
	assert.ErrorContains(t, err, "decompress changes")

	_, err = s.decode(auditRow{CompressionAlgo: "none", Changes: []byte("{")})
	assert.ErrorContains(t, err, "unmarshal changes")
}

func TestBuildSelectAudit(t *testing.T) {
	sql, args, err := buildSelectAudit(auditCompany, "einvoice", 20)
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM numbering_audit")
	assert.Contains(t, sql, "company_id = $1")
	assert.Contains(t, sql, "kind = $2")
	assert.Contains(t, sql, "ORDER BY created_at DESC, id DESC LIMIT 20")
	assert.Equal(t, []any{auditCompany, "einvoice"}, args)
}
