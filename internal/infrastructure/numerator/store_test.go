package numerator

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "belgeno/internal/core/numerator"
)

const companyID = "0190d3b4-7c1e-7a51-9a3c-2f4d8e1b6a70"

// Mock objects
type mockRow struct {
	val any
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) == 0 {
		return nil
	}
	switch ptr := dest[0].(type) {
	case *string:
		*ptr = m.val.(string)
	case *int:
		*ptr = m.val.(int)
	}
	return nil
}

type mockQuerier struct {
	lastSQL  string
	lastArgs []any

	row     *mockRow
	tag     string
	execErr error
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.lastSQL, m.lastArgs = sql, args
	if m.execErr != nil {
		return pgconn.CommandTag{}, m.execErr
	}
	return pgconn.NewCommandTag(m.tag), nil
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.lastSQL, m.lastArgs = sql, args
	return nil, errors.New("not supported by mock")
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.lastSQL, m.lastArgs = sql, args
	return m.row
}

var proposals = corenumerator.RecordColumn{Table: "proposals", Column: "number"}

func TestBuildFindByPrefix(t *testing.T) {
	sql, args, err := buildFindByPrefix(proposals, companyID, "TKF-2025", 100)

	require.NoError(t, err)
	assert.Equal(t, `SELECT "number" FROM "proposals" WHERE company_id = $1 AND "number" LIKE $2 ORDER BY "number" DESC LIMIT 100`, sql)
	assert.Equal(t, []any{companyID, "TKF-2025%"}, args)
}

func TestBuildFindByPrefix_EscapesWildcards(t *testing.T) {
	_, args, err := buildFindByPrefix(proposals, companyID, "FAT_20%", 10)

	require.NoError(t, err)
	assert.Equal(t, `FAT\_20\%%`, args[1])
}

func TestBuildExists(t *testing.T) {
	rc := corenumerator.RecordColumn{Table: "sales_invoices", Column: "fatura_no"}

	sql, args, err := buildExists(rc, companyID, "FAT2025000000042")

	require.NoError(t, err)
	assert.Equal(t, `SELECT 1 FROM "sales_invoices" WHERE company_id = $1 AND "fatura_no" = $2 LIMIT 1`, sql)
	assert.Equal(t, []any{companyID, "FAT2025000000042"}, args)
}

func TestBuildSwapCounter(t *testing.T) {
	sql, args, err := buildSwapCounter(companyID, "order_sequence", 7, 8)

	require.NoError(t, err)
	assert.Equal(t, "UPDATE system_parameters SET parameter_value = $1, updated_at = now() "+
		"WHERE company_id = $2 AND parameter_key = $3 AND "+counterValue+" = $4", sql)
	assert.Equal(t, []any{"8", companyID, "order_sequence", int64(7)}, args)
}

func TestBuildUpsertParameter(t *testing.T) {
	p := counterParameter("order_sequence", 1)

	sql, args, err := buildUpsertParameter(companyID, p, true)
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO system_parameters")
	assert.Contains(t, sql, "ON CONFLICT (company_id, parameter_key) DO NOTHING")
	assert.Equal(t, []any{companyID, "order_sequence", "1", "number", "sequences", "Document number counter", true, false}, args)

	sql, _, err = buildUpsertParameter(companyID, p, false)
	require.NoError(t, err)
	assert.Contains(t, sql, "DO UPDATE SET parameter_value = EXCLUDED.parameter_value")
}

func TestStore_FormatValue(t *testing.T) {
	ctx := context.Background()

	q := &mockQuerier{row: &mockRow{val: "TKF-{YYYY}-{0001}"}}
	v, found, err := New(q).FormatValue(ctx, companyID, "proposal_number_format")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "TKF-{YYYY}-{0001}", v)
	assert.Equal(t, []any{companyID, "proposal_number_format"}, q.lastArgs)

	q = &mockQuerier{row: &mockRow{err: pgx.ErrNoRows}}
	_, found, err = New(q).FormatValue(ctx, companyID, "proposal_number_format")
	require.NoError(t, err)
	assert.False(t, found)

	q = &mockQuerier{row: &mockRow{err: errors.New("conn refused")}}
	_, _, err = New(q).FormatValue(ctx, companyID, "proposal_number_format")
	assert.Error(t, err)
}

func TestStore_LoadSequence(t *testing.T) {
	ctx := context.Background()

	v, found, err := New(&mockQuerier{row: &mockRow{val: "41"}}).LoadSequence(ctx, companyID, "order_sequence")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(41), v)

	v, found, err = New(&mockQuerier{row: &mockRow{val: "abc"}}).LoadSequence(ctx, companyID, "order_sequence")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Zero(t, v)

	_, found, err = New(&mockQuerier{row: &mockRow{err: pgx.ErrNoRows}}).LoadSequence(ctx, companyID, "order_sequence")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_CompareAndSwapSequence(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		existed bool
		tag     string
		execErr error
		want    error
	}{
		{name: "update applied", existed: true, tag: "UPDATE 1"},
		{name: "update lost", existed: true, tag: "UPDATE 0", want: corenumerator.ErrConflict},
		{name: "insert applied", existed: false, tag: "INSERT 0 1"},
		{name: "insert lost", existed: false, tag: "INSERT 0 0", want: corenumerator.ErrConflict},
		{name: "unique violation", existed: false, execErr: &pgconn.PgError{Code: "23505"}, want: corenumerator.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &mockQuerier{tag: tt.tag, execErr: tt.execErr}

			err := New(q).CompareAndSwapSequence(ctx, companyID, "order_sequence", 7, tt.existed, 8)

			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

	q := &mockQuerier{execErr: errors.New("conn refused")}
	err := New(q).CompareAndSwapSequence(ctx, companyID, "order_sequence", 7, true, 8)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, corenumerator.ErrConflict)
}

func TestStore_ExistsByExactMatch(t *testing.T) {
	ctx := context.Background()

	found, err := New(&mockQuerier{row: &mockRow{val: 1}}).ExistsByExactMatch(ctx, proposals, companyID, "TKF-2025-0001")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = New(&mockQuerier{row: &mockRow{err: pgx.ErrNoRows}}).ExistsByExactMatch(ctx, proposals, companyID, "TKF-2025-0001")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = New(&mockQuerier{row: &mockRow{err: errors.New("timeout")}}).ExistsByExactMatch(ctx, proposals, companyID, "TKF-2025-0001")
	assert.Error(t, err)
}

func TestStore_StoreSequence(t *testing.T) {
	q := &mockQuerier{tag: "INSERT 0 1"}

	err := New(q).StoreSequence(context.Background(), companyID, "service_sequence", 100)

	require.NoError(t, err)
	assert.Contains(t, q.lastSQL, "DO UPDATE SET")
	assert.Equal(t, "100", q.lastArgs[2])
}

func TestStore_WithoutQuerier(t *testing.T) {
	_, _, err := New(nil).FormatValue(context.Background(), companyID, "proposal_number_format")
	assert.ErrorIs(t, err, errNoQuerier)
}

func TestBuildIssuedNumbers(t *testing.T) {
	sql, args, err := buildIssuedNumbers(companyID, "FAT", []string{"sent", "delivered"}, 100)

	require.NoError(t, err)
	assert.Equal(t, "SELECT fatura_no FROM sales_invoices WHERE company_id = $1 AND einvoice_status IN ($2,$3) "+
		"AND fatura_no LIKE $4 ORDER BY fatura_no DESC LIMIT 100", sql)
	assert.Equal(t, []any{companyID, "sent", "delivered", "FAT%"}, args)
}

func TestPickIssued(t *testing.T) {
	assert.Equal(t, "FAT2025000000042", pickIssued([]string{"FAT-2025-0099", "FAT2025000000042", "FAT2025000000041"}))
	assert.Equal(t, "", pickIssued([]string{"FATURA-1", "FAT20250001"}))
	assert.Equal(t, "", pickIssued(nil))
}
