// Package numerator provides the PostgreSQL implementation of the numbering data store.
//
// Formats and counters live in system_parameters, one row per (company_id, parameter_key).
// Persisted numbers are read from the ERP record tables.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	corenumerator "belgeno/internal/core/numerator"
	"belgeno/internal/infrastructure/storage/postgres"
)

const (
	parametersTable = "system_parameters"
	uniqueViolation = "23505"

	// counterValue reads parameter_value as a counter; non-numeric values count as 0.
	counterValue = "CASE WHEN parameter_value ~ '^[0-9]+$' THEN parameter_value::bigint ELSE 0 END"
)

var errNoQuerier = errors.New("numerator store: no database connection in context")

// Store implements core numerator.DataStore on PostgreSQL.
type Store struct {
	// static is used when the context carries no open transaction.
	static postgres.Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.DataStore = (*Store)(nil)

// New creates a store that queries querier outside transactions.
func New(querier postgres.Querier) *Store {
	return &Store{static: querier}
}

func (s *Store) querier(ctx context.Context) (postgres.Querier, error) {
	q := postgres.QuerierFromContext(ctx, s.static)
	if q == nil {
		return nil, errNoQuerier
	}
	return q, nil
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// --- Formats ---

// FormatValue implements core numerator.FormatStore.
func (s *Store) FormatValue(ctx context.Context, companyID, key string) (string, bool, error) {
	return s.parameterValue(ctx, companyID, key)
}

// SaveFormatValue implements core numerator.FormatStore.
func (s *Store) SaveFormatValue(ctx context.Context, companyID string, p corenumerator.Parameter) error {
	sql, args, err := buildUpsertParameter(companyID, p, false)
	if err != nil {
		return fmt.Errorf("build upsert parameter: %w", err)
	}
	q, err := s.querier(ctx)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert parameter %s: %w", p.Key, err)
	}
	return nil
}

// --- Counters ---

// LoadSequence implements core numerator.SequenceCounter.
// A stored value that is not a number counts as 0.
func (s *Store) LoadSequence(ctx context.Context, companyID, key string) (int64, bool, error) {
	raw, found, err := s.parameterValue(ctx, companyID, key)
	if err != nil || !found {
		return 0, found, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, true, nil
	}
	return n, true, nil
}

// CompareAndSwapSequence implements core numerator.SequenceCounter.
func (s *Store) CompareAndSwapSequence(ctx context.Context, companyID, key string, expected int64, existed bool, next int64) error {
	var (
		sql  string
		args []any
		err  error
	)
	if existed {
		sql, args, err = buildSwapCounter(companyID, key, expected, next)
	} else {
		sql, args, err = buildUpsertParameter(companyID, counterParameter(key, next), true)
	}
	if err != nil {
		return fmt.Errorf("build counter swap: %w", err)
	}

	q, err := s.querier(ctx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return corenumerator.ErrConflict
		}
		return fmt.Errorf("swap counter %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return corenumerator.ErrConflict
	}
	return nil
}

// StoreSequence implements core numerator.SequenceCounter.
func (s *Store) StoreSequence(ctx context.Context, companyID, key string, value int64) error {
	sql, args, err := buildUpsertParameter(companyID, counterParameter(key, value), false)
	if err != nil {
		return fmt.Errorf("build counter store: %w", err)
	}
	q, err := s.querier(ctx)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("store counter %s: %w", key, err)
	}
	return nil
}

// --- Records ---

// FindByPrefix implements core numerator.RecordStore.
func (s *Store) FindByPrefix(ctx context.Context, rc corenumerator.RecordColumn, companyID, prefix string, limit int) ([]string, error) {
	sql, args, err := buildFindByPrefix(rc, companyID, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("build prefix scan: %w", err)
	}
	q, err := s.querier(ctx)
	if err != nil {
		return nil, err
	}

	var values []string
	if err := pgxscan.Select(ctx, q, &values, sql, args...); err != nil {
		return nil, fmt.Errorf("scan %s.%s: %w", rc.Table, rc.Column, err)
	}
	return values, nil
}

// ExistsByExactMatch implements core numerator.RecordStore.
func (s *Store) ExistsByExactMatch(ctx context.Context, rc corenumerator.RecordColumn, companyID, value string) (bool, error) {
	sql, args, err := buildExists(rc, companyID, value)
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}
	q, err := s.querier(ctx)
	if err != nil {
		return false, err
	}

	var one int
	err = q.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s.%s: %w", rc.Table, rc.Column, err)
	}
	return true, nil
}

// --- helpers ---

func (s *Store) parameterValue(ctx context.Context, companyID, key string) (string, bool, error) {
	sql, args, err := buildSelectParameter(companyID, key)
	if err != nil {
		return "", false, fmt.Errorf("build select parameter: %w", err)
	}
	q, err := s.querier(ctx)
	if err != nil {
		return "", false, err
	}

	var value string
	err = q.QueryRow(ctx, sql, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select parameter %s: %w", key, err)
	}
	return value, true, nil
}

func counterParameter(key string, value int64) corenumerator.Parameter {
	return corenumerator.Parameter{
		Key:         key,
		Value:       strconv.FormatInt(value, 10),
		Type:        "number",
		Category:    "sequences",
		Description: "Document number counter",
		Editable:    false,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// escapeLike escapes LIKE wildcards so the prefix is matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func buildSelectParameter(companyID, key string) (string, []any, error) {
	return builder().
		Select("parameter_value").
		From(parametersTable).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"parameter_key": key}).
		Limit(1).
		ToSql()
}

// buildUpsertParameter inserts the row; on conflict it either overwrites the value
// or, with onlyIfAbsent, leaves the existing row alone.
func buildUpsertParameter(companyID string, p corenumerator.Parameter, onlyIfAbsent bool) (string, []any, error) {
	suffix := "ON CONFLICT (company_id, parameter_key) DO UPDATE SET parameter_value = EXCLUDED.parameter_value, updated_at = now()"
	if onlyIfAbsent {
		suffix = "ON CONFLICT (company_id, parameter_key) DO NOTHING"
	}
	return builder().
		Insert(parametersTable).
		Columns("company_id", "parameter_key", "parameter_value", "parameter_type",
			"category", "description", "is_system_parameter", "is_editable").
		Values(companyID, p.Key, p.Value, p.Type, p.Category, p.Description, !p.Editable, p.Editable).
		Suffix(suffix).
		ToSql()
}

func buildSwapCounter(companyID, key string, expected, next int64) (string, []any, error) {
	return builder().
		Update(parametersTable).
		Set("parameter_value", strconv.FormatInt(next, 10)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"parameter_key": key}).
		Where(squirrel.Expr(counterValue+" = ?", expected)).
		ToSql()
}

func buildFindByPrefix(rc corenumerator.RecordColumn, companyID, prefix string, limit int) (string, []any, error) {
	col := ident(rc.Column)
	return builder().
		Select(col).
		From(ident(rc.Table)).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Like{col: escapeLike(prefix) + "%"}).
		OrderBy(col + " DESC").
		Limit(uint64(limit)).
		ToSql()
}

func buildExists(rc corenumerator.RecordColumn, companyID, value string) (string, []any, error) {
	return builder().
		Select("1").
		From(ident(rc.Table)).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{ident(rc.Column): value}).
		Limit(1).
		ToSql()
}
