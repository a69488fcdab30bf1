package postgres

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"belgeno/internal/core/tx"
	"belgeno/pkg/logger"
)

var tracer = otel.Tracer("belgeno/tx")

// Ensure compile-time interface compliance.
var _ tx.Manager = (*TxManager)(nil)

// defaultStatementTimeout bounds every statement of a numbering transaction.
const defaultStatementTimeout = 30 * time.Second

// Querier is the subset of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager opens read-committed transactions on the pool and places them in
// the context, where QuerierFromContext finds them. Format saves and counter
// resets run through it together with their audit entries.
type TxManager struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
	savepoints       atomic.Uint64
}

// NewTxManager creates a transaction manager on pool.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool, statementTimeout: defaultStatementTimeout}
}

// txKey is the context key of the open transaction.
type txKey struct{}

// Tx is the transaction stored in context.
type Tx struct {
	pgx.Tx
}

// withTx returns ctx carrying t.
func withTx(ctx context.Context, t pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, &Tx{Tx: t})
}

// txFromContext returns the open transaction, or nil.
func txFromContext(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok && t != nil && t.Tx != nil {
		return t
	}
	return nil
}

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.isolation", string(pgx.ReadCommitted))))
	defer span.End()

	t, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("begin transaction: %w", err)
	}

	if m.statementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", m.statementTimeout.Milliseconds())
		if _, err := t.Exec(ctx, stmt); err != nil {
			m.rollback(ctx, t, err)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(withTx(ctx, t)); err != nil {
		m.rollback(ctx, t, err)
		return err
	}

	if err := t.Commit(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Savepoint implements tx.Manager. Without an open transaction fn runs in a new one.
func (m *TxManager) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	open := txFromContext(ctx)
	if open == nil {
		return m.RunInTransaction(ctx, fn)
	}

	name := fmt.Sprintf("sp_%d", m.savepoints.Add(1))
	if _, err := open.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := open.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.Error(ctx, "rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		return err
	}

	if _, err := open.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// rollback aborts t on a context that survives cancellation of the request.
func (m *TxManager) rollback(ctx context.Context, t pgx.Tx, cause error) {
	if err := t.Rollback(context.WithoutCancel(ctx)); err != nil {
		logger.Error(ctx, "rollback failed", "error", err, "original_error", cause)
	}
}

// GetQuerier returns the open transaction, or the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	return QuerierFromContext(ctx, m.pool)
}
