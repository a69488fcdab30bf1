// Package tx defines the transaction contract the numbering service depends on.
// The PostgreSQL implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs work inside a database transaction.
type Manager interface {
	// RunInTransaction executes fn within a transaction carried by the context
	// passed to fn. It commits when fn returns nil and rolls back otherwise.
	// A call made while a transaction is already open joins it.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Savepoint executes fn behind a savepoint of the open transaction. A failure
	// in fn is rolled back to the savepoint and the outer transaction stays usable.
	Savepoint(ctx context.Context, fn func(ctx context.Context) error) error
}
