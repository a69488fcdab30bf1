package postgres

import "context"

// QuerierFromContext returns the transaction opened by a TxManager in ctx, or
// fallback when none is open.
func QuerierFromContext(ctx context.Context, fallback Querier) Querier {
	if t := txFromContext(ctx); t != nil {
		return t.Tx
	}
	return fallback
}
