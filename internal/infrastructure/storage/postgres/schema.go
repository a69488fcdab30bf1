package postgres

import (
	"context"
	"fmt"
)

// schemaStatements create the tables owned by this service. The business record
// tables (proposals, sales_invoices, ...) belong to the ERP and are only read.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS system_parameters (
		id                  BIGSERIAL PRIMARY KEY,
		company_id          UUID        NOT NULL,
		parameter_key       TEXT        NOT NULL,
		parameter_value     TEXT        NOT NULL,
		parameter_type      TEXT        NOT NULL DEFAULT 'string',
		category            TEXT        NOT NULL DEFAULT 'general',
		description         TEXT        NOT NULL DEFAULT '',
		is_system_parameter BOOLEAN     NOT NULL DEFAULT FALSE,
		is_editable         BOOLEAN     NOT NULL DEFAULT TRUE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (company_id, parameter_key)
	)`,
	`CREATE TABLE IF NOT EXISTS sys_idempotency (
		company_id            UUID        NOT NULL,
		idempotency_key       TEXT        NOT NULL,
		user_id               TEXT        NOT NULL DEFAULT '',
		operation             TEXT        NOT NULL,
		status                TEXT        NOT NULL,
		request_hash          TEXT        NOT NULL,
		response              BYTEA,
		response_status       INT,
		response_content_type TEXT,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL,
		expires_at            TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (company_id, idempotency_key)
	)`,
	`CREATE INDEX IF NOT EXISTS sys_idempotency_expires_at_idx ON sys_idempotency (expires_at)`,
	`CREATE TABLE IF NOT EXISTS numbering_audit (
		id                 BIGSERIAL PRIMARY KEY,
		company_id         UUID        NOT NULL,
		kind               TEXT        NOT NULL,
		action             TEXT        NOT NULL,
		user_id            TEXT        NOT NULL DEFAULT '',
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT        NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS numbering_audit_company_kind_idx ON numbering_audit (company_id, kind, created_at DESC)`,
}

// EnsureSchema creates the service tables if they do not exist.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
