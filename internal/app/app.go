// Package app wires the numbering service from configuration.
// Both the HTTP server and the CLI start from here.
package app

import (
	"context"
	"fmt"

	"belgeno/internal/core/numerator"
	"belgeno/internal/core/tx"
	"belgeno/internal/domain/auth"
	"belgeno/internal/domain/numbering"
	"belgeno/internal/infrastructure/einvoice/veriban"
	numstore "belgeno/internal/infrastructure/numerator"
	"belgeno/internal/infrastructure/storage/postgres"
	"belgeno/pkg/config"
	"belgeno/pkg/logger"
)

// App holds the long-lived components.
type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Store     *numstore.Store
	Numbering *numbering.Service
	JWT       *auth.JWTService
}

// New connects to the database and builds the numbering service.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	if cfg.DB.MaxConns > 0 {
		poolCfg.MaxConns = cfg.DB.MaxConns
	}
	if cfg.DB.MinConns >= 0 {
		poolCfg.MinConns = cfg.DB.MinConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// Outside a transaction opened by txm the stores query the pool.
	txm := postgres.NewTxManager(pool)
	store := numstore.New(pool)
	audit, err := postgres.NewAuditStore(pool, postgres.DefaultCompressAbove)
	if err != nil {
		pool.Close()
		return nil, err
	}

	jwtCfg := auth.DefaultJWTConfig(cfg.JWT.Secret)
	if cfg.JWT.Issuer != "" {
		jwtCfg.Issuer = cfg.JWT.Issuer
	}
	if cfg.JWT.TTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.JWT.TTL
	}

	return &App{
		Config:    cfg,
		Log:       log,
		Pool:      pool,
		TxManager: txm,
		Store:     store,
		Numbering: NewNumbering(cfg, store, audit, txm, log),
		JWT:       auth.NewJWTService(jwtCfg),
	}, nil
}

// NewNumbering builds the service with the e-invoice authorities enabled by cfg.
// Format saves and counter resets run in a transaction of txm and are recorded in audit.
//
// einvoice is cross-checked against the invoices already accepted by the vendor
// (sales_invoices ledger); this never raises the locally scanned floor. veriban_invoice and earchive_invoice ask Veriban
// directly when an account is configured.
func NewNumbering(cfg *config.Config, store *numstore.Store, audit numerator.AuditLog, txm tx.Manager, log *logger.Logger) *numbering.Service {
	opts := []numbering.Option{
		numbering.WithConfig(cfg.Numbering.Numerator()),
		numbering.WithAuditLog(audit),
		numbering.WithTransactions(txm),
		numbering.WithAuthority(numerator.KindEInvoice, numstore.NewIssuedInvoiceAuthority(store)),
	}

	if cfg.Veriban.Enabled() {
		creds := veriban.StaticCredentials{Username: cfg.Veriban.Username, Password: cfg.Veriban.Password}
		base := veriban.DefaultConfig(cfg.Veriban.URL)
		base.Timeout = cfg.Veriban.Timeout
		base.RequestsPerSecond = cfg.Veriban.Rate
		base.Burst = cfg.Veriban.Burst

		invoices := base
		invoices.Profile = cfg.Veriban.Profile
		archive := base
		archive.Profile = cfg.Veriban.ArchiveProfile

		opts = append(opts,
			numbering.WithAuthority(numerator.KindVeribanInvoice, veriban.New(invoices, creds)),
			numbering.WithAuthority(numerator.KindEArchiveInvoice, veriban.New(archive, creds)),
		)
		log.Infow("veriban authority enabled", "url", cfg.Veriban.URL)
	} else {
		log.Infow("veriban authority disabled, VERIBAN_URL or VERIBAN_USERNAME not set")
	}

	return numbering.NewService(store, opts...)
}

// EnsureSchema creates the service tables.
func (a *App) EnsureSchema(ctx context.Context) error {
	return postgres.EnsureSchema(ctx, a.Pool)
}

// Close releases the database pool.
func (a *App) Close() {
	a.Pool.Close()
}
