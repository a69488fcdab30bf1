// Package main is the entry point for the numbering API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"belgeno/internal/app"
	v1 "belgeno/internal/infrastructure/http/v1"
	"belgeno/internal/infrastructure/storage/postgres"
	"belgeno/pkg/config"
	"belgeno/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := context.Background()
	log.Infow("starting belgeno server", "env", cfg.App.Env, "version", cfg.App.Version)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize", "error", err)
	}
	defer a.Close()
	log.Info("database connection established")

	if err := a.EnsureSchema(ctx); err != nil {
		log.Fatalw("failed to prepare schema", "error", err)
	}

	routerCfg := v1.RouterConfig{
		DB:           a.Pool,
		Logger:       log,
		JWTValidator: a.JWT,
		Numbering:    a.Numbering,
		Version:      cfg.App.Version,
	}
	// Left nil when disabled; a typed nil would switch the middleware on.
	if cfg.Idempotency.Enabled {
		routerCfg.Idempotency = postgres.NewIdempotencyStore(a.TxManager, cfg.Idempotency.TTL)
		log.Infow("idempotency enabled", "ttl", cfg.Idempotency.TTL)
	}

	server := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      v1.NewRouter(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Remote reconciliation can take a while; give requests 30 seconds.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
