package main

import (
	"context"
	"time"

	"belgeno/pkg/logger"
)

// ExpiredKeyCleaner deletes idempotency keys past their TTL.
type ExpiredKeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Worker runs periodic maintenance.
type Worker struct {
	cleaner      ExpiredKeyCleaner
	stats        func(ctx context.Context)
	log          *logger.Logger
	cleanupEvery time.Duration
	statsEvery   time.Duration
}

// NewWorker creates a worker with hourly cleanup and pool stats every five minutes.
func NewWorker(cleaner ExpiredKeyCleaner, stats func(ctx context.Context), log *logger.Logger) *Worker {
	return &Worker{
		cleaner:      cleaner,
		stats:        stats,
		log:          log.WithComponent("worker"),
		cleanupEvery: time.Hour,
		statsEvery:   5 * time.Minute,
	}
}

// Run blocks until ctx is cancelled. Cleanup also runs once at start.
func (w *Worker) Run(ctx context.Context) {
	cleanupTicker := time.NewTicker(w.cleanupEvery)
	defer cleanupTicker.Stop()

	statsTicker := time.NewTicker(w.statsEvery)
	defer statsTicker.Stop()

	w.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		case <-statsTicker.C:
			if w.stats != nil {
				w.stats(ctx)
			}
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	n, err := w.cleaner.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("idempotency cleanup failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
