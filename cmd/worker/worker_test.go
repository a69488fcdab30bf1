package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"belgeno/pkg/logger"
)

type fakeCleaner struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCleaner) CleanupExpired(context.Context) (int64, error) {
	f.calls.Add(1)
	return 3, f.err
}

func runFor(t *testing.T, w *Worker, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_CleansUpAtStartAndPeriodically(t *testing.T) {
	cleaner := &fakeCleaner{}
	var stats atomic.Int32
	w := NewWorker(cleaner, func(context.Context) { stats.Add(1) }, logger.NewNop())
	w.cleanupEvery = 10 * time.Millisecond
	w.statsEvery = 10 * time.Millisecond

	runFor(t, w, 55*time.Millisecond)

	assert.GreaterOrEqual(t, cleaner.calls.Load(), int32(3))
	assert.Positive(t, stats.Load())
}

func TestWorker_SurvivesCleanupErrors(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("relation does not exist")}
	w := NewWorker(cleaner, nil, logger.NewNop())
	w.cleanupEvery = 10 * time.Millisecond

	runFor(t, w, 35*time.Millisecond)

	assert.GreaterOrEqual(t, cleaner.calls.Load(), int32(2))
}
