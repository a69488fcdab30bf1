package numbering

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"belgeno/internal/core/apperror"
	"belgeno/internal/core/numerator"
	"belgeno/pkg/logger"
)

// fallbackModulus bounds the timestamp-derived sequence used when the counter is unavailable.
const fallbackModulus = 10000

func (s *Service) counterPolicy() numerator.RetryPolicy {
	return numerator.RetryPolicy{
		MaxAttempts: s.cfg.CounterRetries,
		BaseDelay:   s.cfg.CounterBackoff,
	}
}

// NextSequence increments the company's counter for kind and returns the new value.
//
// Lost compare-and-swap races are retried. When the counter stays unavailable the
// result degrades to the current time in milliseconds modulo 10000: such a value
// may collide with numbers already issued, and callers rely on the existence check
// to catch that.
func (s *Service) NextSequence(ctx context.Context, kind numerator.DocumentKind, companyID string) int64 {
	if companyID == "" {
		logger.Warn(ctx, "sequence requested without company, returning 1", "kind", kind)
		return 1
	}

	key := kind.SequenceKey()
	var next int64

	err := numerator.Retry(ctx, s.counterPolicy(), s.sleep, func(ctx context.Context, attempt int) error {
		current, found, err := s.store.LoadSequence(ctx, companyID, key)
		if err != nil {
			return err
		}
		next = current + 1

		err = s.store.CompareAndSwapSequence(ctx, companyID, key, current, found, next)
		if errors.Is(err, numerator.ErrConflict) {
			logger.Debug(ctx, "sequence counter changed concurrently, retrying",
				"kind", kind, "attempt", attempt)
			return numerator.Again(err)
		}
		return err
	})
	if err != nil {
		fallback := s.now().UnixMilli() % fallbackModulus
		logger.Warn(ctx, "sequence counter unavailable, using timestamp fallback",
			"kind", kind, "fallback", fallback, "error", err)
		return fallback
	}

	return next
}

// CurrentSequence returns the counter value of kind; 0 when it was never used.
func (s *Service) CurrentSequence(ctx context.Context, kind numerator.DocumentKind, companyID string) (int64, error) {
	if companyID == "" {
		return 0, apperror.NewValidation("company is required")
	}
	value, _, err := s.store.LoadSequence(ctx, companyID, kind.SequenceKey())
	if err != nil {
		return 0, apperror.NewDatabase(fmt.Errorf("load sequence: %w", err))
	}
	return value, nil
}

// ResetSequence overwrites the counter of kind with startValue.
func (s *Service) ResetSequence(ctx context.Context, kind numerator.DocumentKind, companyID string, startValue int64) error {
	if companyID == "" {
		return apperror.NewValidation("company is required")
	}
	if startValue < 0 {
		return apperror.NewValidation("start value must not be negative").WithDetail("start_value", startValue)
	}

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		previous := s.previousSequence(ctx, kind, companyID)
		if err := s.store.StoreSequence(ctx, companyID, kind.SequenceKey(), startValue); err != nil {
			return err
		}
		s.record(ctx, companyID, kind, numerator.AuditSequenceReset, previous, strconv.FormatInt(startValue, 10))
		return nil
	})
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("reset sequence: %w", err))
	}

	logger.Info(ctx, "sequence reset", "kind", kind, "start_value", startValue)
	return nil
}

// advanceCounter raises the counter to issued. It never lowers the counter and
// failures are only logged: the number has already been found free.
func (s *Service) advanceCounter(ctx context.Context, kind numerator.DocumentKind, companyID string, issued int64) {
	key := kind.SequenceKey()

	err := numerator.Retry(ctx, s.counterPolicy(), s.sleep, func(ctx context.Context, attempt int) error {
		current, found, err := s.store.LoadSequence(ctx, companyID, key)
		if err != nil {
			return err
		}
		if found && current >= issued {
			return nil
		}

		err = s.store.CompareAndSwapSequence(ctx, companyID, key, current, found, issued)
		if errors.Is(err, numerator.ErrConflict) {
			return numerator.Again(err)
		}
		return err
	})
	if err != nil {
		logger.Warn(ctx, "failed to advance sequence counter",
			"kind", kind, "issued", issued, "error", err)
	}
}
