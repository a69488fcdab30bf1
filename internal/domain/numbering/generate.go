package numbering

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"belgeno/internal/core/apperror"
	"belgeno/internal/core/numerator"
	"belgeno/pkg/logger"
)

func (s *Service) collisionPolicy() numerator.RetryPolicy {
	return numerator.RetryPolicy{
		MaxAttempts: s.cfg.MaxAttempts,
		BaseDelay:   s.cfg.CollisionDelay,
		Every:       s.cfg.CollisionDelayEvery,
	}
}

// GetNextNumber returns the first free number of kind for the company.
//
// The only error for store or vendor trouble is NUMBER_EXHAUSTED, returned when every
// candidate within the attempt budget is taken; the caller may retry the whole call.
func (s *Service) GetNextNumber(ctx context.Context, kind numerator.DocumentKind, companyID string, opts *numerator.Options) (string, error) {
	if opts == nil {
		opts = numerator.DefaultOptions()
	}
	date := opts.Date
	if date.IsZero() {
		date = s.now()
	}

	ctx, span := tracer.Start(ctx, "numbering.GetNextNumber", trace.WithAttributes(
		attribute.String("numbering.kind", kind.String()),
		attribute.Bool("numbering.check_remote", opts.CheckRemote),
	))
	defer span.End()

	format := s.GetNumberFormat(ctx, kind, companyID)

	floor := s.scanMax(ctx, kind, format, companyID, date)
	if opts.CheckRemote && kind.RemoteReconcilable() {
		floor = s.reconcileRemote(ctx, kind, format, companyID, date, floor)
	}

	seq := floor + 1
	var number string

	err := numerator.Retry(ctx, s.collisionPolicy(), s.sleep, func(ctx context.Context, attempt int) error {
		candidate, err := kind.Render(format, seq, date)
		if err != nil {
			return err
		}
		if !s.exists(ctx, kind, companyID, candidate) {
			number = candidate
			return nil
		}
		logger.Debug(ctx, "number already taken", "kind", kind, "number", candidate, "attempt", attempt)
		seq++
		return numerator.Again(numerator.ErrNumberTaken)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "number generation failed")

		switch {
		case errors.Is(err, numerator.ErrRetryExhausted):
			logger.Error(ctx, "no free document number found",
				"kind", kind, "format", format, "floor", floor, "attempts", s.cfg.MaxAttempts)
			return "", apperror.NewNumberExhausted(kind.String(), s.cfg.MaxAttempts).WithCause(err)
		case errors.Is(err, numerator.ErrSequenceOverflow):
			return "", apperror.NewValidation("sequence does not fit the number format").
				WithDetail("kind", kind.String()).
				WithCause(err)
		case errors.Is(err, numerator.ErrYearOutOfRange):
			return "", apperror.NewValidation("date does not fit the number format").
				WithDetail("kind", kind.String()).
				WithDetail("date", date.Format(time.DateOnly)).
				WithCause(err)
		default:
			return "", err
		}
	}

	s.advanceCounter(ctx, kind, companyID, seq)

	span.SetAttributes(attribute.String("numbering.number", number))
	logger.Info(ctx, "document number issued", "kind", kind, "number", number)
	return number, nil
}

// scanMax returns the highest sequence among persisted numbers sharing the format's
// prefix on date. Store failures yield 0.
func (s *Service) scanMax(ctx context.Context, kind numerator.DocumentKind, format, companyID string, date time.Time) int64 {
	rc, ok := kind.Records()
	if !ok || companyID == "" {
		return 0
	}

	prefix := kind.Prefix(format, date)
	values, err := s.store.FindByPrefix(ctx, rc, companyID, prefix, s.cfg.ScanLimit)
	if err != nil {
		logger.Warn(ctx, "max number scan failed, starting from 0",
			"kind", kind, "prefix", prefix, "error", err)
		return 0
	}

	var max int64
	for _, v := range values {
		if n, ok := kind.ParseSequence(v, prefix); ok && n > max {
			max = n
		}
	}
	return max
}

// exists reports whether number is already used. Lookup failures count as "free".
func (s *Service) exists(ctx context.Context, kind numerator.DocumentKind, companyID, number string) bool {
	rc, ok := kind.Records()
	if !ok || companyID == "" {
		return false
	}

	found, err := s.store.ExistsByExactMatch(ctx, rc, companyID, number)
	if err != nil {
		logger.Warn(ctx, "number existence check failed, treating as free",
			"kind", kind, "number", number, "error", err)
		return false
	}
	return found
}

// reconcileRemote raises floor to the vendor's last issued sequence. Any problem
// with the vendor leaves floor unchanged.
func (s *Service) reconcileRemote(ctx context.Context, kind numerator.DocumentKind, format, companyID string, date time.Time, floor int64) int64 {
	authority, ok := s.authorities[kind]
	if !ok || authority == nil {
		logger.Warn(ctx, "no e-invoice authority configured", "kind", kind)
		return floor
	}

	number, found, err := authority.LastIssuedNumber(ctx, companyID, format)
	if err != nil {
		logger.Warn(ctx, "e-invoice authority unavailable", "kind", kind, "error", err)
		return floor
	}
	if !found {
		return floor
	}

	seq, err := kind.ValidateIssuedNumber(number, format, date)
	if err != nil {
		logger.Warn(ctx, "ignoring e-invoice number reported by vendor",
			"kind", kind, "number", number, "error", err)
		return floor
	}

	if seq > floor {
		logger.Info(ctx, "e-invoice vendor raised number floor",
			"kind", kind, "local", floor, "remote", seq)
		return seq
	}
	return floor
}
