package numerator

import "errors"

var (
	// ErrConflict is returned by SequenceCounter.CompareAndSwapSequence when another writer
	// changed the counter first. Callers reload and retry.
	ErrConflict = errors.New("numerator: concurrent counter update")

	// ErrSequenceOverflow is returned when a sequence does not fit the kind's fixed width.
	ErrSequenceOverflow = errors.New("numerator: sequence out of range")

	// ErrYearOutOfRange is returned when a GİB number is requested for a year outside 0..9999.
	ErrYearOutOfRange = errors.New("numerator: year out of range")

	// ErrMalformedNumber is returned for vendor-reported numbers that fail GİB validation.
	ErrMalformedNumber = errors.New("numerator: malformed invoice number")

	// ErrNumberTaken marks a candidate that already exists; it drives the collision retry.
	ErrNumberTaken = errors.New("numerator: number already taken")
)
