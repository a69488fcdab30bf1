// Package id provides UUID helpers for request and company identifiers.
package id

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNilID is returned for the all-zero UUID.
var ErrNilID = errors.New("nil uuid")

// ID is a type alias for UUID.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}

// ParseCompanyID validates a company identifier and returns its canonical form.
func ParseCompanyID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	if IsNil(u) {
		return "", ErrNilID
	}
	return u.String(), nil
}
