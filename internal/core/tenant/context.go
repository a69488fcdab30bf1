// Package tenant carries the company scope of a request.
// Every numbering operation is scoped to exactly one company.
package tenant

import (
	"context"
	"errors"
)

type ctxKey int

const companyKey ctxKey = iota

// ErrNoCompanyInContext is returned when a request carries no company scope.
var ErrNoCompanyInContext = errors.New("company not found in context")

// WithCompanyID stores the company scope in context.
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyKey, companyID)
}

// GetCompanyID returns the company ID or empty string.
func GetCompanyID(ctx context.Context) string {
	id, _ := ctx.Value(companyKey).(string)
	return id
}

// RequireCompanyID returns the company ID or ErrNoCompanyInContext.
func RequireCompanyID(ctx context.Context) (string, error) {
	if id := GetCompanyID(ctx); id != "" {
		return id, nil
	}
	return "", ErrNoCompanyInContext
}
