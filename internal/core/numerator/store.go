package numerator

import "context"

// Parameter is a per-company configuration row.
type Parameter struct {
	Key         string
	Value       string
	Type        string
	Category    string
	Description string
	Editable    bool
}

// FormatStore reads and writes configured format strings.
type FormatStore interface {
	// FormatValue returns the stored value for key. found is false when the company has no row.
	FormatValue(ctx context.Context, companyID, key string) (value string, found bool, err error)

	// SaveFormatValue inserts or overwrites the row identified by (companyID, p.Key).
	SaveFormatValue(ctx context.Context, companyID string, p Parameter) error
}

// SequenceCounter persists the per-company counter of each kind.
// All writes except StoreSequence are compare-and-swap.
type SequenceCounter interface {
	// LoadSequence returns the counter value. found is false when no counter exists yet.
	LoadSequence(ctx context.Context, companyID, key string) (value int64, found bool, err error)

	// CompareAndSwapSequence writes next only if the counter still holds expected
	// (or, when existed is false, only if no counter exists). It returns ErrConflict
	// when the precondition no longer holds.
	CompareAndSwapSequence(ctx context.Context, companyID, key string, expected int64, existed bool, next int64) error

	// StoreSequence overwrites the counter unconditionally.
	StoreSequence(ctx context.Context, companyID, key string, value int64) error
}

// RecordStore looks up numbers that were already persisted on business records.
//
// Callers treat lookup errors as "not found" (fail-open): a store outage may then
// produce a number that collides with an existing record. The record tables' own
// unique constraints are the last line of defence.
type RecordStore interface {
	// FindByPrefix returns up to limit values starting with prefix, highest first.
	FindByPrefix(ctx context.Context, rc RecordColumn, companyID, prefix string, limit int) ([]string, error)

	// ExistsByExactMatch reports whether value is already used by a record of the company.
	ExistsByExactMatch(ctx context.Context, rc RecordColumn, companyID, value string) (bool, error)
}

// DataStore is everything the generator needs from persistence.
type DataStore interface {
	FormatStore
	SequenceCounter
	RecordStore
}

// RemoteInvoiceAuthority reports the last number an e-invoice vendor issued for a series.
type RemoteInvoiceAuthority interface {
	// LastIssuedNumber returns the highest known number for the series derived from seriesFormat.
	// found is false when the vendor has no numbers for it.
	LastIssuedNumber(ctx context.Context, companyID, seriesFormat string) (number string, found bool, err error)
}

// Authorities maps vendor-governed kinds to the authority consulted for them.
type Authorities map[DocumentKind]RemoteInvoiceAuthority
