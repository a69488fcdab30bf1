package numerator

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	corenumerator "belgeno/internal/core/numerator"
)

var gibNumber = regexp.MustCompile(`^[A-Z0-9]{3}[0-9]{13}$`)

// IssuedInvoiceAuthority answers "last issued e-invoice number" from the invoices
// the vendor has already accepted, as recorded in sales_invoices.
//
// Those rows are also scanned for the local floor, so this authority can only
// confirm that floor, never raise it. It stands in for a vendor client of the
// einvoice integrator, which would report numbers issued outside this database.
type IssuedInvoiceAuthority struct {
	store    *Store
	statuses []string
	limit    int
}

// Ensure compile-time interface compliance.
var _ corenumerator.RemoteInvoiceAuthority = (*IssuedInvoiceAuthority)(nil)

// NewIssuedInvoiceAuthority creates an authority backed by the store's database.
func NewIssuedInvoiceAuthority(store *Store) *IssuedInvoiceAuthority {
	return &IssuedInvoiceAuthority{
		store:    store,
		statuses: []string{"sent", "delivered"},
		limit:    100,
	}
}

// LastIssuedNumber implements core numerator.RemoteInvoiceAuthority.
func (a *IssuedInvoiceAuthority) LastIssuedNumber(ctx context.Context, companyID, seriesFormat string) (string, bool, error) {
	series := corenumerator.Series(seriesFormat)

	sql, args, err := buildIssuedNumbers(companyID, series, a.statuses, a.limit)
	if err != nil {
		return "", false, fmt.Errorf("build issued numbers: %w", err)
	}
	q, err := a.store.querier(ctx)
	if err != nil {
		return "", false, err
	}

	var numbers []string
	if err := pgxscan.Select(ctx, q, &numbers, sql, args...); err != nil {
		return "", false, fmt.Errorf("select issued numbers: %w", err)
	}

	best := pickIssued(numbers)
	return best, best != "", nil
}

// pickIssued returns the first well-formed GİB number of a descending list.
func pickIssued(numbers []string) string {
	for _, n := range numbers {
		if gibNumber.MatchString(n) {
			return n
		}
	}
	return ""
}

func buildIssuedNumbers(companyID, series string, statuses []string, limit int) (string, []any, error) {
	return builder().
		Select("fatura_no").
		From("sales_invoices").
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"einvoice_status": statuses}).
		Where(squirrel.Like{"fatura_no": escapeLike(series) + "%"}).
		OrderBy("fatura_no DESC").
		Limit(uint64(limit)).
		ToSql()
}
