package numerator

import "strings"

// DocumentKind identifies a category of numbered record.
type DocumentKind string

const (
	KindProposal        DocumentKind = "proposal"
	KindInvoice         DocumentKind = "invoice"
	KindEInvoice        DocumentKind = "einvoice"
	KindVeribanInvoice  DocumentKind = "veriban_invoice"
	KindEArchiveInvoice DocumentKind = "earchive_invoice"
	KindService         DocumentKind = "service"
	KindOrder           DocumentKind = "order"
	KindCustomer        DocumentKind = "customer"
	KindSupplier        DocumentKind = "supplier"
)

// Scheme selects how a format string is turned into a number.
type Scheme int

const (
	// SchemeGeneric substitutes date and sequence tokens in place.
	SchemeGeneric Scheme = iota
	// SchemeGIB produces the 16-character e-fatura layout: SERIES(3) + YYYY + 9-digit sequence.
	SchemeGIB
)

func (s Scheme) String() string {
	if s == SchemeGIB {
		return "gib"
	}
	return "generic"
}

// RecordColumn points at the table and column holding persisted numbers of a kind.
type RecordColumn struct {
	Table  string
	Column string
}

type kindInfo struct {
	defaultFormat string
	scheme        Scheme
	records       RecordColumn
	remote        bool
}

// FallbackFormat is used for kinds without a registered default.
const FallbackFormat = "{YYYY}-{0001}"

var kinds = map[DocumentKind]kindInfo{
	KindProposal: {
		defaultFormat: "TKF-{YYYY}-{0001}",
		records:       RecordColumn{Table: "proposals", Column: "number"},
	},
	KindInvoice: {
		defaultFormat: "FAT-{YYYY}-{0001}",
		scheme:        SchemeGIB,
		records:       RecordColumn{Table: "sales_invoices", Column: "fatura_no"},
	},
	KindEInvoice: {
		defaultFormat: "FAT",
		scheme:        SchemeGIB,
		records:       RecordColumn{Table: "sales_invoices", Column: "fatura_no"},
		remote:        true,
	},
	KindVeribanInvoice: {
		defaultFormat: "FAT",
		scheme:        SchemeGIB,
		records:       RecordColumn{Table: "sales_invoices", Column: "fatura_no"},
		remote:        true,
	},
	KindEArchiveInvoice: {
		defaultFormat: "EAR",
		scheme:        SchemeGIB,
		records:       RecordColumn{Table: "sales_invoices", Column: "fatura_no"},
		remote:        true,
	},
	KindService: {
		defaultFormat: "SRV-{YYYY}-{0001}",
		records:       RecordColumn{Table: "service_requests", Column: "service_number"},
	},
	KindOrder: {
		defaultFormat: "SIP-{YYYY}-{0001}",
		records:       RecordColumn{Table: "orders", Column: "order_number"},
	},
	KindCustomer: {
		defaultFormat: "MUS-{0001}",
		records:       RecordColumn{Table: "customers", Column: "number"},
	},
	KindSupplier: {
		defaultFormat: "TED-{0001}",
		records:       RecordColumn{Table: "suppliers", Column: "number"},
	},
}

// Kinds returns all registered document kinds in a stable order.
func Kinds() []DocumentKind {
	return []DocumentKind{
		KindProposal,
		KindInvoice,
		KindEInvoice,
		KindVeribanInvoice,
		KindEArchiveInvoice,
		KindService,
		KindOrder,
		KindCustomer,
		KindSupplier,
	}
}

// ParseDocumentKind accepts a kind name ("proposal") or its format key
// ("proposal_number_format").
func ParseDocumentKind(s string) (DocumentKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, formatKeySuffix)
	k := DocumentKind(s)
	_, ok := kinds[k]
	return k, ok
}

const (
	formatKeySuffix   = "_number_format"
	sequenceKeySuffix = "_sequence"
)

func (k DocumentKind) String() string { return string(k) }

// Valid reports whether the kind is registered.
func (k DocumentKind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// FormatKey is the configuration key holding the company's format for this kind.
func (k DocumentKind) FormatKey() string { return string(k) + formatKeySuffix }

// SequenceKey is the configuration key holding the company's counter for this kind.
func (k DocumentKind) SequenceKey() string { return string(k) + sequenceKeySuffix }

// DefaultFormat returns the built-in format used when a company has none configured.
func (k DocumentKind) DefaultFormat() string {
	if info, ok := kinds[k]; ok {
		return info.defaultFormat
	}
	return FallbackFormat
}

// Scheme returns the rendering scheme of the kind.
func (k DocumentKind) Scheme() Scheme {
	return kinds[k].scheme
}

// Records returns where persisted numbers of this kind live.
// ok is false for kinds without a mapping; existence checks and scans are skipped for them.
func (k DocumentKind) Records() (RecordColumn, bool) {
	info, ok := kinds[k]
	if !ok || info.records.Table == "" {
		return RecordColumn{}, false
	}
	return info.records, true
}

// RemoteReconcilable reports whether numbers of this kind are also issued by an e-invoice vendor.
func (k DocumentKind) RemoteReconcilable() bool {
	return kinds[k].remote
}
