package numerator

import "context"

// MockDataStore is a test implementation of DataStore.
// Unset functions behave like an empty store.
type MockDataStore struct {
	FormatValueFunc            func(ctx context.Context, companyID, key string) (string, bool, error)
	SaveFormatValueFunc        func(ctx context.Context, companyID string, p Parameter) error
	LoadSequenceFunc           func(ctx context.Context, companyID, key string) (int64, bool, error)
	CompareAndSwapSequenceFunc func(ctx context.Context, companyID, key string, expected int64, existed bool, next int64) error
	StoreSequenceFunc          func(ctx context.Context, companyID, key string, value int64) error
	FindByPrefixFunc           func(ctx context.Context, rc RecordColumn, companyID, prefix string, limit int) ([]string, error)
	ExistsByExactMatchFunc     func(ctx context.Context, rc RecordColumn, companyID, value string) (bool, error)
}

// FormatValue implements FormatStore.
func (m *MockDataStore) FormatValue(ctx context.Context, companyID, key string) (string, bool, error) {
	if m.FormatValueFunc != nil {
		return m.FormatValueFunc(ctx, companyID, key)
	}
	return "", false, nil
}

// SaveFormatValue implements FormatStore.
func (m *MockDataStore) SaveFormatValue(ctx context.Context, companyID string, p Parameter) error {
	if m.SaveFormatValueFunc != nil {
		return m.SaveFormatValueFunc(ctx, companyID, p)
	}
	return nil
}

// LoadSequence implements SequenceCounter.
func (m *MockDataStore) LoadSequence(ctx context.Context, companyID, key string) (int64, bool, error) {
	if m.LoadSequenceFunc != nil {
		return m.LoadSequenceFunc(ctx, companyID, key)
	}
	return 0, false, nil
}

// CompareAndSwapSequence implements SequenceCounter.
func (m *MockDataStore) CompareAndSwapSequence(ctx context.Context, companyID, key string, expected int64, existed bool, next int64) error {
	if m.CompareAndSwapSequenceFunc != nil {
		return m.CompareAndSwapSequenceFunc(ctx, companyID, key, expected, existed, next)
	}
	return nil
}

// StoreSequence implements SequenceCounter.
func (m *MockDataStore) StoreSequence(ctx context.Context, companyID, key string, value int64) error {
	if m.StoreSequenceFunc != nil {
		return m.StoreSequenceFunc(ctx, companyID, key, value)
	}
	return nil
}

// FindByPrefix implements RecordStore.
func (m *MockDataStore) FindByPrefix(ctx context.Context, rc RecordColumn, companyID, prefix string, limit int) ([]string, error) {
	if m.FindByPrefixFunc != nil {
		return m.FindByPrefixFunc(ctx, rc, companyID, prefix, limit)
	}
	return nil, nil
}

// ExistsByExactMatch implements RecordStore.
func (m *MockDataStore) ExistsByExactMatch(ctx context.Context, rc RecordColumn, companyID, value string) (bool, error) {
	if m.ExistsByExactMatchFunc != nil {
		return m.ExistsByExactMatchFunc(ctx, rc, companyID, value)
	}
	return false, nil
}

// MockAuthority is a test implementation of RemoteInvoiceAuthority.
type MockAuthority struct {
	LastIssuedNumberFunc func(ctx context.Context, companyID, seriesFormat string) (string, bool, error)
}

// LastIssuedNumber implements RemoteInvoiceAuthority.
func (m *MockAuthority) LastIssuedNumber(ctx context.Context, companyID, seriesFormat string) (string, bool, error) {
	if m.LastIssuedNumberFunc != nil {
		return m.LastIssuedNumberFunc(ctx, companyID, seriesFormat)
	}
	return "", false, nil
}

// MockAuditLog is a test implementation of AuditLog.
type MockAuditLog struct {
	RecordFunc  func(ctx context.Context, entry AuditEntry) error
	HistoryFunc func(ctx context.Context, companyID string, kind DocumentKind, limit int) ([]AuditEntry, error)
}

// Record implements AuditLog.
func (m *MockAuditLog) Record(ctx context.Context, entry AuditEntry) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, entry)
	}
	return nil
}

// History implements AuditLog.
func (m *MockAuditLog) History(ctx context.Context, companyID string, kind DocumentKind, limit int) ([]AuditEntry, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, companyID, kind, limit)
	}
	return nil, nil
}

// Ensure compile-time interface compliance.
var (
	_ DataStore              = (*MockDataStore)(nil)
	_ RemoteInvoiceAuthority = (*MockAuthority)(nil)
	_ AuditLog               = (*MockAuditLog)(nil)
)
