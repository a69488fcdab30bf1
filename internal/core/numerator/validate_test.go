package numerator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		valid     bool
		errSubstr []string
	}{
		{name: "default proposal", format: "TKF-{YYYY}-{0001}", valid: true},
		{name: "all tokens", format: "{YYYY}{YY}{MM}{DD}_{000000001}.{001}-{01}", valid: true},
		{name: "sequence only", format: "{01}", valid: true},
		{
			name:      "empty",
			format:    "",
			errSubstr: []string{"must not be empty", "sequence token"},
		},
		{
			name:      "missing sequence",
			format:    "TKF-{YYYY}",
			errSubstr: []string{"sequence token"},
		},
		{
			name:      "unknown token",
			format:    "TKF-{YYYY}-{BAD}",
			errSubstr: []string{"{BAD}"},
		},
		{
			name:      "sequence inside unknown token",
			format:    "TKF-{{0001}",
			errSubstr: []string{"invalid token {{0001}", "sequence token"},
		},
		{
			name:      "whitespace",
			format:    "TKF {0001}",
			errSubstr: []string{"invalid characters", `" "`},
		},
		{
			name:      "slash",
			format:    "INV/{0001}",
			errSubstr: []string{"invalid characters", `"/"`},
		},
		{
			name:      "too long",
			format:    strings.Repeat("A", 97) + "{01}",
			errSubstr: []string{"too long"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateFormat(tt.format)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Empty(t, res.Errors)
				return
			}
			for _, s := range tt.errSubstr {
				assert.True(t, containsError(res.Errors, s), "expected an error mentioning %q, got %v", s, res.Errors)
			}
		})
	}
}

func TestValidateFormat_Accumulates(t *testing.T) {
	res := ValidateFormat("A B/{XX}")

	assert.False(t, res.Valid)
	// invalid characters, unknown token and missing sequence are reported together
	assert.Len(t, res.Errors, 3)
}

func TestValidateFormat_ExactLimit(t *testing.T) {
	res := ValidateFormat(strings.Repeat("A", 96) + "{01}")
	assert.True(t, res.Valid, res.Errors)
}

func TestDocumentKind_ValidateFormat(t *testing.T) {
	assert.True(t, KindEInvoice.ValidateFormat("FAT").Valid)
	assert.True(t, KindEArchiveInvoice.ValidateFormat("FAT-{YYYY}-{0001}").Valid)
	assert.False(t, KindEInvoice.ValidateFormat("FATURA").Valid)
	assert.False(t, KindProposal.ValidateFormat("FAT").Valid)
}

func TestSanitizeFormat(t *testing.T) {
	assert.Equal(t, "TKF-{YYYY}-{0001}", SanitizeFormat("  tkf - {yyyy} -\t{0001} \n"))
	assert.Equal(t, "", SanitizeFormat("   "))
	assert.Equal(t, "FAT", SanitizeFormat("fat"))
}
