package numerator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestRenderGeneric(t *testing.T) {
	tests := []struct {
		name   string
		format string
		seq    int64
		date   time.Time
		want   string
	}{
		{"proposal default", "TKF-{YYYY}-{0001}", 7, date(2025, 3, 14), "TKF-2025-0007"},
		{"short year and month", "SIP{YY}{MM}-{001}", 12, date(2025, 3, 14), "SIP2503-012"},
		{"day token", "{YYYY}{MM}{DD}-{01}", 5, date(2024, 12, 1), "20241201-05"},
		{"nine digit sequence", "X-{000000001}", 42, date(2025, 1, 1), "X-000000042"},
		{"sequence wider than token", "MUS-{01}", 1234, date(2025, 1, 1), "MUS-1234"},
		{"no tokens", "STATIC", 3, date(2025, 1, 1), "STATIC"},
		{"unknown token preserved", "A-{XYZ}-{0001}", 1, date(2025, 1, 1), "A-{XYZ}-0001"},
		{"every sequence token substituted", "{0001}-{01}", 7, date(2025, 1, 1), "0007-07"},
		{"repeated token substituted", "{YY}-{YY}-{01}", 3, date(2025, 1, 1), "25-25-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderGeneric(tt.format, tt.seq, tt.date))
		})
	}
}

func TestRender_GIB(t *testing.T) {
	got, err := KindEInvoice.Render("FAT", 42, date(2025, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "FAT2025000000042", got)
	assert.Len(t, got, GIBLength)

	got, err = KindInvoice.Render("FAT-{YYYY}-{0001}", 7, date(2025, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, "FAT2025000000007", got)

	got, err = KindEArchiveInvoice.Render("EAR", 1, date(2026, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "EAR2026000000001", got)
}

func TestRender_GIBFixedWidth(t *testing.T) {
	seqs := []int64{0, 1, 9, 10, 42, 99_999, 123_456_789, GIBMaxSequence}
	formats := []string{"FAT", "ear", "FAT-{YYYY}-{0001}", "{YYYY}-{0001}", "TOOLONG", ""}
	dates := []time.Time{date(2000, 1, 1), date(2025, 3, 14), date(2099, 12, 31)}

	for _, f := range formats {
		for _, s := range seqs {
			for _, d := range dates {
				got, err := KindVeribanInvoice.Render(f, s, d)
				require.NoError(t, err)
				assert.Len(t, got, GIBLength, "format %q seq %d", f, s)
			}
		}
	}
}

func TestRender_GIBOverflow(t *testing.T) {
	_, err := KindInvoice.Render("FAT", GIBMaxSequence+1, date(2025, 1, 1))
	assert.True(t, errors.Is(err, ErrSequenceOverflow))

	_, err = KindInvoice.Render("FAT", -1, date(2025, 1, 1))
	assert.True(t, errors.Is(err, ErrSequenceOverflow))
}

func TestRender_GIBYearOutOfRange(t *testing.T) {
	got, err := KindInvoice.Render("FAT", 1, date(9999, 12, 31))
	require.NoError(t, err)
	assert.Len(t, got, GIBLength)

	_, err = KindInvoice.Render("FAT", 1, date(10000, 1, 1))
	assert.ErrorIs(t, err, ErrYearOutOfRange)

	// Generic kinds have no fixed width.
	got, err = KindProposal.Render("TKF-{YYYY}-{0001}", 1, date(10000, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "TKF-10000-0001", got)
}

func TestRender_GenericNeverFails(t *testing.T) {
	got, err := KindProposal.Render("TKF-{0001}", GIBMaxSequence+1, date(2025, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "TKF-1000000000", got)
}

func TestSeries(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"FAT", "FAT"},
		{"ear", "EAR"},
		{"A1B", "A1B"},
		{"FAT-{YYYY}-{0001}", "FAT"},
		{"INV{YY}{MM}.{000000001}", "INV"},
		{"{YYYY}-{0001}", FallbackSeries},
		{"AB", FallbackSeries},
		{"ABCD", FallbackSeries},
		{"", FallbackSeries},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, Series(tt.format))
		})
	}
}

func TestPrefix(t *testing.T) {
	d := date(2025, 3, 14)

	assert.Equal(t, "TKF-2025", KindProposal.Prefix("TKF-{YYYY}-{0001}", d))
	assert.Equal(t, "MUS", KindCustomer.Prefix("MUS-{0001}", d))
	assert.Equal(t, "202503", KindOrder.Prefix("{YYYY}{MM}_{001}", d))
	assert.Equal(t, "SRV-25", KindService.Prefix("SRV-{YY}.{01}", d))
	assert.Equal(t, "FAT2025", KindEInvoice.Prefix("FAT", d))
	assert.Equal(t, "FAT2025", KindInvoice.Prefix("FAT-{YYYY}-{0001}", d))
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		name   string
		kind   DocumentKind
		value  string
		prefix string
		want   int64
		ok     bool
	}{
		{"generic", KindProposal, "TKF-2025-0007", "TKF-2025", 7, true},
		{"generic wide", KindProposal, "TKF-2025-12345", "TKF-2025", 12345, true},
		{"generic no digits", KindProposal, "TKF-2025-DRAFT", "TKF-2025", 0, false},
		{"generic digits only in prefix", KindOrder, "202503", "202503", 0, false},
		{"generic other prefix", KindProposal, "XYZ-2025-0007", "TKF-2025", 0, false},
		{"gib", KindEInvoice, "FAT2025000000042", "FAT2025", 42, true},
		{"gib short", KindEInvoice, "FAT20250000042", "FAT2025", 0, false},
		{"gib non numeric", KindEInvoice, "FAT2025ABC000042", "FAT2025", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.kind.ParseSequence(tt.value, tt.prefix)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateIssuedNumber(t *testing.T) {
	d := date(2025, 5, 1)

	n, err := KindEInvoice.ValidateIssuedNumber("FAT2025000000015", "FAT", d)
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)

	bad := []string{
		"FAT202500000015",  // 15 chars
		"FAT2024000000015", // other year
		"EAR2025000000015", // other series
		"FAT2025000000000", // zero
		"FAT2025ABCDEFGHI", // not numeric
	}
	for _, number := range bad {
		_, err := KindEInvoice.ValidateIssuedNumber(number, "FAT", d)
		assert.True(t, errors.Is(err, ErrMalformedNumber), number)
	}
}

func TestPreviewNumber(t *testing.T) {
	d := date(2025, 3, 14)

	assert.Equal(t, "TKF-2025-0001", PreviewNumber("TKF-{YYYY}-{0001}", 1, d))
	assert.Equal(t, "TKF-2025-0001", PreviewNumber("TKF-{YYYY}-{0001}", 0, d))
	assert.Equal(t, "TKF-2025-0025", PreviewNumber("TKF-{YYYY}-{0001}", 25, d))

	assert.Equal(t, "FAT2025000000001", KindEInvoice.Preview("FAT", 0, d))
}

func TestParseDocumentKind(t *testing.T) {
	k, ok := ParseDocumentKind("proposal_number_format")
	assert.True(t, ok)
	assert.Equal(t, KindProposal, k)

	k, ok = ParseDocumentKind(" Veriban_Invoice ")
	assert.True(t, ok)
	assert.Equal(t, KindVeribanInvoice, k)

	_, ok = ParseDocumentKind("ticket")
	assert.False(t, ok)
}

func TestDocumentKind_Registry(t *testing.T) {
	assert.Len(t, Kinds(), 9)
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), k)
		assert.NotEmpty(t, k.DefaultFormat(), k)
		_, ok := k.Records()
		assert.True(t, ok, k)
	}

	unknown := DocumentKind("ticket")
	assert.Equal(t, FallbackFormat, unknown.DefaultFormat())
	assert.Equal(t, SchemeGeneric, unknown.Scheme())
	_, ok := unknown.Records()
	assert.False(t, ok)

	assert.Equal(t, "proposal_number_format", KindProposal.FormatKey())
	assert.Equal(t, "proposal_sequence", KindProposal.SequenceKey())
	assert.True(t, KindEArchiveInvoice.RemoteReconcilable())
	assert.False(t, KindInvoice.RemoteReconcilable())
}
