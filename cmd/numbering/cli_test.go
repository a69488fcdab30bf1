package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belgeno/internal/domain/auth"
)

const testCompany = "0190d3b4-7c1e-7a51-9a3c-2f4d8e1b6a70"

// resetFlags restores every flag to its default so commands do not leak state
// between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestKindsCommand(t *testing.T) {
	out, err := run(t, "kinds")
	require.NoError(t, err)

	assert.Contains(t, out, "proposal")
	assert.Contains(t, out, "TKF-{YYYY}-{0001}")
	assert.Regexp(t, `einvoice\s+gib\s+FAT`, out)
	assert.Equal(t, 9, strings.Count(out, "\n"))
}

func TestPreviewCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "generic",
			args: []string{"preview", "tkf-{yyyy}-{0001}", "--date", "2025-03-15"},
			want: "TKF-2025-0001",
		},
		{
			name: "sample sequence",
			args: []string{"preview", "SIP-{YY}{MM}-{001}", "-s", "42", "-d", "2025-03-15"},
			want: "SIP-2503-042",
		},
		{
			name: "gib kind",
			args: []string{"preview", "FAT", "--kind", "einvoice", "-s", "7", "-d", "2025-03-15"},
			want: "FAT2025000000007",
		},
		{
			name: "sample below one",
			args: []string{"preview", "MUS-{0001}", "-s", "0"},
			want: "MUS-0001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestPreviewCommand_BadInput(t *testing.T) {
	_, err := run(t, "preview", "X-{0001}", "--kind", "nope")
	assert.ErrorContains(t, err, `unknown document kind "nope"`)

	_, err = run(t, "preview", "X-{0001}", "--date", "15.03.2025")
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", " sip - {yyyy} - {0001} ")
	require.NoError(t, err)
	assert.Equal(t, "SIP-{YYYY}-{0001}: valid\n", out)

	out, err = run(t, "validate", "AB/{XX}")
	assert.ErrorIs(t, err, errInvalidFormat)
	assert.Contains(t, out, "AB/{XX}: invalid")
	assert.Contains(t, out, `invalid characters: "/"`)
	assert.Contains(t, out, "invalid token {XX}")
	assert.Contains(t, out, "must contain a sequence token")
}

func TestValidateCommand_GIBSeries(t *testing.T) {
	_, err := run(t, "validate", "FAT")
	assert.ErrorIs(t, err, errInvalidFormat)

	out, err := run(t, "validate", "FAT", "--kind", "earchive_invoice")
	require.NoError(t, err)
	assert.Equal(t, "FAT: valid\n", out)
}

func TestDatabaseCommands_RequireCompany(t *testing.T) {
	for _, args := range [][]string{
		{"generate", "order"},
		{"sequence", "show", "order"},
		{"sequence", "next", "order"},
		{"sequence", "reset", "order", "5"},
		{"format", "get", "order"},
		{"format", "set", "order", "SIP-{0001}"},
		{"history", "order"},
	} {
		_, err := run(t, args...)
		assert.ErrorIs(t, err, errNoCompany, strings.Join(args, " "))
	}
}

func TestDatabaseCommands_RejectBadArguments(t *testing.T) {
	_, err := run(t, "generate", "bogus", "--company", testCompany)
	assert.ErrorContains(t, err, "unknown document kind")

	_, err = run(t, "sequence", "reset", "order", "abc", "--company", testCompany)
	assert.ErrorContains(t, err, `invalid start value "abc"`)

	// A negative value only reaches the command after "--"; before it, it parses as a flag.
	_, err = run(t, "sequence", "reset", "--company", testCompany, "--", "order", "-3")
	assert.ErrorContains(t, err, `invalid start value "-3"`)

	_, err = run(t, "format", "get", "order", "--company", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid --company")
}

func TestDatabaseCommands_RequireDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := run(t, "sequence", "show", "order", "--company", testCompany)
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret")

	out, err := run(t, "token", "--company", testCompany, "--user", "u-1", "--role", "admin", "--role", "sales")
	require.NoError(t, err)

	svc := auth.NewJWTService(auth.DefaultJWTConfig("cli-test-secret"))
	user, err := svc.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UserID)
	assert.Equal(t, testCompany, user.CompanyID)
	assert.Equal(t, []string{"admin", "sales"}, user.Roles)
	assert.False(t, user.IsAdmin)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "token", "--company", testCompany)
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}
