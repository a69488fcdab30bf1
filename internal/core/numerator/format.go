package numerator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date tokens.
const (
	TokenYear4 = "{YYYY}"
	TokenYear2 = "{YY}"
	TokenMonth = "{MM}"
	TokenDay   = "{DD}"
)

// Sequence tokens; the token width is the zero-padded width of the sequence.
const (
	TokenSeq9 = "{000000001}"
	TokenSeq4 = "{0001}"
	TokenSeq3 = "{001}"
	TokenSeq2 = "{01}"
)

// SequenceTokens lists the sequence tokens, widest first.
var SequenceTokens = []string{TokenSeq9, TokenSeq4, TokenSeq3, TokenSeq2}

// DateTokens lists the date tokens. {YYYY} precedes {YY}.
var DateTokens = []string{TokenYear4, TokenYear2, TokenMonth, TokenDay}

// AllowedTokens is every token the renderer understands.
var AllowedTokens = []string{TokenYear4, TokenYear2, TokenMonth, TokenDay, TokenSeq9, TokenSeq4, TokenSeq3, TokenSeq2}

const (
	// GIBLength is the fixed length of a GİB e-fatura number.
	GIBLength = 16
	// GIBSequenceDigits is the zero-padded width of the GİB sequence part.
	GIBSequenceDigits = 9
	// GIBMaxSequence is the largest sequence representable in a GİB number.
	GIBMaxSequence = 999_999_999
	// FallbackSeries is used when no 3-character series can be derived from a format.
	FallbackSeries = "FAT"
)

var (
	seriesPattern  = regexp.MustCompile(`^[A-Z0-9]{3}$`)
	trailingDigits = regexp.MustCompile(`(\d+)$`)
	nineDigits     = regexp.MustCompile(`^\d{9}$`)
)

func dateValues(date time.Time) []string {
	return []string{
		TokenYear4, fmt.Sprintf("%04d", date.Year()),
		TokenYear2, fmt.Sprintf("%02d", date.Year()%100),
		TokenMonth, fmt.Sprintf("%02d", int(date.Month())),
		TokenDay, fmt.Sprintf("%02d", date.Day()),
	}
}

func sequenceValues(seq int64) []string {
	return []string{
		TokenSeq9, fmt.Sprintf("%09d", seq),
		TokenSeq4, fmt.Sprintf("%04d", seq),
		TokenSeq3, fmt.Sprintf("%03d", seq),
		TokenSeq2, fmt.Sprintf("%02d", seq),
	}
}

func replaceTokens(s string, pairs []string) string {
	for i := 0; i < len(pairs); i += 2 {
		s = strings.ReplaceAll(s, pairs[i], pairs[i+1])
	}
	return s
}

// RenderGeneric substitutes every recognized token in format.
// Unrecognized {...} tokens are left untouched. When several sequence tokens are present,
// each is substituted with the same sequence value.
func RenderGeneric(format string, seq int64, date time.Time) string {
	out := replaceTokens(format, dateValues(date))
	return replaceTokens(out, sequenceValues(seq))
}

// Series derives the 3-character GİB series from a configured format.
// A format that already is a series is used as is; otherwise all tokens and separators
// are stripped. Anything that does not end up as exactly 3 characters yields FallbackSeries.
func Series(format string) string {
	s := strings.ToUpper(strings.TrimSpace(format))
	if seriesPattern.MatchString(s) {
		return s
	}
	for _, tok := range AllowedTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.NewReplacer("-", "", "_", "", ".", "").Replace(s)
	if seriesPattern.MatchString(s) {
		return s
	}
	return FallbackSeries
}

// Render produces the number for seq on date using the kind's scheme.
// It fails only for GİB kinds, when seq does not fit into nine digits or the
// year into four.
func (k DocumentKind) Render(format string, seq int64, date time.Time) (string, error) {
	if k.Scheme() != SchemeGIB {
		return RenderGeneric(format, seq, date), nil
	}
	if seq < 0 || seq > GIBMaxSequence {
		return "", fmt.Errorf("%w: %d", ErrSequenceOverflow, seq)
	}
	if y := date.Year(); y < 0 || y > 9999 {
		return "", fmt.Errorf("%w: %d", ErrYearOutOfRange, y)
	}
	return fmt.Sprintf("%s%04d%09d", Series(format), date.Year(), seq), nil
}

// Prefix returns the fixed leading part shared by every number rendered from format on date.
// GİB kinds use series and year. Generic kinds fill date tokens, drop sequence tokens
// and trim trailing separators.
func (k DocumentKind) Prefix(format string, date time.Time) string {
	if k.Scheme() == SchemeGIB {
		return fmt.Sprintf("%s%04d", Series(format), date.Year())
	}
	p := replaceTokens(format, dateValues(date))
	for _, tok := range SequenceTokens {
		p = strings.ReplaceAll(p, tok, "")
	}
	return strings.TrimRight(p, "-_.")
}

// ParseSequence extracts the sequence from a persisted number that starts with prefix.
// ok is false when the value does not carry a parsable sequence.
func (k DocumentKind) ParseSequence(value, prefix string) (int64, bool) {
	if !strings.HasPrefix(value, prefix) {
		return 0, false
	}
	rest := value[len(prefix):]

	if k.Scheme() == SchemeGIB {
		if len(value) != GIBLength || !nineDigits.MatchString(rest) {
			return 0, false
		}
		n, err := strconv.ParseInt(rest, 10, 64)
		return n, err == nil
	}

	m := trailingDigits.FindString(rest)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidateIssuedNumber checks a vendor-reported GİB number against the configured series
// and the year of date and returns its sequence.
func (k DocumentKind) ValidateIssuedNumber(number, format string, date time.Time) (int64, error) {
	if len(number) != GIBLength {
		return 0, fmt.Errorf("%w: length %d, want %d", ErrMalformedNumber, len(number), GIBLength)
	}
	prefix := fmt.Sprintf("%s%04d", Series(format), date.Year())
	if !strings.HasPrefix(number, prefix) {
		return 0, fmt.Errorf("%w: %q does not start with %q", ErrMalformedNumber, number, prefix)
	}
	rest := number[len(prefix):]
	if !nineDigits.MatchString(rest) {
		return 0, fmt.Errorf("%w: sequence part %q is not numeric", ErrMalformedNumber, rest)
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: sequence part %q must be positive", ErrMalformedNumber, rest)
	}
	return n, nil
}

// PreviewNumber renders format with the generic renderer for display purposes.
// A sample below 1 is replaced with 1.
func PreviewNumber(format string, sample int64, now time.Time) string {
	if sample < 1 {
		sample = 1
	}
	return RenderGeneric(format, sample, now)
}

// Preview renders format the way numbers of this kind will look.
func (k DocumentKind) Preview(format string, sample int64, now time.Time) string {
	if sample < 1 {
		sample = 1
	}
	out, err := k.Render(format, sample, now)
	if err != nil {
		return RenderGeneric(format, sample, now)
	}
	return out
}
