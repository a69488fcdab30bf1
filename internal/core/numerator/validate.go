package numerator

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxFormatLength is the longest accepted format string.
const MaxFormatLength = 100

var (
	invalidChars = regexp.MustCompile(`[^A-Za-z0-9{}\-_.]`)
	tokenPattern = regexp.MustCompile(`\{[^}]+\}`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Validation is the outcome of a format check. Errors holds every violated rule.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateFormat checks a format string against all rules and reports every violation.
func ValidateFormat(format string) Validation {
	errs := make([]string, 0)

	if strings.TrimSpace(format) == "" {
		errs = append(errs, "format must not be empty")
	}

	if len(format) > MaxFormatLength {
		errs = append(errs, fmt.Sprintf("format is too long (max %d characters)", MaxFormatLength))
	}

	if bad := invalidChars.FindAllString(format, -1); len(bad) > 0 {
		errs = append(errs, "format contains invalid characters: "+quoteUnique(bad))
	}

	tokens := tokenPattern.FindAllString(format, -1)
	for _, tok := range tokens {
		if !isAllowedToken(tok) {
			errs = append(errs, fmt.Sprintf("invalid token %s; allowed tokens: %s",
				tok, strings.Join(AllowedTokens, ", ")))
		}
	}

	if !hasSequenceToken(tokens) {
		errs = append(errs, "format must contain a sequence token ("+strings.Join(SequenceTokens, ", ")+")")
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// ValidateFormat validates format for this kind. GİB kinds also accept a bare
// 3-character series such as "FAT".
func (k DocumentKind) ValidateFormat(format string) Validation {
	if k.Scheme() == SchemeGIB && seriesPattern.MatchString(format) {
		return Validation{Valid: true, Errors: []string{}}
	}
	return ValidateFormat(format)
}

// SanitizeFormat trims the format, removes all whitespace and upper-cases it.
func SanitizeFormat(format string) string {
	return strings.ToUpper(whitespace.ReplaceAllString(strings.TrimSpace(format), ""))
}

func isAllowedToken(tok string) bool {
	for _, allowed := range AllowedTokens {
		if tok == allowed {
			return true
		}
	}
	return false
}

// hasSequenceToken reports whether a matched token is a sequence token.
func hasSequenceToken(tokens []string) bool {
	for _, tok := range tokens {
		for _, seq := range SequenceTokens {
			if tok == seq {
				return true
			}
		}
	}
	return false
}

func quoteUnique(chars []string) string {
	seen := make(map[string]struct{}, len(chars))
	out := make([]string, 0, len(chars))
	for _, c := range chars {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, fmt.Sprintf("%q", c))
	}
	return strings.Join(out, ", ")
}
