package shared

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims and NFC-normalises free-text names so that visually
// identical names compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// NormalizeOptional applies NormalizeName to an optional value; blank values become nil.
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := NormalizeName(*s)
	if v == "" {
		return nil
	}
	return &v
}
