package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeEmail trims, NFKC-normalizes and lower-cases an address and drops
// control and invisible characters pasted along with it.
func SanitizeEmail(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}

// WipeByteArray zeroes b in place.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
