// Package transform implements the per-record cleaning steps: schema
// restriction, text normalization, type coercion, run-scoped deduplication
// and metric enrichment. Everything here is pure computation.
package transform

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeName cleans a free-text asset name: trim surrounding whitespace,
// drop every character that is not an ASCII letter, digit or whitespace,
// then title-case each word. Total: non-text input degrades to its verbatim
// string representation, skipping cleanup, instead of failing.
func NormalizeName(v any) string {
	s, ok := v.(string)
	if !ok {
		return Stringify(v)
	}
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	prevAlpha := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			if prevAlpha {
				b.WriteRune(r)
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevAlpha = true
		case r >= 'A' && r <= 'Z':
			if prevAlpha {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(r)
			}
			prevAlpha = true
		case r >= '0' && r <= '9' || unicode.IsSpace(r):
			b.WriteRune(r)
			prevAlpha = false
		default:
			// Dropped entirely; the surrounding word continues as if the
			// character had never been there.
		}
	}
	return b.String()
}

// NormalizeSymbol stringifies and upper-cases a ticker symbol.
func NormalizeSymbol(v any) string {
	return strings.ToUpper(Stringify(v))
}

// Stringify renders an arbitrary value as text. Total by construction.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
