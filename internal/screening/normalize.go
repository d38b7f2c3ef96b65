package screening

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize trims the answer and collapses internal whitespace runs to a
// single space.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Lower returns the normalized answer folded to lower case. A Caser must
// not be shared between goroutines, so each call builds its own.
func Lower(raw string) string {
	return cases.Lower(language.Und).String(Normalize(raw))
}

// Upper returns the normalized answer folded to upper case.
func Upper(raw string) string {
	return cases.Upper(language.Und).String(Normalize(raw))
}

// Compact removes every whitespace rune from the answer.
func Compact(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Tokens splits a list-style answer on commas or whitespace, whichever the
// user typed. Empty tokens left by trailing or doubled delimiters are dropped.
func Tokens(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// splitComma splits on commas only, trimming and dropping empty tokens.
func splitComma(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isNumeric reports whether the token is a plain decimal number: an
// optional sign, digits, and at most one decimal point.
func isNumeric(tok string) bool {
	if tok != "" && (tok[0] == '+' || tok[0] == '-') {
		tok = tok[1:]
	}
	digits, dots := 0, 0
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
