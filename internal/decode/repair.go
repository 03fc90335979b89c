package decode

import (
	"regexp"
	"strings"
)

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// Repair applies a bounded set of textual fixes for the malformations models
// produce most often: trailing commas before a closing bracket, unquoted
// object keys, and unescaped quotes inside string values. The result is not
// guaranteed to parse; callers re-attempt json.Unmarshal on it.
func Repair(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = unquotedKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = escapeInteriorQuotes(s)
	return s
}

// escapeInteriorQuotes escapes double quotes that appear inside string
// values. A quote inside a string is treated as interior when the next
// non-space character could not legally follow a closing quote; genuinely
// ambiguous quotes are left alone.
func escapeInteriorQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		switch c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			if closesString(s, i+1) {
				inString = false
				b.WriteByte(c)
			} else {
				b.WriteString(`\"`)
			}
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// closesString reports whether a quote at position i-1 can terminate a JSON
// string, judged by the next non-space character.
func closesString(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case ',', ']', '}', ':':
			return true
		default:
			return false
		}
	}
	return true // end of input
}
