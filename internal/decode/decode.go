// Package decode recovers structured data from free-form model output.
//
// Completion models are asked to return bare JSON but routinely wrap it in
// markdown fences, prepend prose, or emit slightly malformed documents. Every
// response crossing from the completion service into the rest of the system
// passes through this package, which tries progressively more aggressive
// recovery steps and reports a typed failure only when none of them work.
// Callers are expected to substitute a deterministic fallback on failure
// rather than abort.
package decode

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUndecodable indicates that no JSON value could be recovered from the
// model response. Recovery is deterministic: the same input always fails (or
// succeeds) the same way.
var ErrUndecodable = errors.New("no decodable JSON in model response")

// Value recovers a JSON value from raw model output into v. Steps, each
// attempted only if the previous failed:
//
//  1. strip code fences and whitespace, parse directly
//  2. slice the text to the outermost bracketed span, parse
//  3. apply bounded textual repairs, parse
//
// Returns ErrUndecodable when all steps fail.
func Value(raw string, v any) error {
	cleaned := StripFences(raw)
	if json.Unmarshal([]byte(cleaned), v) == nil {
		return nil
	}

	if sliced, ok := bracketSpan(cleaned); ok {
		if json.Unmarshal([]byte(sliced), v) == nil {
			return nil
		}
		if json.Unmarshal([]byte(Repair(sliced)), v) == nil {
			return nil
		}
	}

	if json.Unmarshal([]byte(Repair(cleaned)), v) == nil {
		return nil
	}

	return ErrUndecodable
}

// StringArray recovers a JSON string array from raw model output.
func StringArray(raw string) ([]string, error) {
	var out []string
	if err := Value(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StripFences removes leading/trailing markdown code-fence markers and
// surrounding whitespace.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)

	for _, prefix := range []string{"```json", "```JSON", "```"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// bracketSpan slices s to the span from the first opening bracket to its
// matching closer, scanning with a depth counter and skipping over string
// literals. Handles leading prose before and trailing prose after the JSON
// payload.
func bracketSpan(s string) (string, bool) {
	start := -1
	var open, closing byte
	for i := 0; i < len(s); i++ {
		if s[i] == '[' || s[i] == '{' {
			start = i
			open = s[i]
			if open == '[' {
				closing = ']'
			} else {
				closing = '}'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++ // skip escaped char
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	// Unbalanced document: fall back to the last closer in the text.
	if end := strings.LastIndexByte(s, closing); end > start {
		return s[start : end+1], true
	}
	return "", false
}
