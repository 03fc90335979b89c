package decode

import (
	"regexp"
	"strconv"
	"sync"
)

// Field-level extraction is the last recovery step for known small object
// shapes: when a response cannot be repaired into parseable JSON, individual
// fields are pulled out by pattern so a partial object can still be built.

var (
	fieldReMu sync.Mutex
	fieldRes  = map[string]*regexp.Regexp{}
)

func fieldRe(name, valuePattern string) *regexp.Regexp {
	key := name + "\x00" + valuePattern
	fieldReMu.Lock()
	defer fieldReMu.Unlock()
	re, ok := fieldRes[key]
	if !ok {
		re = regexp.MustCompile(`(?i)"` + regexp.QuoteMeta(name) + `"\s*:\s*` + valuePattern)
		fieldRes[key] = re
	}
	return re
}

// StringField extracts a quoted string field by name from malformed JSON
// text.
func StringField(raw, name string) (string, bool) {
	m := fieldRe(name, `"([^"]*)"`).FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IntField extracts a bare integer field by name from malformed JSON text.
func IntField(raw, name string) (int, bool) {
	m := fieldRe(name, `(-?\d+)`).FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
