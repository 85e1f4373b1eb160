package logging

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var segmentSplit = regexp.MustCompile(`[^a-z0-9]+`)

// redactor replaces values of sensitive keys in key-value pairs. Request
// headers are logged as maps, so map values are scanned by key too.
type redactor struct {
	sensitiveWords map[string]bool
}

func newRedactor() *redactor {
	words := []string{"secret", "password", "token", "auth", "authorization", "cookie", "credential"}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return &redactor{sensitiveWords: m}
}

// redact returns a copy of pairs with sensitive values replaced.
func (r *redactor) redact(pairs []any) []any {
	if len(pairs) == 0 {
		return pairs
	}
	result := make([]any, len(pairs))
	copy(result, pairs)
	for i := 0; i+1 < len(result); i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}
		if r.isSensitive(key) {
			result[i+1] = redacted
			continue
		}
		if m, ok := result[i+1].(map[string]string); ok {
			result[i+1] = r.redactMap(m)
		}
	}
	return result
}

func (r *redactor) redactMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if r.isSensitive(k) {
			v = redacted
		}
		out[k] = v
	}
	return out
}

// isSensitive reports whether any non-alphanumeric separated segment of
// key is a sensitive word.
func (r *redactor) isSensitive(key string) bool {
	for _, part := range segmentSplit.Split(strings.ToLower(key), -1) {
		if r.sensitiveWords[part] {
			return true
		}
	}
	return false
}
