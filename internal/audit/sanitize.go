// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"strings"
	"unicode/utf8"
)

// invalidUTF8Replacement stands in for each run of invalid bytes.
const invalidUTF8Replacement = "\uFFFD"

// cleanString replaces invalid UTF-8 in s. DuckDB refuses to bind it.
func cleanString(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, invalidUTF8Replacement)
}

// cleanValues returns a copy of m with every string key and string value,
// nested ones included, made valid UTF-8. A nil map stays nil.
func cleanValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[cleanString(k)] = cleanValue(v)
	}
	return out
}

func cleanValue(v any) any {
	switch val := v.(type) {
	case string:
		return cleanString(val)
	case map[string]any:
		return cleanValues(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cleanValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = cleanString(item)
		}
		return out
	default:
		return v
	}
}

// TruncateUTF8 cleans s and cuts it to at most maxBytes without splitting a
// character.
func TruncateUTF8(s string, maxBytes int) string {
	s = cleanString(s)
	if maxBytes < 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
