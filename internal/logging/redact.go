// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package logging

import "strings"

// maxLoggedValue bounds string values written by RedactFields.
const maxLoggedValue = 200

var sensitiveKeys = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"authorization": true,
	"cookie":        true,
	"session_id":    true,
	"card_number":   true,
	"iban":          true,
}

// MaskID masks an identifier, showing only the first and last 4 characters.
// Example: "abc123def456xyz" -> "abc1...6xyz"
func MaskID(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 12 {
		return "***"
	}
	return id[:4] + "..." + id[len(id)-4:]
}

// RedactValue masks value when key names a secret and truncates long strings.
func RedactValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return MaskID(value)
	}
	return truncate(value, maxLoggedValue)
}

// RedactFields returns a copy of fields safe to attach to a log line.
// String values are passed through RedactValue; other values are kept.
func RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = RedactValue(k, s)
			continue
		}
		out[k] = v
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
