// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package logging

import (
	"strings"
	"testing"
)

func TestMaskID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "***"},
		{"abc123def456xyz", "abc1...6xyz"},
	}
	for _, tt := range tests {
		if got := MaskID(tt.in); got != tt.want {
			t.Errorf("MaskID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactFields(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"session_id": "sess-0123456789abcdef",
		"error":      strings.Repeat("x", 300),
		"batch_size": 12,
	}
	out := RedactFields(in)

	if got := out["session_id"]; got != "sess...cdef" {
		t.Errorf("session_id = %v, want masked", got)
	}
	if got := out["error"].(string); len(got) != maxLoggedValue+3 {
		t.Errorf("len(error) = %d, want %d", len(got), maxLoggedValue+3)
	}
	if got := out["batch_size"]; got != 12 {
		t.Errorf("batch_size = %v, want 12", got)
	}
	if in["session_id"] != "sess-0123456789abcdef" {
		t.Error("RedactFields modified its input")
	}
	if RedactFields(nil) != nil {
		t.Error("RedactFields(nil) != nil")
	}
}
