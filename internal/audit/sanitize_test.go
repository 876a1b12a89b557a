// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRecord_CleansInvalidUTF8(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))
	ctx := ContextWithClient(context.Background(), Client{IPAddress: "192.0.2.1", UserAgent: "Mozilla\xff\xfe"})

	j.SetCurrentUser(ctx, "clerk\xff", "s1")
	j.Record(ctx, Entry{
		Action:       ActionUpdate,
		EntityType:   EntityGuest,
		EntityID:     "g\xfe1",
		OldValues:    map[string]any{"name": "Ana"},
		NewValues:    map[string]any{"name": "An\xffa", "tags": []any{"vip\xfe"}, "addr": map[string]any{"city\xff": "Oslo"}},
		Result:       ResultFailure,
		ErrorMessage: "bad\xffinput",
		Metadata:     map[string]any{"k": "v\xfe"},
	})

	e := j.Buffered()[1]
	for name, s := range map[string]string{
		"user":   e.UserID,
		"entity": e.EntityID,
		"ua":     e.UserAgent,
		"error":  e.ErrorMessage,
		"name":   e.NewValues["name"].(string),
		"tag":    e.NewValues["tags"].([]any)[0].(string),
		"meta":   e.Metadata["k"].(string),
	} {
		if !utf8.ValidString(s) {
			t.Errorf("%s is not valid UTF-8: %q", name, s)
		}
	}
	if e.UserAgent != "Mozilla\uFFFD" {
		t.Errorf("UserAgent = %q", e.UserAgent)
	}
	if _, ok := e.NewValues["addr"].(map[string]any)["city\uFFFD"]; !ok {
		t.Errorf("expected nested key cleaned, got %v", e.NewValues["addr"])
	}
	if len(e.ChangedFields) != 3 {
		t.Errorf("expected 3 changed fields, got %v", e.ChangedFields)
	}
}

func TestCleanValues_KeepsValidInput(t *testing.T) {
	if cleanValues(nil) != nil {
		t.Error("expected nil map to stay nil")
	}
	in := map[string]any{"rate": 120, "name": "Åse", "ok": true}
	out := cleanValues(in)
	if out["rate"] != 120 || out["name"] != "Åse" || out["ok"] != true {
		t.Errorf("unexpected copy %v", out)
	}
	out["rate"] = 1
	if in["rate"] != 120 {
		t.Error("expected a copy, not the caller's map")
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"two byte rune at boundary", "aé", 2, "a"},
		{"three byte rune", "a€b", 3, "a"},
		{"rune fits exactly", "a€b", 4, "a€"},
		{"invalid then cut", "ab\xffcd", 3, "ab"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateUTF8(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("TruncateUTF8(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) || len(got) > tt.max {
				t.Errorf("result invalid or too long: %q", got)
			}
		})
	}

	if got := TruncateUTF8(strings.Repeat("x", 10), -1); len(got) != 10 {
		t.Errorf("negative max should not truncate, got %d bytes", len(got))
	}
}
