// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
)

func TestEntryStreaming(t *testing.T) {
	e := NewResponse("llama3.2:3b")

	if !e.IsPlaceholder() {
		t.Error("fresh response should be a placeholder")
	}

	for _, tok := range []string{"Hel", "lo", "!"} {
		e.AppendToken(tok)
	}

	if e.IsPlaceholder() {
		t.Error("entry with tokens should not be a placeholder")
	}
	if got := e.DisplayText(); got != "Hello!" {
		t.Errorf("DisplayText() = %q, want %q", got, "Hello!")
	}

	e.FinalizeStream()
	if e.IsStreaming {
		t.Error("entry should leave streaming state after finalize")
	}
	if e.Text != "Hello!" {
		t.Errorf("Text = %q, want %q", e.Text, "Hello!")
	}

	// Finalize again is a no-op.
	e.FinalizeStream()
	if e.Text != "Hello!" {
		t.Errorf("second finalize changed Text to %q", e.Text)
	}
}

func TestEntryAppendAfterFinalize(t *testing.T) {
	e := NewResponse("")
	e.AppendToken("done")
	e.FinalizeStream()
	e.AppendToken("late")

	if got := e.DisplayText(); got != "done" {
		t.Errorf("DisplayText() = %q, want %q", got, "done")
	}
}

func TestEntryPreview(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"short", "hi", 10, "hi"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"unicode", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewRequest(tc.text)
			if got := e.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestLogDropTrailingPlaceholder(t *testing.T) {
	l := NewLog()
	l.Append(NewRequest("question"))
	l.Append(NewResponse(""))

	if !l.DropTrailingPlaceholder() {
		t.Fatal("expected trailing placeholder to be dropped")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}

	// Nothing left to drop.
	if l.DropTrailingPlaceholder() {
		t.Error("second drop should report false")
	}
}

func TestLogPersistable(t *testing.T) {
	l := NewLog()
	l.Append(NewRequest("question"))

	resp := NewResponse("m")
	resp.AppendToken("partial")
	l.Append(resp)

	// Trailing response has text, so it is kept and finalized.
	entries := l.Persistable()
	if len(entries) != 2 {
		t.Fatalf("Persistable() returned %d entries, want 2", len(entries))
	}
	if entries[1].Text != "partial" {
		t.Errorf("finalized text = %q, want %q", entries[1].Text, "partial")
	}

	// A trailing empty placeholder is excluded.
	l.Append(NewResponse("m"))
	entries = l.Persistable()
	if len(entries) != 2 {
		t.Errorf("Persistable() with placeholder returned %d entries, want 2", len(entries))
	}
	if l.Len() != 3 {
		t.Errorf("Persistable() mutated log length to %d", l.Len())
	}
}

func TestLogClone(t *testing.T) {
	l := NewLog()
	l.Append(NewRequest("a"))
	resp := NewResponse("m")
	resp.AppendToken("b")
	l.Append(resp)

	clone := l.Clone()
	if clone.Len() != 2 {
		t.Fatalf("clone Len() = %d, want 2", clone.Len())
	}
	if clone.Entries[1].Text != "b" {
		t.Errorf("clone carried text %q, want %q", clone.Entries[1].Text, "b")
	}

	clone.Entries[0].Text = "mutated"
	if l.Entries[0].Text != "a" {
		t.Error("mutating clone changed original")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.DefaultModel == "" {
		t.Error("default model should not be empty")
	}
	if !s.RecommendationsEnabled {
		t.Error("recommendations should default to enabled")
	}
}
