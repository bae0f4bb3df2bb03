// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/unicode/norm"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListAndText(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "inbox.md", "# Inbox\n\n- buy milk\n")
	writeNote(t, root, "projects/go.md", "no heading here\n")
	writeNote(t, root, "projects/readme.txt", "not a note")
	writeNote(t, root, ".obsidian/cache.md", "hidden dir is skipped")

	v, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	notes, err := v.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("got %d notes, want 2: %+v", len(notes), notes)
	}
	if notes[0].ID != "inbox.md" || notes[1].ID != "projects/go.md" {
		t.Errorf("ids = %q, %q", notes[0].ID, notes[1].ID)
	}
	if notes[0].Title != "Inbox" {
		t.Errorf("heading title = %q, want %q", notes[0].Title, "Inbox")
	}
	if notes[1].Title != "go" {
		t.Errorf("fallback title = %q, want %q", notes[1].Title, "go")
	}

	text, err := v.Text("projects/go.md")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "no heading here\n" {
		t.Errorf("text = %q", text)
	}
}

func TestTextRejectsEscapingIDs(t *testing.T) {
	root := t.TempDir()
	v, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, id := range []string{"../outside.md", "a/../../etc/passwd", "/abs.md"} {
		if _, err := v.Text(id); err == nil {
			t.Errorf("Text(%q) should fail", id)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	// "é" decomposed (e + combining accent) vs precomposed.
	decomposed := norm.NFD.String("café.md")
	if NormalizeID(decomposed) != "café.md" {
		t.Errorf("NormalizeID(%q) = %q, want NFC form", decomposed, NormalizeID(decomposed))
	}
}

func TestOpenRejectsMissingDir(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Open should fail for a missing directory")
	}
}

func TestWatcherEmitsModify(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "watched.md", "before")

	v, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	w, err := v.Watch(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	writeNote(t, root, "watched.md", "after")

	deadline := time.After(3 * time.Second)
	for {
		select {
		case e := <-w.Events():
			if e.DocID == "watched.md" && e.Kind == EventModified {
				return
			}
		case <-deadline:
			t.Fatal("no modify event within deadline")
		}
	}
}

func TestWatcherIgnoresNonNotes(t *testing.T) {
	root := t.TempDir()
	v, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	w, err := v.Watch(30 * time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	writeNote(t, root, "data.json", `{"not": "a note"}`)

	select {
	case e := <-w.Events():
		t.Errorf("unexpected event %+v", e)
	case <-time.After(300 * time.Millisecond):
	}
}
