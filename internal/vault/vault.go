// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vault reads the Markdown notes directory the chat runs
// against.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Note is the metadata for one note in the vault.
type Note struct {
	// ID is the slash-separated path relative to the vault root,
	// NFC-normalized so the same note gets the same id regardless of
	// how the filesystem encodes its name.
	ID         string
	Title      string
	ModifiedAt time.Time
}

// Vault is a directory tree of .md files.
type Vault struct {
	root string
}

// Open validates the root directory and returns a vault over it.
func Open(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path %s is not a directory", abs)
	}
	return &Vault{root: abs}, nil
}

// Root returns the vault's absolute root path.
func (v *Vault) Root() string {
	return v.root
}

// List walks the vault and returns all notes, sorted by id. Hidden
// directories (dotfiles) are skipped.
func (v *Vault) List() ([]Note, error) {
	var notes []Note

	err := filepath.Walk(v.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		name := filepath.Base(path)
		if info.IsDir() {
			if path != v.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), ".md") || strings.HasPrefix(name, ".") {
			return nil
		}

		notes = append(notes, Note{
			ID:         v.idFor(path),
			Title:      noteTitle(path),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing vault: %w", err)
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

// Text returns the full content of a note. Implements the note source
// the conversation controller consults at request time.
func (v *Vault) Text(docID string) (string, error) {
	path, err := v.pathFor(docID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading note %s: %w", docID, err)
	}
	return string(data), nil
}

// idFor converts an absolute path to a document id.
func (v *Vault) idFor(path string) string {
	rel, err := filepath.Rel(v.root, path)
	if err != nil {
		rel = path
	}
	return NormalizeID(filepath.ToSlash(rel))
}

// pathFor converts a document id back to an absolute path, rejecting
// ids that escape the root.
func (v *Vault) pathFor(docID string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(docID))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("note id %q escapes the vault", docID)
	}
	return filepath.Join(v.root, clean), nil
}

// NormalizeID brings a document id into canonical NFC form. macOS
// reports decomposed (NFD) filenames; without normalization the same
// note would get distinct histories depending on the platform.
func NormalizeID(id string) string {
	return norm.NFC.String(id)
}

// noteTitle derives a display title: the first Markdown heading if
// the file starts with one, otherwise the filename without extension.
func noteTitle(path string) string {
	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.SplitN(string(data), "\n", 20) {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "# ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "# "))
			}
			break
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
