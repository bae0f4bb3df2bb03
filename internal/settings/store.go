// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings persists user settings and per-document chat
// history in a local SQLite database.
package settings

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/sidenote-ai/sidenote-tui/internal/model"
)

const (
	keyDefaultModel           = "default_model"
	keyRecommendationsEnabled = "recommendations_enabled"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chat_history (
	doc_id     TEXT PRIMARY KEY,
	entries    TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps a SQLite database holding settings and chat histories.
// Every mutation writes through before returning, so a killed process
// loses at most the operation in flight.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database in dataDir and ensures the
// schema exists. Pass ":memory:" as dataDir for an in-memory database
// (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "sidenote.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings returns the stored settings, falling back to defaults for
// keys that were never written.
func (s *Store) Settings() (model.Settings, error) {
	return s.SettingsFrom(model.DefaultSettings())
}

// SettingsFrom returns the stored settings layered over base. Lets
// the startup config seed values the user never changed in-app.
func (s *Store) SettingsFrom(base model.Settings) (model.Settings, error) {
	out := base

	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return out, fmt.Errorf("reading settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, fmt.Errorf("scanning setting: %w", err)
		}
		switch key {
		case keyDefaultModel:
			out.DefaultModel = value
		case keyRecommendationsEnabled:
			if b, err := strconv.ParseBool(value); err == nil {
				out.RecommendationsEnabled = b
			}
		}
	}
	return out, rows.Err()
}

// SetDefaultModel stores the model used for new requests.
func (s *Store) SetDefaultModel(name string) error {
	return s.setValue(keyDefaultModel, name)
}

// SetRecommendationsEnabled stores the suggestions toggle.
func (s *Store) SetRecommendationsEnabled(enabled bool) error {
	return s.setValue(keyRecommendationsEnabled, strconv.FormatBool(enabled))
}

func (s *Store) setValue(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// CHAT HISTORY
// =============================================================================

// History loads the chat log for a document. A document that was
// never written gets an empty log.
func (s *Store) History(docID string) (*model.Log, error) {
	var raw string
	err := s.db.QueryRow(
		"SELECT entries FROM chat_history WHERE doc_id = ?", docID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewLog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history for %s: %w", docID, err)
	}

	var entries []*model.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		// A corrupt row should not brick the document. Start fresh.
		return model.NewLog(), nil
	}
	return &model.Log{Entries: entries}, nil
}

// SaveHistory writes the persistable part of a log (everything except
// a trailing response placeholder). An empty log is stored as an
// empty list, which keeps reset distinct from never-chatted only in
// updated_at.
func (s *Store) SaveHistory(docID string, log *model.Log) error {
	entries := log.Persistable()
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding history for %s: %w", docID, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO chat_history (doc_id, entries, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(doc_id) DO UPDATE SET entries = excluded.entries, updated_at = CURRENT_TIMESTAMP`,
		docID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("writing history for %s: %w", docID, err)
	}
	return nil
}

// DeleteHistory removes the stored log for one document.
func (s *Store) DeleteHistory(docID string) error {
	if _, err := s.db.Exec("DELETE FROM chat_history WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("deleting history for %s: %w", docID, err)
	}
	return nil
}

// ClearHistory removes all stored logs.
func (s *Store) ClearHistory() error {
	if _, err := s.db.Exec("DELETE FROM chat_history"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// Documents lists the document ids that have stored history, most
// recently updated first.
func (s *Store) Documents() ([]string, error) {
	rows, err := s.db.Query("SELECT doc_id FROM chat_history ORDER BY updated_at DESC, doc_id")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
