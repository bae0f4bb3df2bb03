// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// LOG TYPE
// =============================================================================

// Log is the ordered chat history for one document. It is append-only
// during a turn; reset and document switches replace it wholesale.
type Log struct {
	Entries []*Entry `json:"entries"`
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry to the end of the log.
func (l *Log) Append(e *Entry) {
	l.Entries = append(l.Entries, e)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.Entries)
}

// IsEmpty reports whether the log has no entries.
func (l *Log) IsEmpty() bool {
	return len(l.Entries) == 0
}

// Last returns the final entry, or nil for an empty log.
func (l *Log) Last() *Entry {
	if len(l.Entries) == 0 {
		return nil
	}
	return l.Entries[len(l.Entries)-1]
}

// DropTrailingPlaceholder removes the final entry if it is a response
// placeholder that never received a token. Returns true if removed.
func (l *Log) DropTrailingPlaceholder() bool {
	last := l.Last()
	if last == nil || !last.IsPlaceholder() {
		return false
	}
	l.Entries = l.Entries[:len(l.Entries)-1]
	return true
}

// Persistable returns the entries safe to write out: everything except
// a trailing placeholder. Streaming entries with partial text are
// finalized in place first so their accumulated text is included.
func (l *Log) Persistable() []*Entry {
	entries := l.Entries
	if last := l.Last(); last != nil && last.IsPlaceholder() {
		entries = entries[:len(entries)-1]
	}
	for _, e := range entries {
		e.FinalizeStream()
	}
	return entries
}

// Clone returns a deep copy of the log's persisted fields. Streaming
// accumulators are not carried over.
func (l *Log) Clone() *Log {
	out := &Log{Entries: make([]*Entry, 0, len(l.Entries))}
	for _, e := range l.Entries {
		out.Entries = append(out.Entries, &Entry{
			ID:        e.ID,
			Kind:      e.Kind,
			Text:      e.DisplayText(),
			Model:     e.Model,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// Clear removes all entries.
func (l *Log) Clear() {
	l.Entries = nil
}
