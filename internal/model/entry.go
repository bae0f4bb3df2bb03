// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat logs and settings.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ENTRY KIND
// =============================================================================

// EntryKind distinguishes the two sides of a chat exchange.
type EntryKind string

const (
	KindRequest  EntryKind = "request"
	KindResponse EntryKind = "response"
)

// String returns the string representation of the kind.
func (k EntryKind) String() string {
	return string(k)
}

// DisplayName returns a human-readable label for the kind.
func (k EntryKind) DisplayName() string {
	switch k {
	case KindRequest:
		return "You"
	case KindResponse:
		return "Assistant"
	default:
		return string(k)
	}
}

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is a single item in a document's chat log.
type Entry struct {
	ID        string    `json:"id"`
	Kind      EntryKind `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`

	// Model that produced a response entry. Empty for requests.
	Model string `json:"model,omitempty"`

	// Streaming state (not persisted).
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming.
	IsStreaming bool            `json:"-"`
	streamText  strings.Builder `json:"-"`
}

// NewRequest creates a request entry with the given text.
func NewRequest(text string) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Kind:      KindRequest,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// NewResponse creates an empty response entry in streaming state.
// It acts as the placeholder the UI renders tokens into until the
// stream finishes.
func NewResponse(modelName string) *Entry {
	return &Entry{
		ID:          uuid.NewString(),
		Kind:        KindResponse,
		Model:       modelName,
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
}

// AppendToken appends a streamed token to the entry's accumulator.
func (e *Entry) AppendToken(token string) {
	if e.IsStreaming {
		e.streamText.WriteString(token)
	}
}

// FinalizeStream merges accumulated tokens into Text and leaves
// streaming state. Safe to call more than once.
func (e *Entry) FinalizeStream() {
	if !e.IsStreaming {
		return
	}
	e.Text = e.streamText.String()
	e.streamText.Reset()
	e.IsStreaming = false
}

// DisplayText returns the text to render, whether streaming or final.
func (e *Entry) DisplayText() string {
	if e.IsStreaming {
		return e.streamText.String()
	}
	return e.Text
}

// IsEmpty reports whether the entry carries no text at all.
func (e *Entry) IsEmpty() bool {
	return len(e.Text) == 0 && e.streamText.Len() == 0
}

// IsPlaceholder reports whether the entry is a response still waiting
// for its first token. Logs are never persisted with a trailing
// placeholder.
func (e *Entry) IsPlaceholder() bool {
	return e.Kind == KindResponse && e.IsStreaming && e.streamText.Len() == 0 && len(e.Text) == 0
}

// Preview returns a rune-safe truncated preview of the entry text.
func (e *Entry) Preview(maxLen int) string {
	text := e.DisplayText()
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-3]) + "..."
}
