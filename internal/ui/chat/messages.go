// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation panel for the sidenote TUI.
//
// This file defines the Bubble Tea message types the panel emits and
// consumes. Messages the panel emits (SubmitMsg, CancelMsg,
// SuggestionPickedMsg) are handled by the root application model,
// which owns the conversation controller; messages it consumes carry
// streaming progress and suggestion results back in.
package chat

import (
	"time"

	"github.com/sidenote-ai/sidenote-tui/internal/recommend"
)

// =============================================================================
// EMITTED BY THE PANEL
// =============================================================================

// SubmitMsg carries a question the user submitted.
type SubmitMsg struct {
	Text string
}

// CancelMsg requests cancellation of the in-flight response.
type CancelMsg struct{}

// SuggestionPickedMsg carries a follow-up question the user picked
// from the suggestions row.
type SuggestionPickedMsg struct {
	Question string
}

// ResetRequestMsg asks for the active conversation to be cleared.
type ResetRequestMsg struct{}

// =============================================================================
// CONSUMED BY THE PANEL
// =============================================================================

// StreamStartMsg signals that a response stream has begun for the
// given document.
type StreamStartMsg struct {
	DocID string
}

// StreamTickMsg drives the flush loop that drains the token buffer
// into the visible response at a capped frame rate.
type StreamTickMsg struct {
	Time time.Time
}

// StreamCompleteMsg signals that the stream finished. Err is nil on
// success and on cancellation; a real failure carries the error.
type StreamCompleteMsg struct {
	DocID string
	Err   error
}

// SuggestionsMsg delivers a refreshed suggestion set.
type SuggestionsMsg struct {
	Set recommend.Set
}
