// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation panel for the sidenote TUI.
//
// This file implements token batching for smooth streaming. Tokens
// arrive from the generation goroutine far faster than the terminal
// can usefully repaint, so they are buffered and drained on a timer.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer accumulates tokens between repaints. It is flushed
// when either the batch size or the frame interval is reached,
// whichever comes first.
//
// Write is called from the generation goroutine while Flush runs in
// the Bubble Tea update loop, so all operations take the mutex.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int
	lastFlush  time.Time

	batchSize int
	interval  time.Duration
}

// NewStreamingBuffer returns a buffer tuned for 30fps with 15-token
// batches.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{
		batchSize: 15,
		interval:  33 * time.Millisecond,
		lastFlush: time.Now(),
	}
}

// Write appends a token. Safe to call from any goroutine.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(token)
	sb.tokenCount++
}

// Flush returns buffered content if a flush threshold has been
// reached. The second return is false when nothing should be drawn
// yet.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.tokenCount < sb.batchSize && time.Since(sb.lastFlush) < sb.interval {
		return "", false
	}
	return sb.drainLocked(), true
}

// ForceFlush drains everything regardless of thresholds. Called when
// a stream completes so no trailing tokens are lost.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

// Reset discards buffered content. Used on cancel and when a new
// stream starts.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
}

// Pending reports how many tokens are waiting.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.tokenCount
}

func (sb *StreamingBuffer) drainLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	return content
}

// =============================================================================
// TICK COMMAND
// =============================================================================

// streamTickCmd schedules the next buffer drain at ~30fps.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
