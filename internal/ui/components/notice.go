// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sidenote-ai/sidenote-tui/internal/ui/styles"
)

// =============================================================================
// NOTICES
// =============================================================================

// NoticeKind classifies a transient status-bar notice.
type NoticeKind int

const (
	// NoticeInfo is an informational notice.
	NoticeInfo NoticeKind = iota
	// NoticeError is an error notice, shown longer so it can be read.
	NoticeError
)

// Auto-dismiss durations per kind.
const (
	infoNoticeDuration  = 4 * time.Second
	errorNoticeDuration = 8 * time.Second
)

// Notice is a non-blocking message shown in the status bar. It never
// interrupts input; it simply ages out.
type Notice struct {
	ID        int
	Kind      NoticeKind
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// NoticeExpiredMsg is delivered when a notice's display time is up.
type NoticeExpiredMsg struct {
	ID int
}

var (
	noticeIDMu sync.Mutex
	noticeID   int
)

func nextNoticeID() int {
	noticeIDMu.Lock()
	defer noticeIDMu.Unlock()
	noticeID++
	return noticeID
}

// NewInfoNotice creates an informational notice.
func NewInfoNotice(message string) Notice {
	return Notice{
		ID:        nextNoticeID(),
		Kind:      NoticeInfo,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  infoNoticeDuration,
	}
}

// NewErrorNotice creates an error notice.
func NewErrorNotice(message string) Notice {
	return Notice{
		ID:        nextNoticeID(),
		Kind:      NoticeError,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  errorNoticeDuration,
	}
}

// ExpireCmd returns a command that fires when the notice should be
// dismissed.
func (n Notice) ExpireCmd() tea.Cmd {
	id := n.ID
	return tea.Tick(n.Duration, func(time.Time) tea.Msg {
		return NoticeExpiredMsg{ID: id}
	})
}

// Render returns the styled notice text.
func (n Notice) Render(theme *styles.Theme) string {
	switch n.Kind {
	case NoticeError:
		return theme.NoticeError.Render(n.Message)
	default:
		return theme.NoticeInfo.Render(n.Message)
	}
}
