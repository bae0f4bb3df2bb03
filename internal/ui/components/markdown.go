// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders assistant responses as terminal markdown.
// Glamour renderers are bound to a wrap width, so the renderer is
// rebuilt lazily when the viewport width changes.
type MarkdownRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
	dark     bool
}

// NewMarkdownRenderer creates a renderer for the given theme mode.
func NewMarkdownRenderer(dark bool) *MarkdownRenderer {
	return &MarkdownRenderer{dark: dark}
}

// SetWidth updates the wrap width. The underlying glamour renderer is
// recreated on the next Render call.
func (m *MarkdownRenderer) SetWidth(width int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if width != m.width {
		m.width = width
		m.renderer = nil
	}
}

// Render converts markdown to styled terminal output. Rendering
// failures fall back to the original text so a response is never lost
// to a formatting problem.
func (m *MarkdownRenderer) Render(text string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderer == nil {
		width := m.width
		if width < 20 {
			width = 80
		}
		style := "dark"
		if !m.dark {
			style = "light"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		m.renderer = r
	}

	rendered, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	// Glamour pads output with leading and trailing blank lines that
	// waste viewport rows.
	return strings.Trim(rendered, "\n")
}
