// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation panel for the sidenote TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sidenote-ai/sidenote-tui/internal/model"
	"github.com/sidenote-ai/sidenote-tui/internal/recommend"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/components"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/styles"
)

// =============================================================================
// PANEL STATE
// =============================================================================

// State tracks whether a response is in flight.
type State int

const (
	StateIdle State = iota
	StateSending
)

// =============================================================================
// PANEL MODEL
// =============================================================================

// Model is the Bubble Tea model for the conversation panel. It is a
// pure view: the root application model owns the conversation
// controller and feeds entries back in through SetEntries.
type Model struct {
	state State
	theme *styles.Theme

	width  int
	height int

	// Conversation display. entries is a snapshot from the
	// controller; streamText accumulates the in-flight response on
	// top of it.
	entries    []*model.Entry
	streamText string
	docID      string
	docTitle   string

	// Token batching for the in-flight response. The generation
	// goroutine writes into Buffer directly.
	Buffer *StreamingBuffer

	// Suggestions for the active note.
	suggestions recommend.Set
	showSuggest bool

	// Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	markdown *components.MarkdownRenderer

	keyMap  KeyMap
	focused bool
}

// New creates the conversation panel.
func New(theme *styles.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about this note..."
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.CharLimit = 4000
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		state:    StateIdle,
		theme:    theme,
		Buffer:   NewStreamingBuffer(),
		viewport: vp,
		input:    ti,
		spinner:  sp,
		markdown: components.NewMarkdownRenderer(theme.IsDark),
		keyMap:   DefaultKeyMap(),
		focused:  true,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// ACCESSORS
// =============================================================================

// SetSize resizes the panel. The input keeps a fixed single row at
// the bottom; everything else goes to the viewport.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	inputRows := 2 // input line plus its top border
	suggestRows := 0
	if m.showSuggest {
		suggestRows = suggestionRows
	}
	vpHeight := height - inputRows - suggestRows
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 4
	m.markdown.SetWidth(width - 2)
	m.refreshViewport()
}

// SetDocument updates which note the panel is talking about.
func (m *Model) SetDocument(docID, title string) {
	m.docID = docID
	m.docTitle = title
}

// SetEntries replaces the displayed conversation snapshot.
func (m *Model) SetEntries(entries []*model.Entry) {
	m.entries = entries
	m.streamText = ""
	m.refreshViewport()
	m.viewport.GotoBottom()
}

// SetSuggestions replaces the suggestion row content.
func (m *Model) SetSuggestions(set recommend.Set, visible bool) {
	m.suggestions = set
	m.showSuggest = visible
	m.SetSize(m.width, m.height)
}

// Focus gives keyboard focus to the panel.
func (m *Model) Focus() {
	m.focused = true
	m.input.Focus()
}

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.focused = false
	m.input.Blur()
}

// Focused reports whether the panel has focus.
func (m Model) Focused() bool {
	return m.focused
}

// Sending reports whether a response is in flight.
func (m Model) Sending() bool {
	return m.state == StateSending
}

// InputValue returns the current input text.
func (m Model) InputValue() string {
	return m.input.Value()
}

// SetInputValue replaces the input text, placing the cursor at the
// end. Used when the user picks a suggestion.
func (m *Model) SetInputValue(text string) {
	m.input.SetValue(text)
	m.input.CursorEnd()
}
