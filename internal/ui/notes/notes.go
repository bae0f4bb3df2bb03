// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notes provides the vault sidebar for the sidenote TUI: a
// navigable list of the notes in the vault.
package notes

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sidenote-ai/sidenote-tui/internal/ui/styles"
	"github.com/sidenote-ai/sidenote-tui/internal/util"
	"github.com/sidenote-ai/sidenote-tui/internal/vault"
)

// NoteSelectedMsg is emitted when the user opens a note.
type NoteSelectedMsg struct {
	DocID string
	Title string
}

// KeyMap defines the sidebar bindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous note"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next note"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open note"),
		),
	}
}

// Model is the sidebar list.
type Model struct {
	theme *styles.Theme

	notes    []vault.Note
	cursor   int
	activeID string

	width   int
	height  int
	offset  int
	focused bool

	keyMap KeyMap
}

// New creates an empty sidebar.
func New(theme *styles.Theme) Model {
	return Model{
		theme:  theme,
		keyMap: DefaultKeyMap(),
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// SetSize resizes the sidebar.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.clampScroll()
}

// SetNotes replaces the list. The cursor follows the previously
// selected note when it still exists.
func (m *Model) SetNotes(notes []vault.Note) {
	prevID := ""
	if m.cursor < len(m.notes) {
		prevID = m.notes[m.cursor].ID
	}

	m.notes = notes
	m.cursor = 0
	for i, n := range notes {
		if n.ID == prevID {
			m.cursor = i
			break
		}
	}
	m.clampScroll()
}

// SetActive marks the note whose conversation is open.
func (m *Model) SetActive(docID string) {
	m.activeID = docID
}

// Selected returns the note under the cursor.
func (m Model) Selected() (vault.Note, bool) {
	if m.cursor < 0 || m.cursor >= len(m.notes) {
		return vault.Note{}, false
	}
	return m.notes[m.cursor], true
}

// Len reports how many notes are listed.
func (m Model) Len() int {
	return len(m.notes)
}

// Focus gives keyboard focus to the sidebar.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard focus.
func (m *Model) Blur() { m.focused = false }

// Focused reports whether the sidebar has focus.
func (m Model) Focused() bool { return m.focused }

// =============================================================================
// UPDATE / VIEW
// =============================================================================

// Update handles sidebar input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampScroll()

	case key.Matches(keyMsg, m.keyMap.Down):
		if m.cursor < len(m.notes)-1 {
			m.cursor++
		}
		m.clampScroll()

	case key.Matches(keyMsg, m.keyMap.Select):
		if note, ok := m.Selected(); ok {
			return m, func() tea.Msg {
				return NoteSelectedMsg{DocID: note.ID, Title: note.Title}
			}
		}
	}

	return m, nil
}

// View renders the list.
func (m Model) View() string {
	if len(m.notes) == 0 {
		return m.theme.NoteMeta.Render("no notes found")
	}

	visible := m.height
	if visible <= 0 {
		visible = len(m.notes)
	}

	var b strings.Builder
	end := m.offset + visible
	if end > len(m.notes) {
		end = len(m.notes)
	}

	for i := m.offset; i < end; i++ {
		n := m.notes[i]

		marker := "  "
		if n.ID == m.activeID {
			marker = "* "
		}
		title := util.TruncateWidth(n.Title, m.width-3)

		// Pad so the selection highlight spans the full row.
		line := util.PadRight(marker+title, m.width)
		if i == m.cursor && m.focused {
			line = m.theme.NoteSelected.Render(line)
		} else {
			line = m.theme.NoteItem.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// clampScroll keeps the cursor row inside the visible window.
func (m *Model) clampScroll() {
	if m.height <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
