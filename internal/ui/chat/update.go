// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sidenote-ai/sidenote-tui/internal/recommend"
)

// Update handles panel messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		// The buffer is not reset here: the first tokens may already
		// be in it by the time this message is processed. The caller
		// resets it before starting the stream.
		m.state = StateSending
		m.streamText = ""
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, tea.Batch(m.spinner.Tick, streamTickCmd())

	case StreamTickMsg:
		if m.state != StateSending {
			return m, nil
		}
		if chunk, ok := m.Buffer.Flush(); ok {
			m.streamText += chunk
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
		return m, streamTickCmd()

	case StreamCompleteMsg:
		if chunk, ok := m.Buffer.ForceFlush(); ok {
			m.streamText += chunk
		}
		m.state = StateIdle
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case SuggestionsMsg:
		m.suggestions = msg.Set
		m.SetSize(m.width, m.height)
		return m, nil

	case spinner.TickMsg:
		if m.state != StateSending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.streamText == "" {
			// The spinner is part of the viewport content while we
			// wait for the first token.
			m.refreshViewport()
		}
		return m, cmd
	}

	// Cursor blink and other component messages.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey routes keyboard input between the input field, the
// viewport and the panel-level actions.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.state == StateSending {
			return m, nil
		}
		m.input.Reset()
		return m, emit(SubmitMsg{Text: text})

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state != StateSending {
			return m, nil
		}
		return m, emit(CancelMsg{})

	case key.Matches(msg, m.keyMap.Reset):
		return m, emit(ResetRequestMsg{})

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	// Digits pick a suggestion, but only while the input is empty so
	// questions containing numbers can still be typed.
	if q, ok := m.suggestionForKey(msg); ok {
		return m, emit(SuggestionPickedMsg{Question: q})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// suggestionForKey maps keys 1-5 to a visible suggestion.
func (m Model) suggestionForKey(msg tea.KeyMsg) (string, bool) {
	if m.input.Value() != "" || !m.showSuggest {
		return "", false
	}
	if m.suggestions.Status != recommend.StatusReady {
		return "", false
	}
	s := msg.String()
	if len(s) != 1 || s[0] < '1' || s[0] > '5' {
		return "", false
	}
	idx := int(s[0] - '1')
	if idx >= len(m.suggestions.Questions) {
		return "", false
	}
	return m.suggestions.Questions[idx], true
}

// emit wraps a message in a command.
func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
