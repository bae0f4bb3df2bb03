// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sidenote-ai/sidenote-tui/internal/recommend"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/styles"
)

func newTestPanel(t *testing.T) Model {
	t.Helper()
	m := New(styles.NewTheme("dark"))
	m.SetSize(80, 24)
	return m
}

// runCmd executes a command and returns the message it produces.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestSubmitEmitsMessage(t *testing.T) {
	m := newTestPanel(t)
	m.SetInputValue("  what is this note about?  ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	raw := runCmd(t, cmd)
	msg, ok := raw.(SubmitMsg)
	if !ok {
		t.Fatalf("expected SubmitMsg, got %T", raw)
	}
	if msg.Text != "what is this note about?" {
		t.Errorf("Text = %q", msg.Text)
	}
	if m.InputValue() != "" {
		t.Error("input should clear after submit")
	}
}

func TestSubmitIgnoredWhileSending(t *testing.T) {
	m := newTestPanel(t)
	m, _ = m.Update(StreamStartMsg{DocID: "note.md"})
	if !m.Sending() {
		t.Fatal("panel should be sending after StreamStartMsg")
	}

	m.SetInputValue("second question")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("submit while sending should emit nothing")
	}
	if m.InputValue() != "second question" {
		t.Error("input should be preserved when submit is rejected")
	}
}

func TestCancelOnlyWhileSending(t *testing.T) {
	m := newTestPanel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Error("esc while idle should emit nothing")
	}

	m, _ = m.Update(StreamStartMsg{DocID: "note.md"})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := runCmd(t, cmd).(CancelMsg); !ok {
		t.Error("esc while sending should emit CancelMsg")
	}
}

func TestStreamTickDrainsBuffer(t *testing.T) {
	m := newTestPanel(t)
	m, _ = m.Update(StreamStartMsg{DocID: "note.md"})

	for i := 0; i < 20; i++ {
		m.Buffer.Write("tok ")
	}
	m, _ = m.Update(StreamTickMsg{})
	if m.streamText == "" {
		t.Error("tick should drain buffered tokens into the view")
	}

	m.Buffer.Write("end")
	m, _ = m.Update(StreamCompleteMsg{DocID: "note.md"})
	if m.Sending() {
		t.Error("complete should return panel to idle")
	}
	if got := m.streamText; got[len(got)-3:] != "end" {
		t.Errorf("trailing tokens should be force-flushed, got %q", got)
	}
}

func TestDigitPicksSuggestion(t *testing.T) {
	m := newTestPanel(t)
	m.SetSuggestions(recommend.Set{
		DocID:     "note.md",
		Status:    recommend.StatusReady,
		Questions: []string{"First?", "Second?", "Third?", "Fourth?", "Fifth?"},
	}, true)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	raw := runCmd(t, cmd)
	msg, ok := raw.(SuggestionPickedMsg)
	if !ok {
		t.Fatalf("expected SuggestionPickedMsg, got %T", raw)
	}
	if msg.Question != "Second?" {
		t.Errorf("Question = %q", msg.Question)
	}
}

func TestDigitTypesWhenInputNonEmpty(t *testing.T) {
	m := newTestPanel(t)
	m.SetSuggestions(recommend.Set{
		DocID:     "note.md",
		Status:    recommend.StatusReady,
		Questions: []string{"First?"},
	}, true)
	m.SetInputValue("version ")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	if m.InputValue() != "version 1" {
		t.Errorf("input = %q, digit should type normally", m.InputValue())
	}
}

func TestViewShowsSuggestionStates(t *testing.T) {
	m := newTestPanel(t)

	m.SetSuggestions(recommend.Set{DocID: "a.md", Status: recommend.StatusLoading}, true)
	if v := m.View(); v == "" {
		t.Fatal("view should render while loading")
	}

	m.SetSuggestions(recommend.Set{
		DocID:     "a.md",
		Status:    recommend.StatusReady,
		Questions: []string{"Only one?"},
	}, true)
	if v := m.View(); v == "" {
		t.Fatal("view should render with suggestions")
	}
}
