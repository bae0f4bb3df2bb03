// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settingsview provides the settings overlay for the sidenote
// TUI: a model picker fed from the server's model list, plus the
// follow-up suggestions toggle.
package settingsview

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sidenote-ai/sidenote-tui/internal/ollama"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ModelChosenMsg is emitted when the user picks a model.
type ModelChosenMsg struct {
	Model string
}

// RecommendationsToggledMsg is emitted when the suggestions toggle
// flips.
type RecommendationsToggledMsg struct {
	Enabled bool
}

// RefreshModelsMsg asks the application to re-query the model list.
type RefreshModelsMsg struct{}

// ClearHistoriesMsg asks the application to delete all stored
// conversations.
type ClearHistoriesMsg struct{}

// CloseMsg asks the application to dismiss the overlay.
type CloseMsg struct{}

// ModelsLoadedMsg delivers the model list. A failed query arrives
// with an empty list and the error; the overlay stays usable either
// way.
type ModelsLoadedMsg struct {
	Models []ollama.ModelInfo
	Err    error
}

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the overlay bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Toggle   key.Binding
	Refresh  key.Binding
	ClearAll key.Binding
	Close    key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous model"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next model"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "use model"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle suggestions"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh models"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear all conversations"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("Esc", "close"),
		),
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the settings overlay.
type Model struct {
	theme *styles.Theme

	models  []ollama.ModelInfo
	cursor  int
	loading bool
	loadErr error

	currentModel    string
	recommendations bool

	width  int
	keyMap KeyMap
}

// New creates the overlay seeded with the current settings.
func New(theme *styles.Theme, currentModel string, recommendations bool) Model {
	return Model{
		theme:           theme,
		loading:         true,
		currentModel:    currentModel,
		recommendations: recommendations,
		keyMap:          DefaultKeyMap(),
	}
}

// SetWidth caps the overlay width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// CurrentModel returns the active model name.
func (m Model) CurrentModel() string {
	return m.currentModel
}

// RecommendationsEnabled reports the toggle state.
func (m Model) RecommendationsEnabled() bool {
	return m.recommendations
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles overlay input and model list results.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ModelsLoadedMsg:
		m.loading = false
		m.loadErr = msg.Err
		m.models = msg.Models
		m.cursor = 0
		for i, info := range msg.Models {
			if info.Name == m.currentModel {
				m.cursor = i
				break
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keyMap.Down):
		if m.cursor < len(m.models)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keyMap.Select):
		if m.cursor < len(m.models) {
			m.currentModel = m.models[m.cursor].Name
			chosen := m.currentModel
			return m, func() tea.Msg { return ModelChosenMsg{Model: chosen} }
		}

	case key.Matches(msg, m.keyMap.Toggle):
		m.recommendations = !m.recommendations
		enabled := m.recommendations
		return m, func() tea.Msg { return RecommendationsToggledMsg{Enabled: enabled} }

	case key.Matches(msg, m.keyMap.Refresh):
		m.loading = true
		m.loadErr = nil
		return m, func() tea.Msg { return RefreshModelsMsg{} }

	case key.Matches(msg, m.keyMap.ClearAll):
		return m, func() tea.Msg { return ClearHistoriesMsg{} }

	case key.Matches(msg, m.keyMap.Close):
		return m, func() tea.Msg { return CloseMsg{} }
	}
	return m, nil
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the overlay.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.OverlayTitle.Render("Settings"))
	b.WriteString("\n\n")

	b.WriteString(m.theme.SettingKey.Render("Suggestions: "))
	if m.recommendations {
		b.WriteString(m.theme.SettingValue.Render("on"))
	} else {
		b.WriteString(m.theme.SettingValue.Render("off"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.theme.SettingKey.Render("Model"))
	b.WriteString("\n")
	b.WriteString(m.renderModels())
	b.WriteString("\n\n")
	b.WriteString(m.theme.Help.Render("Enter use model  t toggle suggestions  r refresh  X clear history  Esc close"))

	return m.theme.Overlay.Render(b.String())
}

func (m Model) renderModels() string {
	switch {
	case m.loading:
		return m.theme.SuggestionDim.Render("loading models...")
	case m.loadErr != nil:
		return m.theme.NoticeError.Render("model list unavailable: " + m.loadErr.Error())
	case len(m.models) == 0:
		return m.theme.SuggestionDim.Render("no models installed")
	}

	var lines []string
	for i, info := range m.models {
		marker := "  "
		if info.Name == m.currentModel {
			marker = "* "
		}
		line := marker + info.Name + "  " + info.FormatSize()
		if i == m.cursor {
			line = m.theme.NoteSelected.Render(line)
		} else {
			line = m.theme.NoteItem.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
