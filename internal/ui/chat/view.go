// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sidenote-ai/sidenote-tui/internal/model"
	"github.com/sidenote-ai/sidenote-tui/internal/recommend"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/components"
	"github.com/sidenote-ai/sidenote-tui/internal/util"
)

// Rows reserved for the suggestion block: a header line plus up to
// five questions.
const suggestionRows = 6

// View renders the panel: conversation viewport, suggestion row and
// input line.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.showSuggest {
		b.WriteString(m.renderSuggestions())
		b.WriteString("\n")
	}

	b.WriteString(m.theme.InputContainer.Width(m.width).Render(m.input.View()))
	return b.String()
}

// =============================================================================
// CONVERSATION RENDERING
// =============================================================================

// refreshViewport rebuilds the viewport content from the entry
// snapshot and the in-flight stream text.
func (m *Model) refreshViewport() {
	if m.viewport.Width == 0 {
		return
	}

	var sections []string
	for _, e := range m.entries {
		sections = append(sections, m.renderEntry(e))
	}
	if m.state == StateSending {
		sections = append(sections, m.renderInFlight())
	}

	if len(sections) == 0 {
		hint := m.theme.Help.Render("Ask a question about the open note to get started.")
		sections = append(sections, hint)
	}

	m.viewport.SetContent(strings.Join(sections, "\n\n"))
}

// renderInFlight renders the response currently being streamed. It is
// not in the entry snapshot yet; the controller adds it once the
// stream finishes.
func (m *Model) renderInFlight() string {
	label := m.theme.ResponseLabel.Render("Assistant")
	if m.streamText == "" {
		return label + "\n" + m.spinner.View() + m.theme.Help.Render(" thinking...")
	}
	// Full markdown rendering is too jumpy mid-stream; highlight code
	// fences and leave prose as-is until the stream ends.
	return label + "\n" + components.HighlightFences(m.streamText, m.viewport.Width-2)
}

// renderEntry renders one exchange side with its label line.
func (m *Model) renderEntry(e *model.Entry) string {
	ts := m.theme.Timestamp.Render(e.CreatedAt.Format("15:04"))

	if e.Kind == model.KindRequest {
		label := m.theme.RequestLabel.Render("You") + " " + ts
		return label + "\n" + m.theme.RequestText.Render(e.DisplayText())
	}

	name := "Assistant"
	if e.Model != "" {
		name = e.Model
	}
	label := m.theme.ResponseLabel.Render(name) + " " + ts
	return label + "\n" + m.markdown.Render(e.DisplayText())
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// renderSuggestions renders the follow-up question block under the
// conversation.
func (m Model) renderSuggestions() string {
	header := m.theme.SuggestionIndex.Render("Follow-ups")

	switch m.suggestions.Status {
	case recommend.StatusLoading:
		return header + "\n" + m.theme.SuggestionDim.Render("thinking of questions...")
	case recommend.StatusError:
		return header + "\n" + m.theme.SuggestionDim.Render("suggestions unavailable")
	}

	lines := []string{header}
	for i, q := range m.suggestions.Questions {
		num := m.theme.SuggestionIndex.Render(strconv.Itoa(i+1) + ".")
		text := m.theme.Suggestion.Render(util.TruncateWidth(q, m.width-5))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, num, " ", text))
	}
	return strings.Join(lines, "\n")
}
