// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components shared by the views. It detects
// the terminal's color capability once at startup.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Panels
	ChatPanel    lipgloss.Style
	SidePanel    lipgloss.Style
	FocusedPanel lipgloss.Style

	// Header and status bar
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	StatusBar   lipgloss.Style
	StatusInfo  lipgloss.Style
	StatusError lipgloss.Style

	// Chat entries
	RequestLabel  lipgloss.Style
	ResponseLabel lipgloss.Style
	RequestText   lipgloss.Style
	ResponseText  lipgloss.Style
	Timestamp     lipgloss.Style

	// Suggestions row
	Suggestion      lipgloss.Style
	SuggestionIndex lipgloss.Style
	SuggestionDim   lipgloss.Style

	// Notes sidebar
	NoteItem     lipgloss.Style
	NoteSelected lipgloss.Style
	NoteMeta     lipgloss.Style

	// Input
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// Settings overlay
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	SettingKey   lipgloss.Style
	SettingValue lipgloss.Style

	// Notices
	NoticeInfo  lipgloss.Style
	NoticeError lipgloss.Style

	// Misc
	Spinner lipgloss.Style
	Help    lipgloss.Style
}

// NewTheme builds the theme for the given mode ("dark" or "light").
func NewTheme(mode string) *Theme {
	isDark := mode != "light"
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}

	border := lipgloss.RoundedBorder()

	t.ChatPanel = lipgloss.NewStyle().
		Border(border).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidePanel = lipgloss.NewStyle().
		Border(border).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.FocusedPanel = lipgloss.NewStyle().
		Border(border).
		BorderForeground(Purple).
		Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusInfo = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose)

	t.RequestLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ResponseLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.RequestText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.ResponseText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	t.Suggestion = lipgloss.NewStyle().Foreground(TextSecondary)
	t.SuggestionIndex = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.SuggestionDim = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.NoteItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.NoteSelected = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.NoteMeta = lipgloss.NewStyle().Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(Overlay)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.Overlay = lipgloss.NewStyle().
		Border(border).
		BorderForeground(Purple).
		Padding(1, 2)
	t.OverlayTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		Underline(true)
	t.SettingKey = lipgloss.NewStyle().Foreground(TextSecondary)
	t.SettingValue = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)

	t.NoticeInfo = lipgloss.NewStyle().
		Foreground(Emerald).
		Padding(0, 1)
	t.NoticeError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true).
		Padding(0, 1)

	t.Spinner = lipgloss.NewStyle().Foreground(Amber)
	t.Help = lipgloss.NewStyle().Foreground(TextMuted)

	return t
}
