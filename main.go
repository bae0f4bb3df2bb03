// sidenote TUI - chat with a local model about the note you are reading.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sidenote-ai/sidenote-tui/internal/config"
	"github.com/sidenote-ai/sidenote-tui/internal/conversation"
	"github.com/sidenote-ai/sidenote-tui/internal/model"
	"github.com/sidenote-ai/sidenote-tui/internal/ollama"
	"github.com/sidenote-ai/sidenote-tui/internal/recommend"
	"github.com/sidenote-ai/sidenote-tui/internal/settings"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/chat"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/components"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/notes"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/settingsview"
	"github.com/sidenote-ai/sidenote-tui/internal/ui/styles"
	"github.com/sidenote-ai/sidenote-tui/internal/vault"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference so background goroutines (vault watcher,
// token streaming) can deliver messages into the update loop.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// The vault watcher waits this long after the last write before
// reporting a note as changed, so an editor's save burst is one event.
const watchDebounce = 2 * time.Second

func main() {
	vaultFlag := flag.String("vault", "", "notes directory (overrides config)")
	modelFlag := flag.String("model", "", "model name (overrides config)")
	urlFlag := flag.String("ollama-url", "", "model server URL (overrides config)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("sidenote %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *vaultFlag != "" {
		cfg.VaultDir = *vaultFlag
	}
	if *urlFlag != "" {
		cfg.OllamaURL = *urlFlag
	}
	if *modelFlag != "" {
		cfg.DefaultModel = *modelFlag
	}
	config.SetGlobal(cfg)

	vaultDir := cfg.VaultDir
	if vaultDir == "" {
		vaultDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	v, err := vault.Open(vaultDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
		os.Exit(1)
	}

	dataDir, err := config.ConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := settings.Open(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening settings store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Startup config seeds the runtime settings; anything the user
	// changed in-app wins.
	stored, err := store.SettingsFrom(model.Settings{
		DefaultModel:           cfg.DefaultModel,
		RecommendationsEnabled: cfg.Recommendations,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading settings: %v\n", err)
		os.Exit(1)
	}
	if *modelFlag != "" {
		stored.DefaultModel = *modelFlag
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if os.Getenv("SIDENOTE_DEBUG") != "" {
		if f, err := tea.LogToFile("sidenote-debug.log", "sidenote"); err == nil {
			logger = log.New(f, "", log.LstdFlags)
			defer f.Close()
		}
	}

	client := ollama.Default(&ollama.ClientConfig{
		BaseURL:      cfg.OllamaURL,
		DefaultModel: stored.DefaultModel,
	})

	ctrl := conversation.New(store, client, v,
		conversation.WithModel(stored.DefaultModel),
		conversation.WithLogger(logger),
	)
	engine := recommend.New(client,
		recommend.WithModel(stored.DefaultModel),
		recommend.WithLogger(logger),
	)

	theme := styles.NewTheme(cfg.Theme)
	app := newApp(theme, cfg, store, v, client, ctrl, engine, stored)

	watcher, err := v.Watch(watchDebounce)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error watching vault: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()
	go func() {
		for e := range watcher.Events() {
			sendToProgram(vaultEventMsg{Event: e})
		}
	}()

	p := tea.NewProgram(app, tea.WithAltScreen())
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running sidenote: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// focusArea identifies which pane receives keyboard input.
type focusArea int

const (
	focusNotes focusArea = iota
	focusChat
)

// Messages owned by the root model.
type (
	// notesLoadedMsg delivers a vault listing.
	notesLoadedMsg struct {
		notes []vault.Note
		err   error
	}

	// vaultEventMsg wraps a watcher event.
	vaultEventMsg struct {
		Event vault.Event
	}

	// healthMsg reports the server health probe result.
	healthMsg struct {
		err error
	}
)

// App is the root Bubble Tea model. It owns the conversation
// controller and the suggestion engine; the panels are pure views
// that communicate through messages.
type App struct {
	theme *styles.Theme
	cfg   *config.Config

	width  int
	height int

	store  *settings.Store
	vault  *vault.Vault
	client *ollama.Client
	ctrl   *conversation.Controller
	engine *recommend.Engine

	chatPanel     chat.Model
	sidebar       notes.Model
	settingsPanel settingsview.Model
	showSettings  bool
	focus         focusArea

	recommendations bool
	connected       bool
	notices         []components.Notice
}

func newApp(
	theme *styles.Theme,
	cfg *config.Config,
	store *settings.Store,
	v *vault.Vault,
	client *ollama.Client,
	ctrl *conversation.Controller,
	engine *recommend.Engine,
	stored model.Settings,
) App {
	sidebar := notes.New(theme)
	sidebar.Focus()

	chatPanel := chat.New(theme)
	chatPanel.Blur()

	return App{
		theme:           theme,
		cfg:             cfg,
		store:           store,
		vault:           v,
		client:          client,
		ctrl:            ctrl,
		engine:          engine,
		chatPanel:       chatPanel,
		sidebar:         sidebar,
		settingsPanel:   settingsview.New(theme, stored.DefaultModel, stored.RecommendationsEnabled),
		focus:           focusNotes,
		recommendations: stored.RecommendationsEnabled,
	}
}

// Init loads the note list and probes the server.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.loadNotesCmd(),
		a.checkHealthCmd(),
		a.chatPanel.Init(),
	)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (a App) loadNotesCmd() tea.Cmd {
	v := a.vault
	return func() tea.Msg {
		list, err := v.List()
		return notesLoadedMsg{notes: list, err: err}
	}
}

func (a App) checkHealthCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthMsg{err: client.CheckRunning(ctx)}
	}
}

func (a App) listModelsCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		models, err := client.ListModels(ctx)
		return settingsview.ModelsLoadedMsg{Models: models, Err: err}
	}
}

// generateCmd runs the blocking stream for the active document.
// Tokens go straight into the chat panel's buffer; the tick loop
// drains them at a steady frame rate.
func (a App) generateCmd(docID string) tea.Cmd {
	ctrl := a.ctrl
	buf := a.chatPanel.Buffer
	return func() tea.Msg {
		err := ctrl.Generate(context.Background(), func(token string) {
			buf.Write(token)
		})
		return chat.StreamCompleteMsg{DocID: docID, Err: err}
	}
}

// suggestionsCmd refreshes the follow-up questions for a document.
func (a App) suggestionsCmd(docID string, force bool) tea.Cmd {
	v := a.vault
	engine := a.engine
	return func() tea.Msg {
		text, err := v.Text(docID)
		if err != nil {
			return chat.SuggestionsMsg{Set: recommend.Set{
				DocID:  docID,
				Status: recommend.StatusError,
				Err:    err,
			}}
		}
		return chat.SuggestionsMsg{Set: engine.Refresh(context.Background(), docID, text, force)}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages to the panels and handles the app-level
// actions they emit.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case notesLoadedMsg:
		if msg.err != nil {
			return a.notify(components.NewErrorNotice("reading vault: " + msg.err.Error()))
		}
		a.sidebar.SetNotes(msg.notes)
		return a, nil

	case vaultEventMsg:
		return a.handleVaultEvent(msg.Event)

	case healthMsg:
		a.connected = msg.err == nil
		if msg.err != nil {
			return a.notify(components.NewErrorNotice("model server unreachable"))
		}
		return a, nil

	case components.NoticeExpiredMsg:
		a.dropNotice(msg.ID)
		return a, nil

	// ---- emitted by the chat panel ----

	case chat.SubmitMsg:
		return a.handleSubmit(msg.Text)

	case chat.CancelMsg:
		a.ctrl.Cancel()
		return a, nil

	case chat.ResetRequestMsg:
		a.ctrl.Reset()
		a.chatPanel.SetEntries(a.ctrl.History().Entries)
		return a.notify(components.NewInfoNotice("conversation cleared"))

	case chat.SuggestionPickedMsg:
		a.chatPanel.SetInputValue(msg.Question)
		a.focusChat()
		return a, nil

	case chat.StreamCompleteMsg:
		var cmd tea.Cmd
		a.chatPanel, cmd = a.chatPanel.Update(msg)
		if msg.DocID == a.ctrl.ActiveDocument() {
			a.chatPanel.SetEntries(a.ctrl.History().Entries)
		}
		if msg.Err != nil {
			app, ncmd := a.notify(components.NewErrorNotice(msg.Err.Error()))
			return app, tea.Batch(cmd, ncmd)
		}
		return a, cmd

	case chat.SuggestionsMsg:
		// Stale results for a document the user already left are
		// dropped; the memoized set is still there when they return.
		if msg.Set.DocID != a.ctrl.ActiveDocument() || !a.recommendations {
			return a, nil
		}
		var cmd tea.Cmd
		a.chatPanel, cmd = a.chatPanel.Update(msg)
		return a, cmd

	// ---- emitted by the sidebar ----

	case notes.NoteSelectedMsg:
		return a.handleNoteSelected(msg)

	// ---- emitted by the settings overlay ----

	case settingsview.ModelChosenMsg:
		return a.handleModelChosen(msg.Model)

	case settingsview.RecommendationsToggledMsg:
		return a.handleRecommendationsToggled(msg.Enabled)

	case settingsview.RefreshModelsMsg:
		return a, a.listModelsCmd()

	case settingsview.ClearHistoriesMsg:
		return a.handleClearHistories()

	case settingsview.CloseMsg:
		a.showSettings = false
		return a, nil

	case settingsview.ModelsLoadedMsg:
		var cmd tea.Cmd
		a.settingsPanel, cmd = a.settingsPanel.Update(msg)
		if msg.Err != nil {
			app, ncmd := a.notify(components.NewErrorNotice("fetching models: " + msg.Err.Error()))
			return app, tea.Batch(cmd, ncmd)
		}
		return a, cmd
	}

	// Everything else (spinner ticks, stream ticks, blink) goes to
	// the chat panel.
	var cmd tea.Cmd
	a.chatPanel, cmd = a.chatPanel.Update(msg)
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	if a.showSettings {
		var cmd tea.Cmd
		a.settingsPanel, cmd = a.settingsPanel.Update(msg)
		return a, cmd
	}

	switch msg.Type {
	case tea.KeyTab:
		if a.focus == focusNotes {
			a.focusChat()
		} else {
			a.focusNotes()
		}
		return a, nil

	case tea.KeyCtrlO:
		a.showSettings = true
		return a, a.listModelsCmd()
	}

	if a.focus == focusNotes {
		var cmd tea.Cmd
		a.sidebar, cmd = a.sidebar.Update(msg)
		return a, cmd
	}
	var cmd tea.Cmd
	a.chatPanel, cmd = a.chatPanel.Update(msg)
	return a, cmd
}

func (a App) handleSubmit(text string) (tea.Model, tea.Cmd) {
	docID := a.ctrl.ActiveDocument()
	if docID == "" {
		return a.notify(components.NewInfoNotice("open a note first"))
	}
	if !a.ctrl.Submit(text) {
		return a, nil
	}
	a.chatPanel.SetEntries(a.ctrl.History().Entries)
	a.chatPanel.Buffer.Reset()

	start := func() tea.Msg { return chat.StreamStartMsg{DocID: docID} }
	return a, tea.Batch(start, a.generateCmd(docID))
}

func (a App) handleNoteSelected(msg notes.NoteSelectedMsg) (tea.Model, tea.Cmd) {
	a.ctrl.SetActiveDocument(msg.DocID)
	a.sidebar.SetActive(msg.DocID)
	a.chatPanel.SetDocument(msg.DocID, msg.Title)
	history := a.ctrl.History()
	a.chatPanel.SetEntries(history.Entries)
	a.focusChat()

	var cmds []tea.Cmd
	if last := history.Last(); last != nil && !last.IsEmpty() {
		n := components.NewInfoNotice("resumed: " + last.Preview(48))
		a.notices = append(a.notices, n)
		cmds = append(cmds, n.ExpireCmd())
	}

	if !a.recommendations {
		a.chatPanel.SetSuggestions(recommend.Set{}, false)
		return a, tea.Batch(cmds...)
	}

	// Show the memoized set immediately when there is one; the
	// refresh command resolves the loading state otherwise.
	if cached, ok := a.engine.Cached(msg.DocID); ok {
		a.chatPanel.SetSuggestions(cached, true)
		return a, tea.Batch(cmds...)
	}
	a.chatPanel.SetSuggestions(recommend.Set{
		DocID:  msg.DocID,
		Status: recommend.StatusLoading,
	}, true)
	cmds = append(cmds, a.suggestionsCmd(msg.DocID, false))
	return a, tea.Batch(cmds...)
}

func (a App) handleVaultEvent(e vault.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{a.loadNotesCmd()}

	switch e.Kind {
	case vault.EventModified:
		a.engine.Invalidate(e.DocID)
		if a.recommendations && e.DocID == a.ctrl.ActiveDocument() {
			cmds = append(cmds, a.suggestionsCmd(e.DocID, true))
		}
	case vault.EventRemoved:
		a.engine.Invalidate(e.DocID)
	}
	return a, tea.Batch(cmds...)
}

func (a App) handleModelChosen(name string) (tea.Model, tea.Cmd) {
	a.ctrl.SetModel(name)
	a.engine.SetModel(name)
	if err := a.store.SetDefaultModel(name); err != nil {
		return a.notify(components.NewErrorNotice("saving model choice: " + err.Error()))
	}
	return a.notify(components.NewInfoNotice("model set to " + name))
}

func (a App) handleClearHistories() (tea.Model, tea.Cmd) {
	a.ctrl.Cancel()
	if err := a.store.ClearHistory(); err != nil {
		return a.notify(components.NewErrorNotice("clearing histories: " + err.Error()))
	}
	// The active log lives in memory; reset it so the cleared state
	// is what the user sees (and what gets persisted next).
	a.ctrl.Reset()
	a.chatPanel.SetEntries(a.ctrl.History().Entries)
	return a.notify(components.NewInfoNotice("all conversations cleared"))
}

func (a App) handleRecommendationsToggled(enabled bool) (tea.Model, tea.Cmd) {
	a.recommendations = enabled
	if err := a.store.SetRecommendationsEnabled(enabled); err != nil {
		return a.notify(components.NewErrorNotice("saving setting: " + err.Error()))
	}

	docID := a.ctrl.ActiveDocument()
	if !enabled || docID == "" {
		a.chatPanel.SetSuggestions(recommend.Set{}, false)
		return a, nil
	}
	if cached, ok := a.engine.Cached(docID); ok {
		a.chatPanel.SetSuggestions(cached, true)
		return a, nil
	}
	a.chatPanel.SetSuggestions(recommend.Set{DocID: docID, Status: recommend.StatusLoading}, true)
	return a, a.suggestionsCmd(docID, false)
}

// =============================================================================
// FOCUS AND LAYOUT
// =============================================================================

func (a *App) focusChat() {
	a.focus = focusChat
	a.sidebar.Blur()
	a.chatPanel.Focus()
}

func (a *App) focusNotes() {
	a.focus = focusNotes
	a.chatPanel.Blur()
	a.sidebar.Focus()
}

// Sidebar column width, including its border.
const sidebarWidth = 30

func (a *App) layout() {
	if a.width == 0 || a.height == 0 {
		return
	}
	contentHeight := a.height - 2 // header and status bar

	a.sidebar.SetSize(sidebarWidth-4, contentHeight-2)
	a.chatPanel.SetSize(a.width-sidebarWidth-4, contentHeight-2)
	a.settingsPanel.SetWidth(a.width - 10)
}

// =============================================================================
// NOTICES
// =============================================================================

func (a App) notify(n components.Notice) (tea.Model, tea.Cmd) {
	a.notices = append(a.notices, n)
	return a, n.ExpireCmd()
}

func (a *App) dropNotice(id int) {
	kept := a.notices[:0]
	for _, n := range a.notices {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	a.notices = kept
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the full frame: header, sidebar and chat side by
// side, then the status bar.
func (a App) View() string {
	if a.width == 0 {
		return "starting..."
	}

	header := a.renderHeader()
	status := a.renderStatusBar()
	contentHeight := a.height - 2

	if a.showSettings {
		overlay := a.settingsPanel.View()
		centered := lipgloss.Place(a.width, contentHeight, lipgloss.Center, lipgloss.Center, overlay)
		return header + "\n" + centered + "\n" + status
	}

	sidebarStyle := a.theme.SidePanel
	chatStyle := a.theme.ChatPanel
	if a.focus == focusNotes {
		sidebarStyle = a.theme.FocusedPanel
	} else {
		chatStyle = a.theme.FocusedPanel
	}

	sidebar := sidebarStyle.
		Width(sidebarWidth - 2).
		Height(contentHeight - 2).
		Render(a.sidebar.View())
	chatView := chatStyle.
		Width(a.width - sidebarWidth - 2).
		Height(contentHeight - 2).
		Render(a.chatPanel.View())

	row := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chatView)
	return header + "\n" + row + "\n" + status
}

func (a App) renderHeader() string {
	title := a.theme.HeaderTitle.Render("sidenote")

	conn := a.theme.StatusError.Render("disconnected")
	if a.connected {
		conn = a.theme.StatusInfo.Render(a.ctrl.Model())
	}

	gap := a.width - lipgloss.Width(title) - lipgloss.Width(conn) - 2
	if gap < 1 {
		gap = 1
	}
	return a.theme.Header.Width(a.width).Render(
		title + lipgloss.NewStyle().Width(gap).Render("") + conn,
	)
}

func (a App) renderStatusBar() string {
	if len(a.notices) > 0 {
		latest := a.notices[len(a.notices)-1]
		return a.theme.StatusBar.Width(a.width).Render(latest.Render(a.theme))
	}

	help := "Tab switch pane  Enter send  Esc cancel  C-o settings  C-r reset  C-c quit"
	return a.theme.StatusBar.Width(a.width).Render(a.theme.Help.Render(help))
}
