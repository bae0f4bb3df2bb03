// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation implements the chat turn lifecycle for the
// active document.
package conversation

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/sidenote-ai/sidenote-tui/internal/model"
	"github.com/sidenote-ai/sidenote-tui/internal/ollama"
)

// =============================================================================
// STATE
// =============================================================================

// State is the controller's request lifecycle state.
type State int

const (
	// StateIdle means no request is in flight; input is accepted.
	StateIdle State = iota
	// StateSending means a request was submitted and its response has
	// not completed yet. Further submissions are rejected.
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// ErrNotSending is returned by Generate when no submitted request is
// awaiting a response.
var ErrNotSending = errors.New("no submitted request awaiting a response")

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Store persists chat logs per document.
type Store interface {
	History(docID string) (*model.Log, error)
	SaveHistory(docID string, log *model.Log) error
}

// Completer issues streaming chat requests.
type Completer interface {
	ChatStream(ctx context.Context, modelName string, messages []ollama.Message, callback ollama.StreamCallback) error
}

// NoteSource resolves a document id to its current text. The
// controller never holds note content itself; it asks at request time
// so edits made since the last turn are picked up.
type NoteSource interface {
	Text(docID string) (string, error)
}

// =============================================================================
// PROMPTS
// =============================================================================

const systemPrompt = "You are a writing companion embedded in a note-taking " +
	"app. Answer the user's questions about their active note clearly and " +
	"concisely. Use Markdown formatting where it helps."

func noteContext(text string) string {
	return "The user's active note follows between the markers.\n---\n" +
		text +
		"\n---\nTreat it as the primary context for their questions."
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the state machine behind the chat panel. One
// controller tracks one active document at a time; switching documents
// swaps the log it operates on.
//
// All exported methods are safe for concurrent use. Streaming runs in
// the caller's goroutine (Generate blocks); cancellation comes in from
// other goroutines via Cancel, Reset and SetActiveDocument.
type Controller struct {
	mu        sync.Mutex
	state     State
	docID     string
	log       *model.Log
	modelName string

	store     Store
	completer Completer
	notes     NoteSource
	logger    *log.Logger
	cancelMgr *cancelGuard
}

// Option configures a Controller.
type Option func(*Controller)

// WithModel sets the model used for generated responses.
func WithModel(name string) Option {
	return func(c *Controller) { c.modelName = name }
}

// WithLogger sets the logger for persistence failures, which are
// logged rather than surfaced.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a controller with no active document. notes may be nil
// when no document context should be attached to requests.
func New(store Store, completer Completer, notes NoteSource, opts ...Option) *Controller {
	c := &Controller{
		state:     StateIdle,
		log:       model.NewLog(),
		store:     store,
		completer: completer,
		notes:     notes,
		logger:    log.New(io.Discard, "", 0),
		cancelMgr: newCancelGuard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveDocument returns the id of the document the log belongs to.
func (c *Controller) ActiveDocument() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docID
}

// History returns a snapshot of the current log. The snapshot is a
// deep copy, safe to read while a stream appends to the live log.
func (c *Controller) History() *model.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Clone()
}

// Model returns the model used for responses.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelName
}

// SetModel changes the model used for subsequent responses.
func (c *Controller) SetModel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelName = name
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// Submit appends a request entry for the given text and moves to
// Sending. Returns false without side effects when the trimmed text
// is empty or a request is already in flight.
func (c *Controller) Submit(text string) bool {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if trimmed == "" || c.state == StateSending {
		return false
	}

	c.log.Append(model.NewRequest(trimmed))
	c.persistLocked()
	c.state = StateSending
	return true
}

// Generate produces the response for the last submitted request. It
// appends a response placeholder, streams tokens into it (forwarding
// each to onToken), and blocks until the stream finishes.
//
// On success or failure the log is persisted and the controller
// returns to Idle; the error, if any, is returned for the UI to
// surface. On cancellation the partial text stays in memory, nothing
// is persisted, and no error is returned.
func (c *Controller) Generate(ctx context.Context, onToken func(token string)) error {
	c.mu.Lock()
	if c.state != StateSending {
		c.mu.Unlock()
		return ErrNotSending
	}

	placeholder := model.NewResponse(c.modelName)
	c.log.Append(placeholder)
	messages := c.buildMessagesLocked()
	docID := c.docID
	modelName := c.modelName
	c.mu.Unlock()

	reqCtx, cancel := context.WithCancel(ctx)
	c.cancelMgr.set(cancel)
	defer c.cancelMgr.cancel()

	err := c.completer.ChatStream(reqCtx, modelName, messages, func(chunk ollama.StreamChunk) {
		if chunk.Content == "" {
			return
		}
		c.mu.Lock()
		placeholder.AppendToken(chunk.Content)
		c.mu.Unlock()
		if onToken != nil {
			onToken(chunk.Content)
		}
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	// The document may have switched or the log been reset while the
	// stream was in flight. The placeholder is gone from the live log
	// then, and there is nothing left to finalize here.
	if c.docID != docID || c.log.Last() != placeholder {
		return nil
	}

	c.state = StateIdle

	// An empty placeholder is dropped; one with partial or complete
	// text is finalized in place.
	if !c.log.DropTrailingPlaceholder() {
		placeholder.FinalizeStream()
	}

	if err != nil && ollama.IsCancelled(err) {
		// Intentional stop: keep what arrived in memory only.
		return nil
	}

	c.persistLocked()
	return err
}

// Cancel aborts the in-flight request, if any. Idempotent.
func (c *Controller) Cancel() {
	c.cancelMgr.cancel()
}

// Reset aborts any in-flight request, clears the active document's
// log and persists the empty log.
func (c *Controller) Reset() {
	c.cancelMgr.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = model.NewLog()
	c.state = StateIdle
	c.persistLocked()
}

// SetActiveDocument switches the controller to another document:
// aborts any in-flight request, persists the outgoing log if it has
// entries, and loads the stored log of the new document (empty when
// none exists). Passing the current id is a no-op.
func (c *Controller) SetActiveDocument(docID string) {
	c.mu.Lock()
	if docID == c.docID {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.cancelMgr.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.DropTrailingPlaceholder()
	if c.docID != "" && !c.log.IsEmpty() {
		c.persistLocked()
	}

	c.docID = docID
	c.state = StateIdle

	if docID == "" {
		c.log = model.NewLog()
		return
	}

	loaded, err := c.store.History(docID)
	if err != nil {
		c.logger.Printf("load history for %s: %v", docID, err)
		loaded = model.NewLog()
	}
	c.log = loaded
}

// =============================================================================
// INTERNAL
// =============================================================================

// buildMessagesLocked assembles the outgoing message list: the fixed
// system instruction, the active note's text as extra context when
// available, then the log mapped to chat roles. The trailing response
// placeholder and empty entries are skipped. Caller must hold c.mu.
func (c *Controller) buildMessagesLocked() []ollama.Message {
	messages := []ollama.Message{ollama.NewSystemMessage(systemPrompt)}

	if c.notes != nil && c.docID != "" {
		text, err := c.notes.Text(c.docID)
		if err != nil {
			c.logger.Printf("read note %s: %v", c.docID, err)
		} else if strings.TrimSpace(text) != "" {
			messages = append(messages, ollama.NewSystemMessage(noteContext(text)))
		}
	}

	for _, e := range c.log.Entries {
		if e.IsPlaceholder() {
			continue
		}
		text := e.DisplayText()
		if strings.TrimSpace(text) == "" {
			continue
		}
		switch e.Kind {
		case model.KindRequest:
			messages = append(messages, ollama.NewUserMessage(text))
		case model.KindResponse:
			messages = append(messages, ollama.NewAssistantMessage(text))
		}
	}

	return messages
}

// persistLocked writes the current log through the store. Persistence
// failures are logged, never fatal: the in-memory session stays
// usable. Caller must hold c.mu.
func (c *Controller) persistLocked() {
	if c.docID == "" {
		return
	}
	if err := c.store.SaveHistory(c.docID, c.log); err != nil {
		c.logger.Printf("persist history for %s: %v", c.docID, err)
	}
}
