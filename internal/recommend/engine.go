// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recommend produces follow-up question suggestions for the
// active note.
package recommend

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sidenote-ai/sidenote-tui/internal/ollama"
	"github.com/sidenote-ai/sidenote-tui/internal/util"
)

// maxContextRunes caps how much note text is sent with a suggestion
// request. Large notes are truncated, not rejected.
const maxContextRunes = 20000

const suggestPrompt = "You suggest follow-up questions for notes. " +
	"Given a note, reply with a JSON array of exactly 5 short questions " +
	"the author might ask about it next. Reply with the JSON array only, " +
	"no prose and no code fences."

// suggestOptions keeps suggestion output terse and stable; question
// lists do not benefit from a creative temperature.
var suggestOptions = &ollama.Options{Temperature: 0.3}

// =============================================================================
// SUGGESTION SET
// =============================================================================

// Status describes the lifecycle of a suggestion set.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Set is the suggestion state for one document.
type Set struct {
	DocID     string
	Questions []string
	Status    Status
	Err       error
}

// =============================================================================
// ENGINE
// =============================================================================

// Completer issues buffered chat requests.
type Completer interface {
	ChatWithOptions(ctx context.Context, modelName string, messages []ollama.Message, format string, opts *ollama.Options) (*ollama.ChatResponse, error)
}

// Engine fetches and memoizes suggestion sets per document. Refresh
// blocks, so callers run it off the UI goroutine; starting a new
// refresh cancels the previous in-flight one.
type Engine struct {
	completer Completer
	limiter   *rate.Limiter
	logger    *log.Logger

	mu         sync.Mutex
	modelName  string
	cache      map[string]Set
	cancelFunc context.CancelFunc
	cancelGen  uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel sets the model used for suggestion requests.
func WithModel(name string) Option {
	return func(e *Engine) { e.modelName = name }
}

// WithLogger sets the logger for background failures.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLimiter overrides the refresh rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// New creates an engine. The default limiter allows a burst of one
// refresh per two seconds, so a retry key cannot hammer the server.
func New(completer Completer, opts ...Option) *Engine {
	e := &Engine{
		completer: completer,
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		logger:    log.New(io.Discard, "", 0),
		cache:     map[string]Set{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetModel changes the model used for subsequent refreshes.
func (e *Engine) SetModel(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modelName = name
}

// Cached returns the memoized set for a document, if any.
func (e *Engine) Cached(docID string) (Set, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	set, ok := e.cache[docID]
	return set, ok
}

// Invalidate drops the memoized set for a document, typically after
// the note changed on disk.
func (e *Engine) Invalidate(docID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cache, docID)
}

// Refresh returns suggestions for a document. A memoized ready set is
// returned as-is unless force is true. Otherwise one chat request is
// issued with the (truncated) note text; the reply is parsed
// leniently and an unparseable reply falls back to the built-in
// questions, so a ready set always has exactly MaxQuestions entries.
//
// A refresh that gets cancelled (superseded or shut down) reports the
// last known set, or loading state, never an error.
func (e *Engine) Refresh(ctx context.Context, docID, text string, force bool) Set {
	e.mu.Lock()
	if !force {
		if cached, ok := e.cache[docID]; ok && cached.Status == StatusReady {
			e.mu.Unlock()
			return cached
		}
	}
	modelName := e.modelName

	// Supersede any in-flight refresh.
	if e.cancelFunc != nil {
		e.cancelFunc()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	e.cancelFunc = cancel
	e.cancelGen++
	gen := e.cancelGen
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		// A superseded refresh must not clear a newer refresh's
		// cancel handle, or the next refresh cannot supersede it.
		if e.cancelGen == gen {
			e.cancelFunc = nil
		}
		e.mu.Unlock()
	}()

	if err := e.limiter.Wait(reqCtx); err != nil {
		return e.cancelledSet(docID)
	}

	messages := []ollama.Message{
		ollama.NewSystemMessage(suggestPrompt),
		ollama.NewUserMessage(buildNoteMessage(text)),
	}

	resp, err := e.completer.ChatWithOptions(reqCtx, modelName, messages, "json", suggestOptions)
	if err != nil {
		if ollama.IsCancelled(err) {
			return e.cancelledSet(docID)
		}
		e.logger.Printf("suggestions for %s: %v", docID, err)
		set := Set{DocID: docID, Status: StatusError, Err: err}
		e.store(set)
		return set
	}
	e.logger.Printf("suggestions for %s: %d tokens at %.1f tok/s", docID, resp.EvalCount, resp.TokensPerSecond())

	questions := ParseQuestions(resp.Message.Content)
	if len(questions) == 0 {
		questions = DefaultQuestions()
	}

	set := Set{DocID: docID, Questions: questions, Status: StatusReady}
	e.store(set)
	return set
}

func (e *Engine) store(set Set) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[set.DocID] = set
}

// cancelledSet reports a superseded refresh: the memoized set when
// one exists, otherwise loading state. Cancellation is never an
// error.
func (e *Engine) cancelledSet(docID string) Set {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cached, ok := e.cache[docID]; ok {
		return cached
	}
	return Set{DocID: docID, Status: StatusLoading}
}

// buildNoteMessage wraps the note text for the request, truncating
// oversized notes.
func buildNoteMessage(text string) string {
	var b strings.Builder
	b.WriteString("Note content:\n")
	b.WriteString(util.TruncateRunes(text, maxContextRunes))
	return b.String()
}
