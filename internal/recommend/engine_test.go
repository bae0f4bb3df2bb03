// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sidenote-ai/sidenote-tui/internal/ollama"
)

// fakeCompleter replies with a fixed payload and records requests.
type fakeCompleter struct {
	mu         sync.Mutex
	reply      string
	err        error
	calls      int
	lastMsg    []ollama.Message
	lastFormat string
	lastOpts   *ollama.Options
}

func (f *fakeCompleter) ChatWithOptions(ctx context.Context, modelName string, messages []ollama.Message, format string, opts *ollama.Options) (*ollama.ChatResponse, error) {
	f.mu.Lock()
	f.calls++
	f.lastMsg = messages
	f.lastFormat = format
	f.lastOpts = opts
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ollama.ChatResponse{
		Message: ollama.NewAssistantMessage(f.reply),
		Done:    true,
	}, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestEngine(f *fakeCompleter) *Engine {
	return New(f,
		WithModel("test-model"),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
}

func TestRefreshParsesQuestions(t *testing.T) {
	f := &fakeCompleter{reply: `["A?","B?","C?","D?","E?"]`}
	e := newTestEngine(f)

	set := e.Refresh(context.Background(), "a.md", "note text", false)

	require.Equal(t, StatusReady, set.Status)
	assert.Equal(t, []string{"A?", "B?", "C?", "D?", "E?"}, set.Questions)
	assert.Equal(t, "a.md", set.DocID)
}

func TestRefreshMemoizesPerDocument(t *testing.T) {
	f := &fakeCompleter{reply: `["Q1?","Q2?","Q3?","Q4?","Q5?"]`}
	e := newTestEngine(f)

	first := e.Refresh(context.Background(), "a.md", "text", false)
	second := e.Refresh(context.Background(), "a.md", "text", false)

	assert.Equal(t, 1, f.callCount(), "second refresh should hit the cache")
	assert.Equal(t, first.Questions, second.Questions)

	// A different document misses the cache.
	e.Refresh(context.Background(), "b.md", "other", false)
	assert.Equal(t, 2, f.callCount())

	// Force bypasses the cache.
	e.Refresh(context.Background(), "a.md", "text", true)
	assert.Equal(t, 3, f.callCount())
}

func TestRefreshInvalidate(t *testing.T) {
	f := &fakeCompleter{reply: `["Q?"]`}
	e := newTestEngine(f)

	e.Refresh(context.Background(), "a.md", "text", false)
	e.Invalidate("a.md")
	e.Refresh(context.Background(), "a.md", "changed text", false)

	assert.Equal(t, 2, f.callCount(), "invalidated document should refetch")
}

func TestRefreshTruncatesLargeNotes(t *testing.T) {
	f := &fakeCompleter{reply: `["Q?"]`}
	e := newTestEngine(f)

	huge := strings.Repeat("ä", maxContextRunes+5000)
	e.Refresh(context.Background(), "big.md", huge, false)

	require.Len(t, f.lastMsg, 2)
	sent := f.lastMsg[1].Content
	runes := len([]rune(sent))
	assert.LessOrEqual(t, runes, maxContextRunes+len("Note content:\n"))
}

func TestRefreshFallsBackOnMalformedReply(t *testing.T) {
	f := &fakeCompleter{reply: "Sorry, I can't help with that."}
	e := newTestEngine(f)

	set := e.Refresh(context.Background(), "a.md", "text", false)

	require.Equal(t, StatusReady, set.Status)
	assert.Equal(t, DefaultQuestions(), set.Questions)
	assert.Len(t, set.Questions, MaxQuestions, "fallback set is never empty")
}

func TestRefreshReportsErrors(t *testing.T) {
	f := &fakeCompleter{err: ollama.ErrNotRunning}
	e := newTestEngine(f)

	set := e.Refresh(context.Background(), "a.md", "text", false)

	require.Equal(t, StatusError, set.Status)
	assert.Error(t, set.Err)
	assert.Empty(t, set.Questions)

	// The error is not memoized as ready; a later refresh retries.
	f.err = nil
	f.reply = `["Q?"]`
	retry := e.Refresh(context.Background(), "a.md", "text", false)
	assert.Equal(t, StatusReady, retry.Status)
}

func TestRefreshRequestsJSONFormat(t *testing.T) {
	f := &fakeCompleter{reply: `["Q?"]`}
	e := newTestEngine(f)

	e.Refresh(context.Background(), "a.md", "text", false)

	assert.Equal(t, "json", f.lastFormat, "suggestion requests constrain output to JSON")
	require.NotNil(t, f.lastOpts)
	assert.InDelta(t, 0.3, f.lastOpts.Temperature, 0.001)
}

// blockingCompleter parks each request until released, recording the
// per-call context so tests can observe cancellation order.
type blockingCompleter struct {
	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
	ctxs    []context.Context
}

func (b *blockingCompleter) ChatWithOptions(ctx context.Context, modelName string, messages []ollama.Message, format string, opts *ollama.Options) (*ollama.ChatResponse, error) {
	b.mu.Lock()
	b.ctxs = append(b.ctxs, ctx)
	b.mu.Unlock()
	b.started <- struct{}{}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return &ollama.ChatResponse{
			Message: ollama.NewAssistantMessage(`["Q?"]`),
			Done:    true,
		}, nil
	}
}

func (b *blockingCompleter) cancelled(i int, timeout time.Duration) bool {
	b.mu.Lock()
	ctx := b.ctxs[i]
	b.mu.Unlock()

	select {
	case <-ctx.Done():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestSupersededRefreshKeepsCancelHandle(t *testing.T) {
	b := &blockingCompleter{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	e := New(b,
		WithModel("test-model"),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)

	done := make(chan Set, 3)
	go func() { done <- e.Refresh(context.Background(), "a.md", "text", true) }()
	<-b.started

	// The second refresh supersedes the first.
	go func() { done <- e.Refresh(context.Background(), "b.md", "text", true) }()
	<-b.started
	require.True(t, b.cancelled(0, time.Second), "second refresh should cancel the first")

	// Let the superseded refresh finish its cleanup. It must not
	// clear the second refresh's cancel handle on the way out.
	<-done

	go func() { done <- e.Refresh(context.Background(), "c.md", "text", true) }()
	<-b.started
	require.True(t, b.cancelled(1, time.Second), "third refresh should cancel the second")

	close(b.release)
	<-done
	<-done
}

func TestRefreshCancelledIsNotAnError(t *testing.T) {
	f := &fakeCompleter{reply: `["Q?"]`}
	e := newTestEngine(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set := e.Refresh(ctx, "a.md", "text", false)

	assert.NotEqual(t, StatusError, set.Status, "cancellation must not surface as an error")
	assert.Equal(t, StatusLoading, set.Status)

	// With a memoized set, a cancelled refresh reports the last known
	// questions instead.
	good := e.Refresh(context.Background(), "a.md", "text", false)
	require.Equal(t, StatusReady, good.Status)

	set = e.Refresh(ctx, "a.md", "text", true)
	assert.Equal(t, StatusReady, set.Status)
	assert.Equal(t, good.Questions, set.Questions)
}
