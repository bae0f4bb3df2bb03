// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"strings"
	"testing"
)

func TestStreamReaderProcess(t *testing.T) {
	input := strings.Join([]string{
		`{"model":"m","message":{"role":"assistant","content":"a"},"done":false}`,
		`{"model":"m","message":{"role":"assistant","content":"b"},"done":false}`,
		`{"model":"m","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","eval_count":2}`,
	}, "\n") + "\n"

	r := NewStreamReader(strings.NewReader(input))

	var chunks []StreamChunk
	err := r.Process(context.Background(), func(c StreamChunk) {
		chunks = append(chunks, c)
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if r.Accumulated() != "ab" {
		t.Errorf("Accumulated = %q, want %q", r.Accumulated(), "ab")
	}
	if r.TokenCount() != 2 {
		t.Errorf("TokenCount = %d, want 2", r.TokenCount())
	}
	last := chunks[len(chunks)-1]
	if !last.Done || last.DoneReason != "stop" || last.CompletionTokens != 2 {
		t.Errorf("final chunk = %+v", last)
	}
}

func TestStreamReaderSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"message":{"content":"ok"},"done":false}`,
		`not json at all`,
		`{"message":{"content":"fine"},"done":true}`,
	}, "\n") + "\n"

	r := NewStreamReader(strings.NewReader(input))

	var got string
	err := r.Process(context.Background(), func(c StreamChunk) {
		got += c.Content
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got != "okfine" {
		t.Errorf("content = %q, want %q", got, "okfine")
	}
}

func TestStreamReaderHandlesUnterminatedFinalLine(t *testing.T) {
	input := `{"message":{"content":"x"},"done":false}` + "\n" +
		`{"message":{"content":"y"},"done":true}` // no trailing newline

	r := NewStreamReader(strings.NewReader(input))

	var got string
	err := r.Process(context.Background(), func(c StreamChunk) {
		got += c.Content
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got != "xy" {
		t.Errorf("content = %q, want %q", got, "xy")
	}
}

func TestStreamReaderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewStreamReader(strings.NewReader(`{"message":{"content":"x"},"done":false}` + "\n"))

	err := r.Process(ctx, func(StreamChunk) {})
	if err != context.Canceled {
		t.Errorf("Process = %v, want context.Canceled", err)
	}
}
