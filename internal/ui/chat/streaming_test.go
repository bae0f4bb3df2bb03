// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"
)

func TestStreamingBufferBatchFlush(t *testing.T) {
	sb := NewStreamingBuffer()

	// Below both thresholds: nothing to draw yet.
	sb.Write("a")
	if _, ok := sb.Flush(); ok {
		t.Error("single fresh token should not flush")
	}

	// Hitting the batch size forces a flush regardless of time.
	for i := 0; i < 20; i++ {
		sb.Write("x")
	}
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("batch threshold should flush")
	}
	if content != "a"+"xxxxxxxxxxxxxxxxxxxx" {
		t.Errorf("content = %q", content)
	}
	if sb.Pending() != 0 {
		t.Errorf("pending = %d after flush", sb.Pending())
	}
}

func TestStreamingBufferTimeFlush(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("slow")

	time.Sleep(40 * time.Millisecond)
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("time threshold should flush")
	}
	if content != "slow" {
		t.Errorf("content = %q", content)
	}
}

func TestStreamingBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()
	if _, ok := sb.ForceFlush(); ok {
		t.Error("empty buffer should not force-flush")
	}

	sb.Write("tail")
	content, ok := sb.ForceFlush()
	if !ok || content != "tail" {
		t.Errorf("ForceFlush = %q, %v", content, ok)
	}
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("discard me")
	sb.Reset()

	if _, ok := sb.ForceFlush(); ok {
		t.Error("reset buffer should be empty")
	}
}
