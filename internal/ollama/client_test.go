// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		DefaultModel: "test-model",
	})
}

func TestCheckRunning(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := c.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning: %v", err)
	}
}

func TestCheckRunningUnreachable(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	})

	err := c.CheckRunning(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("expected not-running error, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ollama" {
			t.Errorf("Authorization = %q, want placeholder bearer", got)
		}
		w.Write([]byte(`{"models":[{"name":"llama3.2:3b","size":2019393189},{"name":"qwen2.5:7b"}]}`))
	})

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].Name != "llama3.2:3b" {
		t.Errorf("first model = %q", models[0].Name)
	}
	if got := models[0].FormatSize(); got != "1.9 GB" {
		t.Errorf("FormatSize = %q, want %q", got, "1.9 GB")
	}
}

func TestChatModelNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Chat(context.Background(), "missing", nil)
	if !IsModelNotFound(err) {
		t.Errorf("expected model-not-found, got %v", err)
	}
}

func TestChatServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model requires more system memory"}`))
	})

	_, err := c.Chat(context.Background(), "big", nil)
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected ClientError, got %v", err)
	}
	if clientErr.Message != "model requires more system memory" {
		t.Errorf("message = %q", clientErr.Message)
	}
}

func TestChatDefaultsModel(t *testing.T) {
	var gotModel string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := jsonDecode(r, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotModel = req.Model
		w.Write([]byte(`{"model":"test-model","message":{"role":"assistant","content":"hi"},"done":true}`))
	})

	resp, err := c.Chat(context.Background(), "", []Message{NewUserMessage("hello")})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gotModel != "test-model" {
		t.Errorf("request used model %q, want default", gotModel)
	}
	if resp.Message.Content != "hi" {
		t.Errorf("content = %q", resp.Message.Content)
	}
}

func TestChatWithOptionsCarriesFormatAndOptions(t *testing.T) {
	var got ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := jsonDecode(r, &got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"[]"},"done":true}`))
	})

	opts := &Options{Temperature: 0.3}
	_, err := c.ChatWithOptions(context.Background(), "m", []Message{NewUserMessage("hi")}, "json", opts)
	if err != nil {
		t.Fatalf("ChatWithOptions: %v", err)
	}
	if got.Format != "json" {
		t.Errorf("request format = %q, want %q", got.Format, "json")
	}
	if got.Options == nil || got.Options.Temperature != 0.3 {
		t.Errorf("request options = %+v, want temperature 0.3", got.Options)
	}
	if got.Stream {
		t.Error("buffered chat request must not ask for streaming")
	}
}

func TestChatStreamDeliversTokensInOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"Hel"},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"lo"},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"!"},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":""},"done":true,"eval_count":3}` + "\n"))
	})

	var got string
	var final StreamChunk
	err := c.ChatStream(context.Background(), "m", nil, func(chunk StreamChunk) {
		got += chunk.Content
		if chunk.Done {
			final = chunk
		}
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if got != "Hello!" {
		t.Errorf("accumulated %q, want %q", got, "Hello!")
	}
	if !final.Done || final.CompletionTokens != 3 {
		t.Errorf("final chunk = %+v", final)
	}
}

func TestChatStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fl, _ := w.(http.Flusher)
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"partial"},"done":false}` + "\n"))
		if fl != nil {
			fl.Flush()
		}
		<-r.Context().Done()
	})

	err := c.ChatStream(ctx, "m", nil, func(chunk StreamChunk) {
		if chunk.Content != "" {
			cancel()
		}
	})
	if !IsCancelled(err) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestDefaultAccessorMemoizes(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	a := Default(&ClientConfig{BaseURL: "http://127.0.0.1:11434", DefaultModel: "first"})
	b := Default(&ClientConfig{BaseURL: "http://elsewhere:9999", DefaultModel: "second"})

	if a != b {
		t.Error("Default should return the same handle on every call")
	}
	if b.DefaultModel() != "first" {
		t.Errorf("second call reconfigured the client to %q", b.DefaultModel())
	}
}

// jsonDecode decodes a request body into v.
func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
