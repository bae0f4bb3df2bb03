// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "sync"

// =============================================================================
// DEFAULT CLIENT ACCESSOR
// =============================================================================

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide shared client, creating it on first
// use with the given configuration. Later calls return the same handle
// and ignore their argument, so the first caller decides the
// configuration. Callers that need isolated configuration should use
// NewClientWithConfig instead.
func Default(config *ClientConfig) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient == nil {
		defaultClient = NewClientWithConfig(config)
	}
	return defaultClient
}

// ResetDefault discards the shared client so the next Default call
// rebuilds it. Intended for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = nil
}
