// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local model server.
//
// The client speaks the Ollama native API: health probe on the root
// path, model listing via /api/tags, and chat completion via /api/chat
// in both buffered and NDJSON streaming form. Streaming requests are
// cancelled through their context; a cancelled stream reports
// context.Canceled rather than a ClientError so callers can tell an
// intentional stop from a failure (see IsCancelled).
//
// A fixed placeholder bearer token is attached to every request for
// compatibility with OpenAI-style gateways; stock Ollama ignores it.
//
// Most callers construct a client explicitly and pass it down. The
// package also keeps one lazily built shared handle (Default) for
// call sites without access to the wiring.
package ollama
