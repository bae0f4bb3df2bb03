// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat logs and settings.
//
// This package defines the core domain types used throughout the
// application for representing per-document chat history.
//
// # Key Types
//
//   - Entry: Single log item, either a user request or a model response
//   - Log: Ordered chat history for one document
//   - Settings: Runtime-mutable user preferences
//
// # Streaming
//
// A response entry starts life as an empty placeholder in streaming
// state. Tokens are appended to an internal accumulator and merged
// into Text by FinalizeStream. A log is never persisted while its
// final entry is still an empty placeholder.
package model
