// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable rendering pieces for the
// sidenote TUI: markdown and code block rendering for model
// responses, and transient notices for the status area.
package components
