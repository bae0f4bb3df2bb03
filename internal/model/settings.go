// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the runtime-mutable user state kept in the settings
// store. Chat histories live in the same store but are keyed per
// document rather than carried here.
type Settings struct {
	// DefaultModel is the model used for new chat turns and
	// recommendation requests.
	DefaultModel string `json:"default_model"`

	// RecommendationsEnabled toggles follow-up question suggestions.
	RecommendationsEnabled bool `json:"recommendations_enabled"`
}

// DefaultSettings returns the settings used before the user changes
// anything.
func DefaultSettings() Settings {
	return Settings{
		DefaultModel:           "llama3.2:3b",
		RecommendationsEnabled: true,
	}
}
