// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config handles startup configuration for sidenote.
//
// Configuration is read once at launch from ~/.sidenote/config.toml
// with environment overrides on top. Runtime-mutable state (model
// choice, suggestion toggle, chat history) lives in the settings
// store instead.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/sidenote-ai/sidenote-tui/internal/util"
)

// =============================================================================
// CONFIG TYPE
// =============================================================================

// Config is the startup configuration.
type Config struct {
	// VaultDir is the notes directory the app operates on.
	VaultDir string `toml:"vault_dir"`

	// OllamaURL is the model server base URL.
	OllamaURL string `toml:"ollama_url"`

	// DefaultModel seeds the settings store on first run.
	DefaultModel string `toml:"default_model"`

	// Theme selects the UI color theme ("dark" or "light").
	Theme string `toml:"theme"`

	// Recommendations seeds the suggestions toggle on first run.
	Recommendations bool `toml:"recommendations"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		VaultDir:        "",
		OllamaURL:       "http://127.0.0.1:11434",
		DefaultModel:    "llama3.2:3b",
		Theme:           "dark",
		Recommendations: true,
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the directory holding config and data files.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sidenote"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file if present, applies environment
// overrides and validates the result. A missing file is not an error;
// defaults are used.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config atomically.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// ApplyEnvOverrides applies environment variables on top of the file:
//
//   - SIDENOTE_VAULT: overrides vault_dir
//   - SIDENOTE_OLLAMA_URL: overrides ollama_url
//   - SIDENOTE_MODEL: overrides default_model
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SIDENOTE_VAULT"); v != "" {
		c.VaultDir = v
	}
	if v := os.Getenv("SIDENOTE_OLLAMA_URL"); v != "" {
		c.OllamaURL = v
	}
	if v := os.Getenv("SIDENOTE_MODEL"); v != "" {
		c.DefaultModel = v
	}
}

// fillDefaults replaces zero values left by a sparse config file.
func (c *Config) fillDefaults() {
	defaults := Default()
	if c.OllamaURL == "" {
		c.OllamaURL = defaults.OllamaURL
	}
	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks field values. The vault dir may be empty here; it
// can still come from the command line.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.OllamaURL, "http://") && !strings.HasPrefix(c.OllamaURL, "https://") {
		return ValidationError{Field: "ollama_url", Message: "must start with http:// or https://"}
	}
	if c.Theme != "dark" && c.Theme != "light" {
		return ValidationError{Field: "theme", Message: `must be "dark" or "light"`}
	}
	return nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Global returns the process-wide config, loading it on first use.
// A load failure falls back to defaults.
func Global() *Config {
	globalMu.RLock()
	if globalCfg != nil {
		defer globalMu.RUnlock()
		return globalCfg
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalCfg == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalCfg = cfg
	}
	return globalCfg
}

// SetGlobal replaces the process-wide config.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// ResetGlobalForTesting clears the cached global config.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = nil
}
