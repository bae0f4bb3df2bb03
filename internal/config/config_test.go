// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.OllamaURL != "http://127.0.0.1:11434" {
		t.Errorf("OllamaURL = %q", cfg.OllamaURL)
	}
	if cfg.DefaultModel == "" {
		t.Error("DefaultModel should not be empty")
	}
	if !cfg.Recommendations {
		t.Error("Recommendations should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"light theme", func(c *Config) { c.Theme = "light" }, false},
		{"bad scheme", func(c *Config) { c.OllamaURL = "tcp://localhost" }, true},
		{"bad theme", func(c *Config) { c.Theme = "solarized" }, true},
		{"https allowed", func(c *Config) { c.OllamaURL = "https://gateway.local" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SIDENOTE_VAULT", "/tmp/notes")
	t.Setenv("SIDENOTE_OLLAMA_URL", "http://10.0.0.5:11434")
	t.Setenv("SIDENOTE_MODEL", "qwen2.5:7b")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.VaultDir != "/tmp/notes" {
		t.Errorf("VaultDir = %q", cfg.VaultDir)
	}
	if cfg.OllamaURL != "http://10.0.0.5:11434" {
		t.Errorf("OllamaURL = %q", cfg.OllamaURL)
	}
	if cfg.DefaultModel != "qwen2.5:7b" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
}

func TestGlobal(t *testing.T) {
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	custom := Default()
	custom.DefaultModel = "custom-model"
	SetGlobal(custom)

	if got := Global(); got.DefaultModel != "custom-model" {
		t.Errorf("Global().DefaultModel = %q", got.DefaultModel)
	}
}
