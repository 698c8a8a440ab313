// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for cocreate.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Chat backend URL, timeouts and request pacing
//   - StorageConfig: Conversation persistence driver and location
//   - ChatConfig: Welcome, error and offline texts plus knowledge sources
//   - UIConfig: Theme and panel geometry for the terminal UI
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (COCREATE_*), including those from .env files
//   - ~/.cocreate/config.toml
//   - ~/.cocreate/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Warn("config", "err", err)
//	}
//	client := gateway.NewClientWithConfig(&gateway.ClientConfig{BaseURL: cfg.Backend.URL})
package config
