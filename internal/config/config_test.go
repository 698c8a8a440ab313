// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("COCREATE_HOME", dir)
	for _, key := range []string{
		"COCREATE_BACKEND_URL", "COCREATE_TIMEOUT", "COCREATE_RPM", "COCREATE_STORAGE",
		"COCREATE_STORAGE_PATH", "COCREATE_THEME", "COCREATE_LOG_LEVEL", "COCREATE_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
	return dir
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Backend.URL != DefaultBackendURL {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, DefaultBackendURL)
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("Storage.Driver = %q, want file", cfg.Storage.Driver)
	}
	if len(cfg.Chat.KnowledgeSources) != 2 {
		t.Errorf("KnowledgeSources = %v", cfg.Chat.KnowledgeSources)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestConfig_OfflineNotice(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "http://backend:9000"

	want := "⚠️ The backend is not available right now. Please check that the server is running at http://backend:9000"
	if got := cfg.OfflineNotice(); got != want {
		t.Errorf("OfflineNotice() = %q, want %q", got, want)
	}

	cfg.Chat.OfflineMessage = "offline"
	if got := cfg.OfflineNotice(); got != "offline" {
		t.Errorf("OfflineNotice() = %q, want offline", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"https backend", func(c *Config) { c.Backend.URL = "https://chat.example.com" }, false},
		{"ftp backend", func(c *Config) { c.Backend.URL = "ftp://example.com" }, true},
		{"no host", func(c *Config) { c.Backend.URL = "localhost" }, true},
		{"bad driver", func(c *Config) { c.Storage.Driver = "redis" }, true},
		{"sqlite driver", func(c *Config) { c.Storage.Driver = "sqlite" }, false},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, true},
		{"inverted widths", func(c *Config) { c.UI.MinPanelWidth = 200 }, true},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, true},
		{"negative rpm", func(c *Config) { c.Backend.RequestsPerMinute = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// LOADING
// =============================================================================

func TestConfig_LoadTOMLFillsDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[backend]
url = "http://chat.internal:8000"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.URL != "http://chat.internal:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q", cfg.UI.Theme)
	}
	if cfg.Backend.TimeoutSecs != 60 {
		t.Errorf("TimeoutSecs default not filled: %d", cfg.Backend.TimeoutSecs)
	}
	if cfg.Chat.WelcomeMessage != DefaultWelcomeMessage {
		t.Errorf("WelcomeMessage default not filled")
	}
}

func TestConfig_LoadJSON(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"storage":{"driver":"memory"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
}

func TestConfig_LoadCorruptFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [toml"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err == nil {
		t.Error("expected a load error to be reported")
	}
	if cfg == nil || cfg.Backend.URL != DefaultBackendURL {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("COCREATE_BACKEND_URL", "https://override:443")
	t.Setenv("COCREATE_RPM", "30")
	t.Setenv("COCREATE_STORAGE", "SQLite")
	t.Setenv("COCREATE_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.URL != "https://override:443" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.RequestsPerMinute != 30 {
		t.Errorf("RequestsPerMinute = %d", cfg.Backend.RequestsPerMinute)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestConfig_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("COCREATE_THEME")
	t.Cleanup(func() { os.Unsetenv("COCREATE_THEME") })

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("COCREATE_THEME=light\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q, want light from .env", cfg.UI.Theme)
	}
}

func TestConfig_SaveAndLoadRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Backend.URL = "http://saved:8000"
	cfg.Chat.KnowledgeSources = []string{"Graph"}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config perms = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Backend.URL != "http://saved:8000" {
		t.Errorf("Backend.URL = %q", loaded.Backend.URL)
	}
	if len(loaded.Chat.KnowledgeSources) != 1 || loaded.Chat.KnowledgeSources[0] != "Graph" {
		t.Errorf("KnowledgeSources = %v", loaded.Chat.KnowledgeSources)
	}
}

func TestConfig_StoragePath(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	got, err := cfg.StoragePath()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "data") {
		t.Errorf("file StoragePath = %q", got)
	}

	cfg.Storage.Driver = "sqlite"
	got, _ = cfg.StoragePath()
	if got != filepath.Join(dir, "cocreate.db") {
		t.Errorf("sqlite StoragePath = %q", got)
	}

	cfg.Storage.Path = "/var/lib/cocreate.db"
	got, _ = cfg.StoragePath()
	if got != "/var/lib/cocreate.db" {
		t.Errorf("explicit StoragePath = %q", got)
	}
}

// =============================================================================
// GET / SET
// =============================================================================

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("backend.url", "http://x:1"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := cfg.Set("backend.requests_per_minute", "12"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := cfg.Set("ui.show_sidebar", "false"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := cfg.Set("chat.knowledge_sources", "A, B ,"); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	if v, _ := cfg.Get("backend.url"); v != "http://x:1" {
		t.Errorf("backend.url = %v", v)
	}
	if cfg.Backend.RequestsPerMinute != 12 {
		t.Errorf("RequestsPerMinute = %d", cfg.Backend.RequestsPerMinute)
	}
	if cfg.UI.ShowSidebar {
		t.Error("ShowSidebar should be false")
	}
	if len(cfg.Chat.KnowledgeSources) != 2 || cfg.Chat.KnowledgeSources[1] != "B" {
		t.Errorf("KnowledgeSources = %v", cfg.Chat.KnowledgeSources)
	}

	if _, err := cfg.Get("backend.nope"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := cfg.Set("backend.url.x", "y"); err == nil {
		t.Error("expected error for non-struct traversal")
	}
	if err := cfg.Set("backend.timeout_secs", "abc"); err == nil {
		t.Error("expected error for invalid integer")
	}
}

func TestConfig_AllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Chat.KnowledgeSources[0] = "changed"
	clone.Backend.URL = "http://other"

	if cfg.Chat.KnowledgeSources[0] == "changed" {
		t.Error("Clone shares the sources slice")
	}
	if cfg.Backend.URL == "http://other" {
		t.Error("Clone shares backend settings")
	}
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	cfg := Default()
	cfg.UI.Theme = "light"
	SetGlobal(cfg)

	if Global().UI.Theme != "light" {
		t.Errorf("Global() did not return the config set by SetGlobal")
	}
}
