// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for cocreate.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.cocreate/config.toml
//   - ~/.cocreate/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/cocreateai/cocreate-chat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete cocreate configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend is the chat API the session talks to
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Storage selects where conversations are persisted
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Chat holds the fixed texts of the chat session
	Chat ChatConfig `toml:"chat" json:"chat"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`
}

// BackendConfig contains the chat backend connection settings.
type BackendConfig struct {
	// URL is the base URL of the chat backend (http or https)
	URL string `toml:"url" json:"url"`
	// TimeoutSecs bounds every backend request
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// HealthTimeoutSecs bounds the startup reachability probe
	HealthTimeoutSecs int `toml:"health_timeout_secs" json:"health_timeout_secs"`
	// RequestsPerMinute paces outgoing requests (0 = unlimited)
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// StorageConfig contains conversation persistence settings.
type StorageConfig struct {
	// Driver is one of "file", "sqlite" or "memory"
	Driver string `toml:"driver" json:"driver"`
	// Path is the directory (file driver) or database file (sqlite driver).
	// Empty means the default location under ~/.cocreate.
	Path string `toml:"path" json:"path"`
	// Watch reports rewrites made by another cocreate instance (file driver)
	Watch bool `toml:"watch" json:"watch"`
}

// ChatConfig contains the user-visible texts of the chat session.
type ChatConfig struct {
	WelcomeMessage   string   `toml:"welcome_message" json:"welcome_message"`
	ErrorMessage     string   `toml:"error_message" json:"error_message"`
	OfflineMessage   string   `toml:"offline_message" json:"offline_message"`
	KnowledgeSources []string `toml:"knowledge_sources" json:"knowledge_sources"`
	OfflineSources   []string `toml:"offline_sources" json:"offline_sources"`
	// EntitiesFile is an optional TOML catalog of mentionable entities
	EntitiesFile string `toml:"entities_file" json:"entities_file"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// PanelWidth is the initial chat panel width in columns
	PanelWidth int `toml:"panel_width" json:"panel_width"`
	// MinPanelWidth and MaxPanelWidth clamp resizing
	MinPanelWidth int `toml:"min_panel_width" json:"min_panel_width"`
	MaxPanelWidth int `toml:"max_panel_width" json:"max_panel_width"`
	// ShowSidebar shows the conversation history on startup
	ShowSidebar bool `toml:"show_sidebar" json:"show_sidebar"`
	// RenderMarkdown renders bot replies with glamour
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Format is one of text, json, logfmt
	Format string `toml:"format" json:"format"`
	// File receives log output. Empty means ~/.cocreate/cocreate.log for the
	// TUI and stderr for line-oriented commands.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default texts of the chat session.
const (
	DefaultWelcomeMessage = "Hi! I'm the CoCreateAI assistant. Ask about projects, processes, people or agents. Type @ to mention one."
	DefaultErrorMessage   = "Sorry, something went wrong while processing your question. Please try again."
	DefaultOfflineMessage = "⚠️ The backend is not available right now. Please check that the server is running at %s"
	DefaultBackendURL     = "http://localhost:8000"
)

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			URL:               DefaultBackendURL,
			TimeoutSecs:       60,
			HealthTimeoutSecs: 5,
			RequestsPerMinute: 0, // unlimited
		},

		Storage: StorageConfig{
			Driver: "file",
			Path:   "",
			Watch:  true,
		},

		Chat: ChatConfig{
			WelcomeMessage:   DefaultWelcomeMessage,
			ErrorMessage:     DefaultErrorMessage,
			OfflineMessage:   DefaultOfflineMessage,
			KnowledgeSources: []string{"Azure OpenAI", "Neo4j Knowledge Graph"},
			OfflineSources:   []string{"Local System"},
		},

		UI: UIConfig{
			Theme:          "dark",
			PanelWidth:     56,
			MinPanelWidth:  40,
			MaxPanelWidth:  100,
			ShowSidebar:    true,
			RenderMarkdown: true,
		},

		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// OfflineNotice returns the offline message with the backend URL filled in.
func (c *Config) OfflineNotice() string {
	if strings.Contains(c.Chat.OfflineMessage, "%s") {
		return fmt.Sprintf(c.Chat.OfflineMessage, c.Backend.URL)
	}
	return c.Chat.OfflineMessage
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the cocreate configuration directory path.
// COCREATE_HOME overrides the default ~/.cocreate.
func ConfigDir() (string, error) {
	if dir := os.Getenv("COCREATE_HOME"); dir != "" {
		return util.ExpandHome(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cocreate"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// StoragePath resolves the configured storage location for the driver.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return util.ExpandHome(c.Storage.Path), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Storage.Driver == "sqlite" {
		return filepath.Join(dir, "cocreate.db"), nil
	}
	return filepath.Join(dir, "data"), nil
}

// LogPath resolves the log file location. Empty means the default file.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return util.ExpandHome(c.Log.File), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cocreate.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads KEY=VALUE pairs from .env in the working directory and
// from the config directory. Variables already set in the environment win.
// Missing files are ignored.
func LoadDotEnv() error {
	candidates := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	if err := LoadDotEnv(); err != nil {
		loadErr = err
	}

	loaded := false
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
				cfg = Default()
			} else {
				loaded = true
			}
		}
	}

	if !loaded {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				if err := LoadJSON(cfg, jsonPath); err != nil {
					loadErr = fmt.Errorf("failed to load JSON config: %w", err)
					cfg = Default()
				}
			}
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Defaults, with any load error for informational purposes.
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Backend
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaults.Backend.URL
	}
	if cfg.Backend.TimeoutSecs <= 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Backend.HealthTimeoutSecs <= 0 {
		cfg.Backend.HealthTimeoutSecs = defaults.Backend.HealthTimeoutSecs
	}

	// Storage
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaults.Storage.Driver
	}

	// Chat
	if cfg.Chat.WelcomeMessage == "" {
		cfg.Chat.WelcomeMessage = defaults.Chat.WelcomeMessage
	}
	if cfg.Chat.ErrorMessage == "" {
		cfg.Chat.ErrorMessage = defaults.Chat.ErrorMessage
	}
	if cfg.Chat.OfflineMessage == "" {
		cfg.Chat.OfflineMessage = defaults.Chat.OfflineMessage
	}
	if len(cfg.Chat.KnowledgeSources) == 0 {
		cfg.Chat.KnowledgeSources = defaults.Chat.KnowledgeSources
	}
	if len(cfg.Chat.OfflineSources) == 0 {
		cfg.Chat.OfflineSources = defaults.Chat.OfflineSources
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.MinPanelWidth <= 0 {
		cfg.UI.MinPanelWidth = defaults.UI.MinPanelWidth
	}
	if cfg.UI.MaxPanelWidth <= 0 {
		cfg.UI.MaxPanelWidth = defaults.UI.MaxPanelWidth
	}
	if cfg.UI.PanelWidth <= 0 {
		cfg.UI.PanelWidth = defaults.UI.PanelWidth
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# cocreate configuration file\n")
	sb.WriteString("# Generated by cocreate - edit with care\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Backend
	if u, err := url.Parse(c.Backend.URL); err != nil || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Backend.URL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}
	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "backend.timeout_secs", Message: "must not be negative"})
	}
	if c.Backend.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{Field: "backend.requests_per_minute", Message: "must not be negative"})
	}

	// Storage
	switch c.Storage.Driver {
	case "file", "sqlite", "memory":
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.driver",
			Message: fmt.Sprintf("invalid driver '%s', must be one of: file, sqlite, memory", c.Storage.Driver),
		})
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be dark or light", c.UI.Theme),
		})
	}
	if c.UI.MinPanelWidth > c.UI.MaxPanelWidth {
		errs = append(errs, ValidationError{
			Field:   "ui.min_panel_width",
			Message: fmt.Sprintf("%d exceeds ui.max_panel_width %d", c.UI.MinPanelWidth, c.UI.MaxPanelWidth),
		})
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json, logfmt", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - COCREATE_BACKEND_URL: overrides backend.url
//   - COCREATE_TIMEOUT: overrides backend.timeout_secs
//   - COCREATE_RPM: overrides backend.requests_per_minute
//   - COCREATE_STORAGE: overrides storage.driver
//   - COCREATE_STORAGE_PATH: overrides storage.path
//   - COCREATE_THEME: overrides ui.theme
//   - COCREATE_LOG_LEVEL: overrides log.level
//   - COCREATE_LOG_FILE: overrides log.file
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("COCREATE_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("COCREATE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Backend.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("COCREATE_RPM"); v != "" {
		if rpm, err := strconv.Atoi(v); err == nil && rpm >= 0 {
			c.Backend.RequestsPerMinute = rpm
		}
	}
	if v := os.Getenv("COCREATE_STORAGE"); v != "" {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("COCREATE_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("COCREATE_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("COCREATE_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("COCREATE_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "backend.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
// String values are parsed into the field's type; lists are comma separated.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct tree following the dotted key.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect field from a string or an assignable value.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all available configuration keys.
func GetAllKeys() []string {
	return []string{
		"version",
		"backend.url",
		"backend.timeout_secs",
		"backend.health_timeout_secs",
		"backend.requests_per_minute",
		"storage.driver",
		"storage.path",
		"storage.watch",
		"chat.welcome_message",
		"chat.error_message",
		"chat.offline_message",
		"chat.knowledge_sources",
		"chat.offline_sources",
		"chat.entities_file",
		"ui.theme",
		"ui.panel_width",
		"ui.min_panel_width",
		"ui.max_panel_width",
		"ui.show_sidebar",
		"ui.render_markdown",
		"log.level",
		"log.format",
		"log.file",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Chat.KnowledgeSources = append([]string(nil), c.Chat.KnowledgeSources...)
	clone.Chat.OfflineSources = append([]string(nil), c.Chat.OfflineSources...)
	return &clone
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Sprintf("<config encode error: %v>", err)
	}
	return sb.String()
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process-wide configuration.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
