// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Startup wiring shared by the commands.
//
// Every command that touches conversations builds the same pieces in the
// same order: configuration, logger, store, backend client and entity
// catalog. Env holds them and releases them on Close.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cocreateai/cocreate-chat/internal/app"
	"github.com/cocreateai/cocreate-chat/internal/chat"
	"github.com/cocreateai/cocreate-chat/internal/config"
	"github.com/cocreateai/cocreate-chat/internal/entity"
	"github.com/cocreateai/cocreate-chat/internal/gateway"
	"github.com/cocreateai/cocreate-chat/internal/logging"
	"github.com/cocreateai/cocreate-chat/internal/storage"
)

// Env is the assembled runtime of one command invocation.
type Env struct {
	Args    Args
	Config  *config.Config
	Logger  *log.Logger
	Store   *storage.Store
	Catalog *entity.Catalog

	// Client is nil when running offline
	Client *gateway.Client

	Stdout io.Writer
	Stderr io.Writer

	closers []io.Closer
}

// EnvOptions controls how an Env is opened.
type EnvOptions struct {
	// LogToFile sends logs to the log file instead of stderr (the TUI owns
	// the screen)
	LogToFile bool

	// Config replaces loading from disk (tests)
	Config *config.Config
}

// LoadConfig loads the configuration selected by the global flags and
// applies the flag overrides.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		if dotErr := config.LoadDotEnv(); dotErr != nil {
			return nil, &ConfigError{Err: dotErr}
		}
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, &ConfigError{Err: err}
		}
		if err != nil {
			// Load fell back to defaults; keep going and say why.
			fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		}
	}

	applyFlagOverrides(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config, args Args) {
	if args.Backend != "" {
		cfg.Backend.URL = args.Backend
	}
	if args.Storage != "" {
		cfg.Storage.Driver = args.Storage
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
}

// OpenEnv loads configuration and opens the store, the backend client and
// the entity catalog. The caller must Close the returned Env.
func OpenEnv(args Args, opts EnvOptions) (*Env, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = LoadConfig(args)
		if err != nil {
			return nil, err
		}
	} else {
		applyFlagOverrides(cfg, args)
		if err := cfg.Validate(); err != nil {
			return nil, &ConfigError{Err: err}
		}
	}

	env := &Env{
		Args:   args,
		Config: cfg,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	logCfg := cfg.Log
	if args.Quiet && !args.Verbose && !opts.LogToFile {
		logCfg.Level = "error"
	}
	logger, closer, err := logging.Open(logCfg, opts.LogToFile)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	env.Logger = logger
	env.closers = append(env.closers, closer)

	backend, err := storage.OpenBackend(cfg)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to open conversation storage: %w", err)
	}
	env.closers = append(env.closers, backend)
	env.Store = storage.NewStore(backend, logging.Component(logger, "storage"))

	if !args.Offline {
		client, err := gateway.NewClientWithConfig(&gateway.ClientConfig{
			BaseURL:           cfg.Backend.URL,
			Timeout:           time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
			HealthTimeout:     time.Duration(cfg.Backend.HealthTimeoutSecs) * time.Second,
			RequestsPerMinute: cfg.Backend.RequestsPerMinute,
			UserAgent:         "cocreate/" + Version,
		})
		if err != nil {
			env.Close()
			return nil, &ConfigError{Err: err}
		}
		env.Client = client
	}

	catalog, err := entity.Load(cfg.Chat.EntitiesFile)
	if err != nil {
		logger.Warn("entity catalog unavailable, using the built-in one", "file", cfg.Chat.EntitiesFile, "err", err)
		catalog = entity.DefaultCatalog()
	}
	env.Catalog = catalog

	logger.Debug("environment ready",
		"backend", cfg.Backend.URL,
		"offline", args.Offline,
		"storage", cfg.Storage.Driver,
		"entities", catalog.Len())
	return env, nil
}

// Close releases the store and the log file.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Gateway returns the chat backend, or nil when offline. A nil *Client is
// never returned inside the interface.
func (e *Env) Gateway() chat.Gateway {
	if e.Client == nil {
		return nil
	}
	return e.Client
}

// Ingester returns the ingestion endpoint, or nil when offline.
func (e *Env) Ingester() app.Ingester {
	if e.Client == nil {
		return nil
	}
	return e.Client
}

// ChatOptions returns the session texts from the configuration.
func (e *Env) ChatOptions() chat.Options {
	return chat.Options{
		WelcomeMessage:   e.Config.Chat.WelcomeMessage,
		ErrorMessage:     e.Config.Chat.ErrorMessage,
		OfflineMessage:   e.Config.OfflineNotice(),
		KnowledgeSources: e.Config.Chat.KnowledgeSources,
		OfflineSources:   e.Config.Chat.OfflineSources,
		Logger:           logging.Component(e.Logger, "chat"),
	}
}

// NewWorkspace creates a workspace over the Env. watch enables the store
// watcher when the configuration allows it.
func (e *Env) NewWorkspace(ctx context.Context, chatOpts chat.Options, watch bool, onChange func()) *app.Workspace {
	return app.New(ctx, app.Options{
		Store:    e.Store,
		Gateway:  e.Gateway(),
		Ingester: e.Ingester(),
		Catalog:  e.Catalog,
		Chat:     chatOpts,
		Watch:    watch && e.Config.Storage.Watch,
		OnChange: onChange,
		Logger:   logging.Component(e.Logger, "workspace"),
	})
}
