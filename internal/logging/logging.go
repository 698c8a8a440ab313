// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the structured logger used across cocreate.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cocreateai/cocreate-chat/internal/config"
	"github.com/cocreateai/cocreate-chat/internal/util"
)

// New creates a logger writing to w with the given level and format.
// Format is one of text, json or logfmt.
func New(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	formatter, err := parseFormat(format)
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "cocreate",
	}), nil
}

// Open builds the process logger from configuration. With toFile set the
// logger appends to the configured log file; otherwise it writes to stderr.
// The returned closer releases the file and is never nil.
func Open(cfg config.LogConfig, toFile bool) (*log.Logger, io.Closer, error) {
	if !toFile {
		logger, err := New(os.Stderr, cfg.Level, cfg.Format)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return logger, nopCloser{}, nil
	}

	path := util.ExpandHome(cfg.File)
	if path == "" {
		c := config.Config{Log: cfg}
		p, err := c.LogPath()
		if err != nil {
			return nil, nopCloser{}, err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
	}

	logger, err := New(f, cfg.Level, cfg.Format)
	if err != nil {
		f.Close()
		return nil, nopCloser{}, err
	}
	return logger, f, nil
}

// Component derives a logger tagged with the component name.
// A nil parent falls back to the package default logger.
func Component(parent *log.Logger, name string) *log.Logger {
	if parent == nil {
		parent = log.Default()
	}
	return parent.With("component", name)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func parseFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("invalid log format %q", format)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
