// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the structured logger used across cocreate.
//
// Loggers are charmbracelet/log loggers. Each component derives its own
// logger with a "component" key so lines can be filtered:
//
//	logger, closer, err := logging.Open(cfg.Log, true)
//	defer closer.Close()
//	store := storage.NewStore(backend, logging.Component(logger, "storage"))
//
// The TUI logs to a file so log lines never corrupt the screen; line-oriented
// commands log to stderr.
package logging
