// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The config command.
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/cocreateai/cocreate-chat/internal/config"
)

// HandleConfig shows or changes configuration values.
func HandleConfig(args Args) error {
	SetupColors(args.NoColor)
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	save := func(c *config.Config) error {
		if args.ConfigPath != "" {
			return config.SaveTOML(c, args.ConfigPath)
		}
		return config.Save(c)
	}
	return RunConfig(cfg, args, os.Stdout, save)
}

// RunConfig runs a config subcommand. save persists a changed configuration.
func RunConfig(cfg *config.Config, args Args, w io.Writer, save func(*config.Config) error) error {
	p := NewArgParser(args.Raw, "json")
	jsonMode := args.JSON || p.BoolFlag("json")

	switch p.Subcommand() {
	case "", "show":
		if jsonMode {
			return writeJSON(w, "config show", cfg)
		}
		fmt.Fprint(w, cfg.String())
		return nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return NewUsageError("missing key", "cocreate config get <key>")
		}
		val, err := cfg.Get(key)
		if err != nil {
			return NewUsageError(err.Error(), "cocreate config keys")
		}
		if jsonMode {
			return writeJSON(w, "config get", map[string]interface{}{"key": key, "value": val})
		}
		fmt.Fprintln(w, val)
		return nil

	case "set":
		key, raw := p.Positional(1), p.Positional(2)
		if key == "" || p.PositionalCount() < 3 {
			return NewUsageError("missing key or value", "cocreate config set <key> <value>")
		}
		current, err := cfg.Get(key)
		if err != nil {
			return NewUsageError(err.Error(), "cocreate config keys")
		}
		value, err := parseConfigValue(current, raw)
		if err != nil {
			return NewUsageError(fmt.Sprintf("%s: %v", key, err), "")
		}

		next := cfg.Clone()
		if err := next.Set(key, value); err != nil {
			return &ConfigError{Err: err}
		}
		if err := next.Validate(); err != nil {
			return &ConfigError{Err: err}
		}
		if err := save(next); err != nil {
			return &ConfigError{Err: err}
		}
		color.New(color.FgGreen).Fprintf(w, "%s = %v\n", key, value)
		return nil

	case "keys":
		keys := config.GetAllKeys()
		sort.Strings(keys)
		if jsonMode {
			return writeJSON(w, "config keys", keys)
		}
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
		return nil

	case "path":
		path := args.ConfigPath
		if path == "" {
			var err error
			if path, err = config.ConfigPathTOML(); err != nil {
				return &ConfigError{Err: err}
			}
		}
		fmt.Fprintln(w, path)
		return nil

	default:
		return NewUsageError(fmt.Sprintf("unknown config subcommand %q", p.Subcommand()),
			"cocreate config [show|get|set|keys|path]")
	}
}
