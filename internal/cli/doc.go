// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers of
// cocreate.
//
// Parse turns os.Args into a Command and Args; main dispatches to the
// matching Handle function. Handlers return errors and never exit. ExitCode
// and PrintError turn those errors into exit codes and messages.
//
// # Commands
//
//   - tui (default): full-screen chat, see package ui/chat
//   - chat: line-oriented chat with liner history and Tab mention completion
//   - conversations: list, show, new, select, rename, kb, delete, export, ingest
//   - entities: fuzzy search of the entity catalog
//   - status: backend reachability and storage details
//   - config: show, get, set, keys, path
//   - version, help
//
// # Key Types
//
//   - Args: Global flags and the remaining arguments
//   - ArgParser: Flag and positional parsing for subcommands
//   - Env: Configuration, logger, store, backend client and catalog of one run
//   - ChatREPL: The interactive line-oriented chat
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdChat:
//		err = cli.HandleChat(ctx, args)
//	}
//	if err != nil {
//		cli.PrintError(os.Stderr, err)
//		os.Exit(cli.ExitCode(err))
//	}
package cli
