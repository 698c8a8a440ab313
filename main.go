// cocreate - terminal client for the CoCreateAI assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cocreateai/cocreate-chat/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse()

	// SIGTERM stops everything; Ctrl+C is left to the TUI and the REPL,
	// which treat it as "quit" or "cancel the request".
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = cli.HandleTUI(ctx, args)
	case cli.CmdChat:
		err = cli.HandleChat(ctx, args)
	case cli.CmdConversations:
		err = cli.HandleConversations(ctx, args)
	case cli.CmdEntities:
		err = cli.HandleEntities(args)
	case cli.CmdStatus:
		err = cli.HandleStatus(ctx, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		err = cli.PrintVersion(os.Stdout, args.JSON)
	case cli.CmdHelp:
		if args.Unknown != "" {
			err = cli.NewUsageError(fmt.Sprintf("unknown command %q", args.Unknown), "cocreate help")
			break
		}
		cli.PrintUsage(os.Stdout)
	}

	if err != nil {
		if args.JSON {
			_ = cli.NewJSONErrorResponse(cmd.String(), err).Write(os.Stdout)
		} else {
			cli.PrintError(os.Stderr, err)
		}
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}
