// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Starts the full-screen interface.
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cocreateai/cocreate-chat/internal/logging"
	"github.com/cocreateai/cocreate-chat/internal/ui/chat"
	"github.com/cocreateai/cocreate-chat/internal/ui/styles"
)

// HandleTUI runs the Bubble Tea interface until the user quits. Logs go to
// the log file so they do not draw over the screen.
func HandleTUI(ctx context.Context, args Args) error {
	if !IsTTY() || !IsStdoutTTY() {
		return NewUsageError("the TUI needs an interactive terminal", "cocreate chat")
	}

	env, err := OpenEnv(args, EnvOptions{LogToFile: true})
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notifier := chat.NewNotifier()
	chatOpts := env.ChatOptions()
	chatOpts.OnError = notifier.Error
	ws := env.NewWorkspace(ctx, chatOpts, true, notifier.Changed)
	defer ws.Close()

	theme := styles.NewTheme(env.Config.UI.Theme)
	model := chat.New(ws, chat.Options{
		Context:  ctx,
		Theme:    theme,
		UI:       env.Config.UI,
		Notifier: notifier,
		Logger:   logging.Component(env.Logger, "tui"),
	})

	env.Logger.Info("tui started", "backend", env.Config.Backend.URL, "offline", args.Offline)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	env.Logger.Info("tui stopped")
	return nil
}
