// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The view renders an app.Workspace: the conversation list in a sidebar, the
// messages of the current conversation (bot Markdown rendered with glamour),
// and an input line with "@" autocomplete over the entity catalog. Sends run
// as Bubble Tea commands so the event loop never waits on the backend.
//
// # Key Types
//
//   - Model: Bubble Tea model for the chat interface
//   - KeyMap: Keyboard bindings, also shown by the help view
//   - Notifier: Turns workspace callbacks into Bubble Tea messages
//
// # Message Types
//
//   - WorkspaceChangedMsg, WorkspaceErrorMsg: Workspace notifications
//   - SendCompleteMsg: A send cycle finished
//   - BackendProbedMsg: The startup reachability probe resolved
//   - ExportCompleteMsg, IngestCompleteMsg: Slash command results
//
// # Usage
//
//	notifier := chat.NewNotifier()
//	ws := app.New(ctx, app.Options{
//		Store:    store,
//		Gateway:  client,
//		OnChange: notifier.Changed,
//		Chat:     chatsession.Options{OnError: notifier.Error},
//	})
//	m := chat.New(ws, chat.Options{UI: cfg.UI, Notifier: notifier})
//	p := tea.NewProgram(m, tea.WithAltScreen())
package chat
