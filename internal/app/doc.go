// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the conversation store and the chat session together.
//
// A Workspace is what the CLI and the TUI talk to. It keeps the session's
// message list in step with the current stored conversation, persists every
// message of a send cycle, and turns picked entities into mention tokens
// before a message leaves the client.
//
// # Key Types
//
//   - Workspace: Store + Session + entity selection
//   - Options: Collaborators and callbacks for a Workspace
//
// # Usage
//
//	ws := app.New(ctx, app.Options{Store: store, Gateway: client})
//	defer ws.Close()
//
//	ws.PickEntity(entity)                 // after autocomplete inserts the name
//	err := ws.Send(ctx, "Status of Atlas?")
//
//	ws.NewConversation()
//	ws.SelectConversation(id)
package app
