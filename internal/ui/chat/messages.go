// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat interface
// and the Notifier that turns workspace callbacks into messages.
package chat

import (
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// WORKSPACE MESSAGES
// =============================================================================

// WorkspaceChangedMsg reports that conversations or messages changed.
type WorkspaceChangedMsg struct{}

// WorkspaceErrorMsg carries a backend or persistence error reported by the
// workspace.
type WorkspaceErrorMsg struct {
	Err error
}

// SendCompleteMsg signals that a send cycle finished.
type SendCompleteMsg struct {
	Err error
}

// BackendProbedMsg signals that the startup reachability probe resolved.
type BackendProbedMsg struct{}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// ExportCompleteMsg signals that an export finished.
type ExportCompleteMsg struct {
	Path string
	Err  error
}

// IngestCompleteMsg signals that a conversation upload finished.
type IngestCompleteMsg struct {
	ConversationID string
	Err            error
}

// =============================================================================
// NOTIFIER
// =============================================================================

// Notifier delivers workspace callbacks, which run on arbitrary goroutines,
// to the Bubble Tea event loop. Change notifications are coalesced: several
// changes before the model reads them produce one WorkspaceChangedMsg.
type Notifier struct {
	changed chan struct{}
	errs    chan error
}

// NewNotifier creates a notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		changed: make(chan struct{}, 1),
		errs:    make(chan error, 16),
	}
}

// Changed records a change. It never blocks.
func (n *Notifier) Changed() {
	select {
	case n.changed <- struct{}{}:
	default:
	}
}

// Error records an error. When the queue is full the error is dropped; the
// error bot message is still in the conversation.
func (n *Notifier) Error(err error) {
	if err == nil {
		return
	}
	select {
	case n.errs <- err:
	default:
	}
}

// Wait returns a command that blocks until the next notification.
func (n *Notifier) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-n.changed:
			return WorkspaceChangedMsg{}
		case err := <-n.errs:
			return WorkspaceErrorMsg{Err: err}
		}
	}
}
