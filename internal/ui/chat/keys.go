// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines keyboard bindings for the chat interface. The text input
// always has focus, so conversation shortcuts use control and alt chords that
// the input does not need.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit key.Binding
	Quit   key.Binding
	Help   key.Binding

	// Scrolling
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding

	// Conversations
	NewConversation    key.Binding
	DeleteConversation key.Binding
	NextConversation   key.Binding
	PrevConversation   key.Binding
	ToggleKnowledge    key.Binding
	Reload             key.Binding

	// Rating the latest reply
	LikeReply    key.Binding
	DislikeReply key.Binding

	// Layout
	ToggleSidebar key.Binding
	WidenPanel    key.Binding
	NarrowPanel   key.Binding

	// Mention completion popup
	CompletionNext   key.Binding
	CompletionPrev   key.Binding
	CompletionAccept key.Binding
	CompletionClose  key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		NewConversation: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		DeleteConversation: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete chat"),
		),
		NextConversation: key.NewBinding(
			key.WithKeys("ctrl+down", "alt+down"),
			key.WithHelp("C-down", "next chat"),
		),
		PrevConversation: key.NewBinding(
			key.WithKeys("ctrl+up", "alt+up"),
			key.WithHelp("C-up", "previous chat"),
		),
		ToggleKnowledge: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "knowledge base"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "reload"),
		),
		LikeReply: key.NewBinding(
			key.WithKeys("alt+="),
			key.WithHelp("M-=", "helpful"),
		),
		DislikeReply: key.NewBinding(
			key.WithKeys("alt+-"),
			key.WithHelp("M--", "unhelpful"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "sidebar"),
		),
		WidenPanel: key.NewBinding(
			key.WithKeys("alt+l"),
			key.WithHelp("M-l", "wider"),
		),
		NarrowPanel: key.NewBinding(
			key.WithKeys("alt+h"),
			key.WithHelp("M-h", "narrower"),
		),
		CompletionNext: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("down", "next match"),
		),
		CompletionPrev: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("up", "previous match"),
		),
		CompletionAccept: key.NewBinding(
			key.WithKeys("tab", "enter"),
			key.WithHelp("Tab", "pick"),
		),
		CompletionClose: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewConversation, k.ToggleKnowledge, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.ScrollUp, k.ScrollDown, k.PageUp, k.PageDown},
		{k.NewConversation, k.DeleteConversation, k.NextConversation, k.PrevConversation, k.ToggleKnowledge, k.Reload},
		{k.LikeReply, k.DislikeReply},
		{k.ToggleSidebar, k.WidenPanel, k.NarrowPanel, k.Help, k.Quit},
	}
}
