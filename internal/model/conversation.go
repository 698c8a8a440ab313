// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is shown for conversations that have no user message yet.
const DefaultTitle = "New conversation"

// titleLength is the number of runes kept when deriving a title.
const titleLength = 50

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered thread of messages with its own settings.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages in insertion (chronological) order
	Messages []Message `json:"messages"`

	// KnowledgeBaseEnabled is a per-conversation toggle, independent of content
	KnowledgeBaseEnabled bool `json:"knowledge_base_enabled"`

	// TitleSet marks a title chosen explicitly; derivation never replaces it
	TitleSet bool `json:"title_set,omitempty"`
}

// NewConversation creates an empty conversation with the given ID.
func NewConversation(id string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]Message, 0),
	}
}

// NewConversationID creates a unique, time-ordered conversation ID.
func NewConversationID() string {
	return "conv_" + uuid.Must(uuid.NewV7()).String()
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg.Clone())
	c.UpdatedAt = time.Now()
	c.deriveTitle()
}

// ToggleKnowledgeBase flips the knowledge-base flag and returns the new value.
func (c *Conversation) ToggleKnowledgeBase() bool {
	c.KnowledgeBaseEnabled = !c.KnowledgeBaseEnabled
	c.UpdatedAt = time.Now()
	return c.KnowledgeBaseEnabled
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// LastMessage returns the most recent message, or false if empty.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// MessagesCopy returns a deep copy of the message list.
func (c *Conversation) MessagesCopy() []Message {
	out := make([]Message, len(c.Messages))
	for i, msg := range c.Messages {
		out[i] = msg.Clone()
	}
	return out
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// SetTitle sets the title explicitly. An empty title re-enables derivation.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.TitleSet = title != ""
	c.UpdatedAt = time.Now()
	if !c.TitleSet {
		c.deriveTitle()
	}
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return DefaultTitle
}

// deriveTitle uses the first user message as title unless one was set.
func (c *Conversation) deriveTitle() {
	if c.TitleSet {
		return
	}
	for _, msg := range c.Messages {
		if msg.IsUser() {
			c.Title = msg.Preview(titleLength)
			return
		}
	}
}

// =============================================================================
// COPYING
// =============================================================================

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = c.MessagesCopy()
	return &clone
}
