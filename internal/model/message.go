// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageType identifies who authored a message.
type MessageType string

const (
	MessageUser MessageType = "user"
	MessageBot  MessageType = "bot"
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	return string(t)
}

// DisplayName returns a human-readable name for the author.
func (t MessageType) DisplayName() string {
	switch t {
	case MessageUser:
		return "You"
	case MessageBot:
		return "Assistant"
	default:
		return string(t)
	}
}

// =============================================================================
// ENTITY MENTIONS
// =============================================================================

// EntityType is the fixed set of entity kinds that can be mentioned.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityProcess EntityType = "process"
	EntityPerson  EntityType = "person"
	EntityAgent   EntityType = "agent"
)

// EntityTypes lists every entity type in display order.
var EntityTypes = []EntityType{EntityProject, EntityProcess, EntityPerson, EntityAgent}

// legacyEntityTypes maps the literals used by older clients onto the four variants.
var legacyEntityTypes = map[string]EntityType{
	"projeto":  EntityProject,
	"processo": EntityProcess,
	"pessoa":   EntityPerson,
	"agente":   EntityAgent,
}

// ParseEntityType converts a wire literal into an EntityType.
// Returns false for anything outside the four variants.
func ParseEntityType(s string) (EntityType, bool) {
	switch t := EntityType(s); t {
	case EntityProject, EntityProcess, EntityPerson, EntityAgent:
		return t, true
	}
	if t, ok := legacyEntityTypes[s]; ok {
		return t, true
	}
	return "", false
}

// String returns the wire literal of the entity type.
func (t EntityType) String() string {
	return string(t)
}

// Label returns a capitalized label for display.
func (t EntityType) Label() string {
	switch t {
	case EntityProject:
		return "Project"
	case EntityProcess:
		return "Process"
	case EntityPerson:
		return "Person"
	case EntityAgent:
		return "Agent"
	default:
		return string(t)
	}
}

// EntityMention references an external entity from within message text.
type EntityMention struct {
	ID   string     `json:"id"`
	Type EntityType `json:"type"`
	Name string     `json:"name"`
}

// =============================================================================
// FEEDBACK
// =============================================================================

// Feedback is the user's rating of a bot reply.
type Feedback string

const (
	FeedbackNone     Feedback = ""
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
)

// ParseFeedback converts a rating literal. "up"/"down" and "good"/"bad" are
// accepted as aliases.
func ParseFeedback(s string) (Feedback, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "up", "good", "+":
		return FeedbackPositive, true
	case "negative", "down", "bad", "-":
		return FeedbackNegative, true
	}
	return FeedbackNone, false
}

// Toggle returns the rating after the user picks chosen: picking the current
// rating again clears it.
func (f Feedback) Toggle(chosen Feedback) Feedback {
	if f == chosen {
		return FeedbackNone
	}
	return chosen
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single chat message. Content is never edited after creation;
// only the feedback of a bot message changes. Constructors copy the slices
// they are given.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Mentions  []EntityMention `json:"mentions,omitempty"`
	Sources   []string        `json:"sources,omitempty"`
	Feedback  Feedback        `json:"feedback,omitempty"`
}

// NewUserMessage creates a user message. Mentions are attached only when non-empty.
func NewUserMessage(content string, mentions []EntityMention) Message {
	return Message{
		ID:        NewMessageID(),
		Type:      MessageUser,
		Content:   content,
		Timestamp: time.Now(),
		Mentions:  cloneMentions(mentions),
	}
}

// NewBotMessage creates a bot message with optional knowledge sources.
func NewBotMessage(content string, sources []string) Message {
	return Message{
		ID:        NewMessageID(),
		Type:      MessageBot,
		Content:   content,
		Timestamp: time.Now(),
		Sources:   cloneStrings(sources),
	}
}

// WithMentions returns a copy of the message carrying the given mentions.
// It is meant for construction pipelines, before the message is published.
func (m Message) WithMentions(mentions []EntityMention) Message {
	m.Mentions = cloneMentions(mentions)
	return m
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Type == MessageUser
}

// IsBot reports whether the message was written by the assistant.
func (m Message) IsBot() bool {
	return m.Type == MessageBot
}

// Preview returns a single-line preview truncated to maxLen runes.
func (m Message) Preview(maxLen int) string {
	content := strings.Join(strings.Fields(m.Content), " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.Mentions = cloneMentions(m.Mentions)
	m.Sources = cloneStrings(m.Sources)
	return m
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewMessageID creates a unique, time-ordered message ID.
func NewMessageID() string {
	return "msg_" + uuid.Must(uuid.NewV7()).String()
}

func cloneMentions(in []EntityMention) []EntityMention {
	if len(in) == 0 {
		return nil
	}
	out := make([]EntityMention, len(in))
	copy(out, in)
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
