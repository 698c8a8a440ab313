// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the live chat session for the active conversation.
package chat

import (
	"github.com/cocreateai/cocreate-chat/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is the visible state of a chat session.
type State struct {
	// Messages in display order
	Messages []model.Message

	// IsLoading is true while a send cycle is in flight
	IsLoading bool

	// BackendAvailable is the result of the startup probe; optimistic until then
	BackendAvailable bool

	// KnowledgeBase mirrors the active conversation's knowledge-base toggle
	KnowledgeBase bool
}

// NewState returns the initial state: no messages, idle, backend assumed up.
func NewState() State {
	return State{BackendAvailable: true}
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	s.Messages = cloneMessages(s.Messages)
	return s
}

// LastMessage returns the most recent message, or false if there is none.
func (s State) LastMessage() (model.Message, bool) {
	if len(s.Messages) == 0 {
		return model.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is a state transition understood by Reduce.
type Event interface {
	event()
}

// UserMessageAppended adds the user's message at the end of the list.
type UserMessageAppended struct{ Message model.Message }

// SendStarted marks the beginning of a send cycle.
type SendStarted struct{}

// BotMessageAppended adds a bot message at the end of the list.
type BotMessageAppended struct{ Message model.Message }

// SendFinished marks the end of a send cycle, whatever its outcome.
type SendFinished struct{}

// MessagesReset replaces the list with a single welcome message.
type MessagesReset struct{ Welcome model.Message }

// MessagesLoaded replaces the list with stored messages.
type MessagesLoaded struct{ Messages []model.Message }

// BackendProbed records the result of the reachability probe.
type BackendProbed struct{ Available bool }

// KnowledgeBaseSet updates the knowledge-base flag.
type KnowledgeBaseSet struct{ Enabled bool }

// FeedbackSet records the rating of the message with MessageID.
type FeedbackSet struct {
	MessageID string
	Feedback  model.Feedback
}

func (UserMessageAppended) event() {}
func (SendStarted) event()         {}
func (BotMessageAppended) event()  {}
func (SendFinished) event()        {}
func (MessagesReset) event()       {}
func (MessagesLoaded) event()      {}
func (BackendProbed) event()       {}
func (KnowledgeBaseSet) event()    {}
func (FeedbackSet) event()         {}

// =============================================================================
// REDUCER
// =============================================================================

// Reduce returns the state after applying ev to s. It never modifies s or
// the slices s refers to. Unknown events leave the state unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case UserMessageAppended:
		s.Messages = appendMessage(s.Messages, e.Message)
	case BotMessageAppended:
		s.Messages = appendMessage(s.Messages, e.Message)
	case SendStarted:
		s.IsLoading = true
	case SendFinished:
		s.IsLoading = false
	case MessagesReset:
		s.Messages = []model.Message{e.Welcome.Clone()}
	case MessagesLoaded:
		s.Messages = cloneMessages(e.Messages)
	case BackendProbed:
		s.BackendAvailable = e.Available
	case KnowledgeBaseSet:
		s.KnowledgeBase = e.Enabled
	case FeedbackSet:
		s.Messages = withFeedback(s.Messages, e.MessageID, e.Feedback)
	}
	return s
}

// appendMessage copies the list before appending so earlier states stay intact.
func appendMessage(msgs []model.Message, msg model.Message) []model.Message {
	out := make([]model.Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, msg.Clone())
}

// withFeedback copies the list with one message's rating replaced. An
// unknown ID returns the list as is.
func withFeedback(msgs []model.Message, id string, fb model.Feedback) []model.Message {
	for i, msg := range msgs {
		if msg.ID != id {
			continue
		}
		out := make([]model.Message, len(msgs))
		copy(out, msgs)
		out[i].Feedback = fb
		return out
	}
	return msgs
}

func cloneMessages(msgs []model.Message) []model.Message {
	out := make([]model.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Clone()
	}
	return out
}
