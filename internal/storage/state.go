// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for cocreate.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

// StateKey is the fixed key the whole conversation state is stored under.
const StateKey = "cocreate.conversations"

// =============================================================================
// STATE
// =============================================================================

// State is the full set of conversations plus the current selection.
//
// Transitions never modify the receiver: they copy the map and replace the
// touched conversation with a clone, so a State handed out earlier stays
// valid while the store moves on.
type State struct {
	Conversations map[string]*model.Conversation
	CurrentID     string
}

// NewState returns an empty state with no current conversation.
func NewState() State {
	return State{Conversations: make(map[string]*model.Conversation)}
}

// Conversation returns the conversation with the given ID.
func (s State) Conversation(id string) (*model.Conversation, bool) {
	conv, ok := s.Conversations[id]
	return conv, ok
}

// Current returns the current conversation, if any.
func (s State) Current() (*model.Conversation, bool) {
	if s.CurrentID == "" {
		return nil, false
	}
	return s.Conversation(s.CurrentID)
}

// Sorted returns conversations ordered by most recent update first. Ties are
// broken by ID, newest first, since IDs are time ordered.
func (s State) Sorted() []*model.Conversation {
	out := make([]*model.Conversation, 0, len(s.Conversations))
	for _, conv := range s.Conversations {
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// WithConversation adds conv and makes it current.
func (s State) WithConversation(conv *model.Conversation) State {
	next := s.copyMap()
	next.Conversations[conv.ID] = conv
	next.CurrentID = conv.ID
	return next
}

// WithCurrent selects id. Unknown IDs leave the state unchanged.
func (s State) WithCurrent(id string) State {
	if _, ok := s.Conversations[id]; !ok {
		return s
	}
	s.CurrentID = id
	return s
}

// WithMessage appends msg to the conversation id. It reports false, and
// returns the state unchanged, when the conversation does not exist.
func (s State) WithMessage(id string, msg model.Message) (State, bool) {
	return s.update(id, func(conv *model.Conversation) {
		conv.Append(msg)
	})
}

// WithToggledKnowledgeBase flips the knowledge-base flag of id.
func (s State) WithToggledKnowledgeBase(id string) (State, bool) {
	return s.update(id, func(conv *model.Conversation) {
		conv.ToggleKnowledgeBase()
	})
}

// WithTitle sets an explicit title on id. An empty title restores the
// derived one.
func (s State) WithTitle(id, title string) (State, bool) {
	return s.update(id, func(conv *model.Conversation) {
		conv.SetTitle(title)
	})
}

// WithFeedback applies the user's rating choice to bot message msgID of
// conversation id and returns the resulting rating. It reports false, with
// the state unchanged, when the conversation or bot message does not exist.
func (s State) WithFeedback(id, msgID string, chosen model.Feedback) (State, model.Feedback, bool) {
	conv, ok := s.Conversations[id]
	if !ok {
		return s, model.FeedbackNone, false
	}
	idx := -1
	for i, msg := range conv.Messages {
		if msg.ID == msgID && msg.IsBot() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, model.FeedbackNone, false
	}

	result := conv.Messages[idx].Feedback.Toggle(chosen)
	next, _ := s.update(id, func(c *model.Conversation) {
		c.Messages[idx].Feedback = result
	})
	return next, result, true
}

// Without removes id. The current selection is cleared when it pointed at
// the removed conversation.
func (s State) Without(id string) State {
	if _, ok := s.Conversations[id]; !ok {
		return s
	}
	next := s.copyMap()
	delete(next.Conversations, id)
	if next.CurrentID == id {
		next.CurrentID = ""
	}
	return next
}

func (s State) update(id string, fn func(*model.Conversation)) (State, bool) {
	conv, ok := s.Conversations[id]
	if !ok {
		return s, false
	}
	clone := conv.Clone()
	fn(clone)

	next := s.copyMap()
	next.Conversations[id] = clone
	return next, true
}

func (s State) copyMap() State {
	next := State{
		Conversations: make(map[string]*model.Conversation, len(s.Conversations)+1),
		CurrentID:     s.CurrentID,
	}
	for id, conv := range s.Conversations {
		next.Conversations[id] = conv
	}
	return next
}

// =============================================================================
// ENCODING
// =============================================================================

// persistedState is the on-disk shape. A missing selection is written as null.
type persistedState struct {
	Conversations map[string]*model.Conversation `json:"conversations"`
	CurrentID     *string                        `json:"current_conversation_id"`
}

// Encode serializes the state as a single JSON document.
func (s State) Encode() ([]byte, error) {
	p := persistedState{Conversations: s.Conversations}
	if p.Conversations == nil {
		p.Conversations = map[string]*model.Conversation{}
	}
	if s.CurrentID != "" {
		id := s.CurrentID
		p.CurrentID = &id
	}
	return json.Marshal(p)
}

// Decode parses a document written by Encode and repairs what it can:
// null entries are dropped, missing IDs are taken from the map key, and a
// current ID that names no conversation is cleared. repaired reports whether
// anything had to be fixed.
func Decode(data []byte) (state State, repaired bool, err error) {
	var p persistedState
	if err := json.Unmarshal(data, &p); err != nil {
		return NewState(), false, fmt.Errorf("decode conversations: %w", err)
	}

	state = NewState()
	for id, conv := range p.Conversations {
		if conv == nil || id == "" {
			repaired = true
			continue
		}
		if conv.ID != id {
			conv.ID = id
			repaired = true
		}
		if conv.Messages == nil {
			conv.Messages = make([]model.Message, 0)
		}
		state.Conversations[id] = conv
	}

	if p.CurrentID != nil && *p.CurrentID != "" {
		if _, ok := state.Conversations[*p.CurrentID]; ok {
			state.CurrentID = *p.CurrentID
		} else {
			repaired = true
		}
	}
	return state, repaired, nil
}
