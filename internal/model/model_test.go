// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	mentions := []EntityMention{{ID: "1", Type: EntityPerson, Name: "Ana"}}
	msg := NewUserMessage("hi @[Ana](person:1)", mentions)

	assert.True(t, strings.HasPrefix(msg.ID, "msg_"))
	assert.Equal(t, MessageUser, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())
	require.Len(t, msg.Mentions, 1)

	// The constructor must not alias the caller's slice.
	mentions[0].Name = "changed"
	assert.Equal(t, "Ana", msg.Mentions[0].Name)
}

func TestNewUserMessage_NoMentions(t *testing.T) {
	msg := NewUserMessage("plain", []EntityMention{})
	assert.Nil(t, msg.Mentions)
}

func TestNewBotMessage(t *testing.T) {
	msg := NewBotMessage("hello", []string{"Azure OpenAI"})

	assert.True(t, msg.IsBot())
	assert.Equal(t, []string{"Azure OpenAI"}, msg.Sources)
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewMessageID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("line one\nline two", nil)
	assert.Equal(t, "line one line two", msg.Preview(50))
	assert.Equal(t, "line ...", msg.Preview(8))
}

func TestFeedback_Toggle(t *testing.T) {
	assert.Equal(t, FeedbackPositive, FeedbackNone.Toggle(FeedbackPositive))
	assert.Equal(t, FeedbackNone, FeedbackPositive.Toggle(FeedbackPositive))
	assert.Equal(t, FeedbackNegative, FeedbackPositive.Toggle(FeedbackNegative))
	assert.Equal(t, FeedbackNone, FeedbackNegative.Toggle(FeedbackNegative))
}

func TestParseFeedback(t *testing.T) {
	for in, want := range map[string]Feedback{
		"positive": FeedbackPositive, "UP": FeedbackPositive, "good": FeedbackPositive,
		"negative": FeedbackNegative, "down": FeedbackNegative, " bad ": FeedbackNegative,
	} {
		got, ok := ParseFeedback(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseFeedback("meh")
	assert.False(t, ok)
}

func TestMessage_FeedbackOmittedWhenUnset(t *testing.T) {
	data, err := json.Marshal(NewBotMessage("hi", nil))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "feedback")

	msg := NewBotMessage("hi", nil)
	msg.Feedback = FeedbackNegative
	data, err = json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"feedback":"negative"`)
}

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		in   string
		want EntityType
		ok   bool
	}{
		{"project", EntityProject, true},
		{"process", EntityProcess, true},
		{"person", EntityPerson, true},
		{"agent", EntityAgent, true},
		{"pessoa", EntityPerson, true},
		{"agente", EntityAgent, true},
		{"team", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseEntityType(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AppendDerivesTitle(t *testing.T) {
	conv := NewConversation(NewConversationID())
	assert.Equal(t, DefaultTitle, conv.GetTitle())

	conv.Append(NewBotMessage("welcome", nil))
	assert.Equal(t, DefaultTitle, conv.GetTitle())

	conv.Append(NewUserMessage("How is project Atlas going?", nil))
	assert.Equal(t, "How is project Atlas going?", conv.GetTitle())
	assert.Equal(t, 2, conv.MessageCount())
}

func TestConversation_SetTitleWins(t *testing.T) {
	conv := NewConversation("c1")
	conv.SetTitle("Pinned")
	conv.Append(NewUserMessage("first question", nil))
	assert.Equal(t, "Pinned", conv.GetTitle())

	conv.SetTitle("")
	assert.Equal(t, "first question", conv.GetTitle())
}

func TestConversation_ToggleKnowledgeBase(t *testing.T) {
	conv := NewConversation("c1")
	assert.True(t, conv.ToggleKnowledgeBase())
	assert.False(t, conv.ToggleKnowledgeBase())
}

func TestConversation_CloneIsDeep(t *testing.T) {
	conv := NewConversation("c1")
	conv.Append(NewBotMessage("a", []string{"src"}))

	clone := conv.Clone()
	clone.Messages[0].Sources[0] = "other"
	clone.Append(NewUserMessage("b", nil))

	assert.Equal(t, "src", conv.Messages[0].Sources[0])
	assert.Equal(t, 1, conv.MessageCount())
}
