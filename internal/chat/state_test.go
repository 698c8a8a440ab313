// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

func TestNewState(t *testing.T) {
	s := NewState()
	assert.True(t, s.BackendAvailable)
	assert.False(t, s.IsLoading)
	assert.Empty(t, s.Messages)
}

func TestReduce_SendCycle(t *testing.T) {
	user := model.NewUserMessage("hi", nil)
	bot := model.NewBotMessage("hello", nil)

	s := NewState()
	s = Reduce(s, UserMessageAppended{Message: user})
	s = Reduce(s, SendStarted{})
	assert.True(t, s.IsLoading)

	s = Reduce(s, BotMessageAppended{Message: bot})
	s = Reduce(s, SendFinished{})

	assert.False(t, s.IsLoading)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, user.ID, s.Messages[0].ID)
	assert.Equal(t, bot.ID, s.Messages[1].ID)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	base := Reduce(NewState(), UserMessageAppended{Message: model.NewUserMessage("a", nil)})

	// Two branches from the same state must not share a backing array.
	left := Reduce(base, BotMessageAppended{Message: model.NewBotMessage("left", nil)})
	right := Reduce(base, BotMessageAppended{Message: model.NewBotMessage("right", nil)})

	assert.Len(t, base.Messages, 1)
	assert.Equal(t, "left", left.Messages[1].Content)
	assert.Equal(t, "right", right.Messages[1].Content)
}

func TestReduce_ResetAndLoad(t *testing.T) {
	s := NewState()
	s = Reduce(s, SendStarted{})
	s = Reduce(s, BackendProbed{Available: false})
	s = Reduce(s, UserMessageAppended{Message: model.NewUserMessage("a", nil)})

	s = Reduce(s, MessagesReset{Welcome: model.NewBotMessage("welcome", nil)})
	require.Len(t, s.Messages, 1)
	assert.True(t, s.Messages[0].IsBot())
	assert.True(t, s.IsLoading, "reset leaves loading alone")
	assert.False(t, s.BackendAvailable, "reset leaves availability alone")

	stored := []model.Message{model.NewUserMessage("x", nil), model.NewBotMessage("y", nil)}
	s = Reduce(s, MessagesLoaded{Messages: stored})
	require.Len(t, s.Messages, 2)

	stored[0].Content = "changed"
	assert.Equal(t, "x", s.Messages[0].Content)
}

func TestReduce_Flags(t *testing.T) {
	s := Reduce(NewState(), KnowledgeBaseSet{Enabled: true})
	assert.True(t, s.KnowledgeBase)

	s = Reduce(s, BackendProbed{Available: false})
	assert.False(t, s.BackendAvailable)
}

func TestReduce_FeedbackSet(t *testing.T) {
	bot := model.NewBotMessage("hi", nil)
	s := Reduce(NewState(), BotMessageAppended{Message: bot})
	before := s.Messages

	s = Reduce(s, FeedbackSet{MessageID: bot.ID, Feedback: model.FeedbackPositive})
	require.Len(t, s.Messages, 1)
	assert.Equal(t, model.FeedbackPositive, s.Messages[0].Feedback)
	assert.Equal(t, model.FeedbackNone, before[0].Feedback, "earlier state must not change")

	same := Reduce(s, FeedbackSet{MessageID: "missing", Feedback: model.FeedbackNegative})
	assert.Equal(t, s.Messages, same.Messages)
}

func TestState_CloneAndLast(t *testing.T) {
	_, ok := NewState().LastMessage()
	assert.False(t, ok)

	s := Reduce(NewState(), UserMessageAppended{Message: model.NewUserMessage("a", nil)})
	clone := s.Clone()
	clone.Messages[0].Content = "b"

	last, ok := s.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "a", last.Content)
}
