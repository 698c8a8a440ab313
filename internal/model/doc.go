// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types shared by the chat session, the
// conversation store and the UI: messages, entity mentions and conversations.
//
// # Key Types
//
//   - Message: Immutable chat message (user or bot) with optional mentions and sources
//   - EntityMention: Reference to an external entity (project, process, person, agent)
//   - Conversation: Ordered thread of messages with a title and a knowledge-base toggle
//
// # Usage
//
// Create messages:
//
//	user := model.NewUserMessage("Hello @[Ana](person:1)", mentions)
//	bot := model.NewBotMessage("Hi Ana!", []string{"Azure OpenAI"})
//
// Build a conversation:
//
//	conv := model.NewConversation(id)
//	conv.Append(user)
//	conv.Append(bot)
package model
