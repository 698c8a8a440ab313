// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the CoCreateAI chat backend.
package gateway

import (
	"time"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

// =============================================================================
// CHAT
// =============================================================================

// ChatContext is the structured context sent along with a chat message.
// Empty fields are omitted, so a bare message serializes as {}.
type ChatContext struct {
	Mentions      []model.EntityMention `json:"mentions,omitempty"`
	KnowledgeBase bool                  `json:"knowledge_base,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string      `json:"message"`
	SessionID string      `json:"session_id,omitempty"`
	Context   ChatContext `json:"context"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
}

// =============================================================================
// INGESTION
// =============================================================================

// IngestMessage is one message of a conversation pushed to the knowledge base.
type IngestMessage struct {
	ID        string                `json:"id"`
	Type      string                `json:"type"`
	Content   string                `json:"content"`
	Timestamp time.Time             `json:"timestamp"`
	Mentions  []model.EntityMention `json:"mentions,omitempty"`
}

// IngestConversationRequest is the body of POST /api/ingest/conversation.
type IngestConversationRequest struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []IngestMessage        `json:"messages"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// IngestResult is the backend's free-form ingestion summary.
type IngestResult map[string]interface{}

// NewIngestMessages converts stored messages to their ingestion form.
func NewIngestMessages(messages []model.Message) []IngestMessage {
	out := make([]IngestMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, IngestMessage{
			ID:        msg.ID,
			Type:      msg.Type.String(),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Mentions:  msg.Mentions,
		})
	}
	return out
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthStatus is the body returned by GET /health.
type HealthStatus struct {
	Status string `json:"status"`
}

// errorBody is the error shape returned by the backend on failure.
type errorBody struct {
	Detail string `json:"detail"`
}
