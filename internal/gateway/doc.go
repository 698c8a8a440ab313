// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the CoCreateAI chat backend.
//
// The backend exposes a small JSON API:
//
//	GET  /health                   reachability probe
//	POST /api/chat                 {"message","session_id","context"} -> {"response","session_id"}
//	POST /api/ingest/conversation  {"conversation_id","messages","metadata"}
//
// # Key Types
//
//   - Client: Thread-safe API client with optional request pacing
//   - ClientConfig: Base URL, timeouts and requests-per-minute limit
//   - ChatContext: Mentions and flags sent along with a chat message
//   - ClientError: Typed error carrying an ErrorType and the cause
//
// # Usage
//
//	client, err := gateway.NewClientWithConfig(&gateway.ClientConfig{
//	    BaseURL: "http://localhost:8000",
//	})
//	if !client.HealthCheck(ctx) {
//	    // degrade to offline mode
//	}
//	resp, err := client.SendChatMessage(ctx, "status of @[Atlas](project:1)?", sessionID,
//	    gateway.ChatContext{Mentions: mentions})
package gateway
