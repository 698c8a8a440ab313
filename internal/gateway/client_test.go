// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return client
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client, err := NewClientWithConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", client.BaseURL())
	assert.Equal(t, 60*time.Second, client.config.Timeout)
	assert.Nil(t, client.limiter)
}

func TestNewClientWithConfig_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "localhost:8000", "http://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NewClient(raw)
			require.Error(t, err)

			var ce *ClientError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, ErrTypeInvalidRequest, ce.Type)
		})
	}
}

func TestNewClientWithConfig_RateLimiter(t *testing.T) {
	client, err := NewClientWithConfig(&ClientConfig{RequestsPerMinute: 30})
	require.NoError(t, err)
	require.NotNil(t, client.limiter)
	assert.Equal(t, 1, client.limiter.Burst())
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"status":"healthy"}`))
	}))

	assert.True(t, client.HealthCheck(context.Background()))

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
}

func TestHealthCheck_NonJSONBodyIsHealthy(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	assert.True(t, client.HealthCheck(context.Background()))
}

func TestHealthCheck_Failures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		assert.False(t, client.HealthCheck(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		client, err := NewClient(url)
		require.NoError(t, err)
		assert.False(t, client.HealthCheck(context.Background()))
	})

	t.Run("timeout", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(block)
			srv.Close()
		})

		client, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, HealthTimeout: 50 * time.Millisecond})
		require.NoError(t, err)

		_, err = client.Health(context.Background())
		assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	})
}

// =============================================================================
// CHAT
// =============================================================================

func TestSendChatMessage(t *testing.T) {
	var got ChatRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ChatResponse{Response: "Atlas is on track", SessionID: got.SessionID})
	}))

	mentions := []model.EntityMention{{ID: "1", Type: model.EntityProject, Name: "Atlas"}}
	resp, err := client.SendChatMessage(context.Background(), "status of @[Atlas](project:1)?", "session-1",
		ChatContext{Mentions: mentions})
	require.NoError(t, err)

	assert.Equal(t, "Atlas is on track", resp.Response)
	assert.Equal(t, "session-1", resp.SessionID)
	assert.Equal(t, "status of @[Atlas](project:1)?", got.Message)
	assert.Equal(t, mentions, got.Context.Mentions)
}

func TestSendChatMessage_EmptyContextSerializesAsObject(t *testing.T) {
	var raw map[string]json.RawMessage
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &raw))
		w.Write([]byte(`{"response":"ok"}`))
	}))

	_, err := client.SendChatMessage(context.Background(), "hi", "s", ChatContext{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw["context"]))
}

func TestSendChatMessage_ServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"agent crashed"}`))
	}))

	_, err := client.SendChatMessage(context.Background(), "hi", "s", ChatContext{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServer))
	assert.Contains(t, err.Error(), "agent crashed")

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusInternalServerError, ce.StatusCode)
}

func TestSendChatMessage_BadJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":`))
	}))

	_, err := client.SendChatMessage(context.Background(), "hi", "s", ChatContext{})
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeInvalidResponse, ce.Type)
}

func TestSendChatMessage_EmptyReply(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":       "",
		"missing response": `{"session_id":"s"}`,
		"empty response":   `{"response":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))

			resp, err := client.SendChatMessage(context.Background(), "hi", "s", ChatContext{})
			assert.Nil(t, resp)
			assert.True(t, errors.Is(err, ErrInvalidResponse), "got %v", err)
		})
	}
}

func TestSendChatMessage_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url)
	require.NoError(t, err)

	_, err = client.SendChatMessage(context.Background(), "hi", "s", ChatContext{})
	assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
}

func TestSendChatMessage_RateLimited(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"response":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, RequestsPerMinute: 1})
	require.NoError(t, err)

	_, err = client.SendChatMessage(context.Background(), "first", "s", ChatContext{})
	require.NoError(t, err)

	// The second request would wait a minute; the context gives up first.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.SendChatMessage(ctx, "second", "s", ChatContext{})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// =============================================================================
// INGESTION
// =============================================================================

func TestIngestConversation(t *testing.T) {
	var got IngestConversationRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingest/conversation", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"success","messages_ingested":2}`))
	}))

	msgs := []model.Message{
		model.NewUserMessage("hi @[Ana](person:1)", []model.EntityMention{{ID: "1", Type: model.EntityPerson, Name: "Ana"}}),
		model.NewBotMessage("hello", []string{"Azure OpenAI"}),
	}
	result, err := client.IngestConversation(context.Background(), IngestConversationRequest{
		ConversationID: "conv_1",
		Messages:       NewIngestMessages(msgs),
		Metadata:       map[string]interface{}{"title": "Greeting"},
	})
	require.NoError(t, err)

	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "conv_1", got.ConversationID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[0].Type)
	assert.Equal(t, "bot", got.Messages[1].Type)
	assert.Len(t, got.Messages[0].Mentions, 1)
	assert.Equal(t, "Greeting", got.Metadata["title"])
}

func TestIngestConversation_RequiresID(t *testing.T) {
	client, err := NewClient("http://localhost:1")
	require.NoError(t, err)

	_, err = client.IngestConversation(context.Background(), IngestConversationRequest{})
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeInvalidRequest, ce.Type)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestClientError_Is(t *testing.T) {
	err := &ClientError{Type: ErrTypeTimeout, Message: "other text"}

	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.False(t, errors.Is(err, &ClientError{Type: ErrTypeTimeout, Message: "not a sentinel"}))
	assert.Equal(t, "timeout", err.Type.String())

	cause := errors.New("dial tcp: refused")
	wrapped := &ClientError{Type: ErrTypeUnavailable, Message: "backend is not reachable", Cause: cause}
	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, "backend is not reachable: dial tcp: refused", wrapped.Error())
}
