// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the CoCreateAI chat backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout for chat and ingestion requests (default: 60s)
	Timeout time.Duration

	// HealthTimeout for the reachability probe (default: 5s)
	HealthTimeout time.Duration

	// RequestsPerMinute paces chat and ingestion requests (0 = unlimited)
	RequestsPerMinute int

	// UserAgent sent with every request
	UserAgent string

	// HTTPClient overrides the transport (tests)
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://localhost:8000",
		Timeout:       60 * time.Second,
		HealthTimeout: 5 * time.Second,
		UserAgent:     "cocreate-chat",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the chat backend.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for baseURL with default settings.
func NewClient(baseURL string) (*Client, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client with custom configuration.
// The base URL must use the http or https scheme.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.HealthTimeout <= 0 {
		config.HealthTimeout = defaults.HealthTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "invalid backend URL", Cause: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ClientError{
			Type:    ErrTypeInvalidRequest,
			Message: fmt.Sprintf("unsupported backend URL scheme %q (want http or https)", u.Scheme),
		}
	}
	if u.Host == "" {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "backend URL has no host"}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		config:     config,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
	}
	if config.RequestsPerMinute > 0 {
		every := time.Minute / time.Duration(config.RequestsPerMinute)
		c.limiter = rate.NewLimiter(rate.Every(every), 1)
	}
	return c, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// HealthCheck reports whether the backend answers GET /health with a 2xx
// status. Every failure, including timeouts, yields false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Health(ctx)
	return err == nil
}

// Health probes GET /health and returns the reported status.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status, "health check"); err != nil {
		// A 2xx with an unexpected body still means the backend is up.
		var ce *ClientError
		if !errors.As(err, &ce) || ce.Type != ErrTypeInvalidResponse {
			return nil, err
		}
	}
	return &status, nil
}

// =============================================================================
// CHAT
// =============================================================================

// SendChatMessage posts a message to /api/chat and returns the reply.
func (c *Client) SendChatMessage(ctx context.Context, message, sessionID string, chatCtx ChatContext) (*ChatResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req := ChatRequest{
		Message:   message,
		SessionID: sessionID,
		Context:   chatCtx,
	}
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp, "chat request"); err != nil {
		return nil, err
	}
	// An empty body or a missing "response" field is not a reply.
	if resp.Response == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: ErrInvalidResponse.Message}
	}
	return &resp, nil
}

// =============================================================================
// INGESTION
// =============================================================================

// IngestConversation pushes a stored conversation into the backend knowledge base.
func (c *Client) IngestConversation(ctx context.Context, req IngestConversationRequest) (IngestResult, error) {
	if req.ConversationID == "" {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "conversation id is required"}
	}
	if req.Messages == nil {
		req.Messages = []IngestMessage{}
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result := IngestResult{}
	if err := c.do(ctx, http.MethodPost, "/api/ingest/conversation", req, &result, "conversation ingestion"); err != nil {
		return nil, err
	}
	return result, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// wait blocks until the limiter admits a request.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &ClientError{Type: ErrTypeTimeout, Message: "request pacing wait exceeded", Cause: err}
	}
	return nil
}

// do performs one JSON request. A nil body sends no payload; out receives
// the decoded 2xx response.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, op string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
		return statusError(op, resp.StatusCode, resp.Status, eb.Detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}
