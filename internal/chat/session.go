// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the live chat session for the active conversation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cocreateai/cocreate-chat/internal/gateway"
	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
)

// ErrSendInFlight is returned when a send is requested while another one is
// still waiting for the backend.
var ErrSendInFlight = errors.New("a message is already being sent")

// Default texts used when Options leaves them empty.
const (
	DefaultWelcomeMessage = "Hi! I'm the CoCreateAI assistant. Ask about projects, processes, people or agents. Type @ to mention one."
	DefaultErrorMessage   = "Sorry, something went wrong while processing your question. Please try again."
	DefaultOfflineMessage = "⚠️ The backend is not available right now. Please check that the server is running."
)

// Default source labels attached to bot replies.
var (
	DefaultKnowledgeSources = []string{"Azure OpenAI", "Neo4j Knowledge Graph"}
	DefaultOfflineSources   = []string{"Local System"}
)

// =============================================================================
// GATEWAY
// =============================================================================

// Gateway is the backend the session talks to. *gateway.Client implements it.
type Gateway interface {
	// HealthCheck reports reachability; it must not panic and treats every
	// failure as false.
	HealthCheck(ctx context.Context) bool

	// SendChatMessage sends the user's text and returns the reply.
	SendChatMessage(ctx context.Context, message, sessionID string, chatCtx gateway.ChatContext) (*gateway.ChatResponse, error)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Session. Zero values select the defaults.
type Options struct {
	// SessionID identifies the backend conversation; default "session-<unix ms>"
	SessionID string

	// InitialMessages seeds the message list
	InitialMessages []model.Message

	// Fixed texts
	WelcomeMessage string
	ErrorMessage   string
	OfflineMessage string

	// Source labels for backend replies and for the offline notice
	KnowledgeSources []string
	OfflineSources   []string

	// OnMessageSent runs synchronously after each appended message of a send cycle
	OnMessageSent func(model.Message)

	// OnError runs after a failed backend call, once the error message is appended
	OnError func(error)

	// Logger receives session diagnostics; nil discards them
	Logger *log.Logger
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns the live message list of the active conversation and runs one
// send cycle at a time.
//
// The Session is thread-safe. The backend call runs without holding the lock
// and observers are invoked outside the lock, so they may call back into the
// session.
type Session struct {
	mu    sync.Mutex
	state State

	gateway   Gateway
	sessionID string
	opts      Options
	logger    *log.Logger

	probeDone chan struct{}
}

// NewSession creates a session and starts the one-time backend probe in the
// background. Until the probe resolves the backend is assumed available.
// A nil gateway makes the session permanently offline.
func NewSession(ctx context.Context, gw Gateway, opts Options) *Session {
	if opts.SessionID == "" {
		opts.SessionID = fmt.Sprintf("session-%d", time.Now().UnixMilli())
	}
	if opts.WelcomeMessage == "" {
		opts.WelcomeMessage = DefaultWelcomeMessage
	}
	if opts.ErrorMessage == "" {
		opts.ErrorMessage = DefaultErrorMessage
	}
	if opts.OfflineMessage == "" {
		opts.OfflineMessage = DefaultOfflineMessage
	}
	if len(opts.KnowledgeSources) == 0 {
		opts.KnowledgeSources = DefaultKnowledgeSources
	}
	if len(opts.OfflineSources) == 0 {
		opts.OfflineSources = DefaultOfflineSources
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Session{
		state:     Reduce(NewState(), MessagesLoaded{Messages: opts.InitialMessages}),
		gateway:   gw,
		sessionID: opts.SessionID,
		opts:      opts,
		logger:    logger,
		probeDone: make(chan struct{}),
	}

	go s.probe(ctx)
	return s
}

// probe checks backend reachability exactly once.
func (s *Session) probe(ctx context.Context) {
	defer close(s.probeDone)

	available := s.gateway != nil && s.gateway.HealthCheck(ctx)
	s.apply(BackendProbed{Available: available})

	if !available {
		s.logger.Warn("backend not available, using offline mode")
	} else {
		s.logger.Debug("backend available")
	}
}

// ProbeDone is closed once the startup probe result has been applied.
func (s *Session) ProbeDone() <-chan struct{} {
	return s.probeDone
}

// SessionID returns the identifier sent to the backend. It never changes.
func (s *Session) SessionID() string {
	return s.sessionID
}

// =============================================================================
// SEND CYCLE
// =============================================================================

// SendMessage runs one send cycle. Whitespace-only content is ignored and
// returns nil. A send while another is in flight returns ErrSendInFlight and
// changes nothing. Backend failures are reported through the error message
// and OnError; they are not returned.
func (s *Session) SendMessage(ctx context.Context, content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	mentions := mention.ExtractMentions(content)
	userMsg := model.NewUserMessage(trimmed, mentions)

	s.mu.Lock()
	if s.state.IsLoading {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.state = Reduce(s.state, UserMessageAppended{Message: userMsg})
	s.state = Reduce(s.state, SendStarted{})
	available := s.state.BackendAvailable
	knowledgeBase := s.state.KnowledgeBase
	s.mu.Unlock()

	defer s.apply(SendFinished{})

	s.notifySent(userMsg)

	botMsg, err := s.reply(ctx, content, mentions, available, knowledgeBase)

	s.apply(BotMessageAppended{Message: botMsg})
	s.notifySent(botMsg)

	if err != nil {
		s.logger.Error("chat request failed", "err", err, "session", s.sessionID)
		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
	}
	return nil
}

// reply produces the bot message for a send cycle. The raw, untrimmed
// content is what the backend receives.
func (s *Session) reply(ctx context.Context, content string, mentions []model.EntityMention, available, knowledgeBase bool) (model.Message, error) {
	if !available || s.gateway == nil {
		return model.NewBotMessage(s.opts.OfflineMessage, s.opts.OfflineSources), nil
	}

	chatCtx := gateway.ChatContext{KnowledgeBase: knowledgeBase}
	if len(mentions) > 0 {
		chatCtx.Mentions = mentions
	}

	start := time.Now()
	resp, err := s.gateway.SendChatMessage(ctx, content, s.sessionID, chatCtx)
	if err != nil {
		return model.NewBotMessage(s.opts.ErrorMessage, nil), err
	}
	if resp == nil {
		return model.NewBotMessage(s.opts.ErrorMessage, nil), errors.New("backend returned no response")
	}

	s.logger.Debug("chat reply received", "duration", time.Since(start), "mentions", len(mentions))
	msg := model.NewBotMessage(resp.Response, s.opts.KnowledgeSources)
	return msg.WithMentions(mention.ExtractMentions(resp.Response)), nil
}

// =============================================================================
// LIST MANAGEMENT
// =============================================================================

// ResetMessages replaces the list with one fresh bot message carrying the
// given welcome text, or the configured default. Loading and availability
// are untouched.
func (s *Session) ResetMessages(welcome ...string) {
	text := s.opts.WelcomeMessage
	if len(welcome) > 0 && welcome[0] != "" {
		text = welcome[0]
	}
	s.apply(MessagesReset{Welcome: model.NewBotMessage(text, nil)})
}

// LoadMessages replaces the list with stored messages.
func (s *Session) LoadMessages(msgs []model.Message) {
	s.apply(MessagesLoaded{Messages: msgs})
}

// SetKnowledgeBase sets the flag sent with each chat request.
func (s *Session) SetKnowledgeBase(enabled bool) {
	s.apply(KnowledgeBaseSet{Enabled: enabled})
}

// SetFeedback shows a rating on the message with the given ID.
func (s *Session) SetFeedback(messageID string, fb model.Feedback) {
	s.apply(FeedbackSet{MessageID: messageID, Feedback: fb})
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns a snapshot of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Messages returns a copy of the message list.
func (s *Session) Messages() []model.Message {
	return s.State().Messages
}

// IsLoading reports whether a send cycle is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLoading
}

// BackendAvailable reports the current availability flag.
func (s *Session) BackendAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.BackendAvailable
}

// =============================================================================
// HELPERS
// =============================================================================

// apply runs one transition under the lock.
func (s *Session) apply(ev Event) {
	s.mu.Lock()
	s.state = Reduce(s.state, ev)
	s.mu.Unlock()
}

func (s *Session) notifySent(msg model.Message) {
	if s.opts.OnMessageSent != nil {
		s.opts.OnMessageSent(msg.Clone())
	}
}
