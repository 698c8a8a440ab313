// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for cocreate.
package storage

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/cocreateai/cocreate-chat/internal/config"
	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ErrMessageNotFound is returned when a rated message does not exist or is
// not a bot reply.
var ErrMessageNotFound = &ConversationError{Message: "bot message not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
	ID      string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	if e.ID == "" {
		return e.Message
	}
	return e.Message + ": " + e.ID
}

// Is matches conversation errors by message, ignoring the ID.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

func notFound(id string) error {
	return &ConversationError{Message: ErrConversationNotFound.Message, ID: id}
}

// =============================================================================
// STORE
// =============================================================================

// Store owns the conversation state and persists it through a Backend after
// every mutation.
//
// The Store is thread-safe. A failed write is returned to the caller but the
// in-memory mutation is kept; the next successful write persists it.
type Store struct {
	mu      sync.Mutex
	state   State
	backend Backend
	logger  *log.Logger
}

// NewStore creates a store and loads its state from backend. Absent or
// unreadable data yields an empty store; it is logged, never returned.
func NewStore(backend Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Store{backend: backend, logger: logger}
	s.state = s.load()
	return s
}

// OpenBackend creates the backend selected by the storage configuration.
func OpenBackend(cfg *config.Config) (Backend, error) {
	if cfg.Storage.Driver == "memory" {
		return NewMemoryBackend(), nil
	}
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	switch cfg.Storage.Driver {
	case "sqlite":
		return NewSQLiteBackend(path)
	case "file", "":
		return NewFileBackend(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Backend returns the backend the store writes to.
func (s *Store) Backend() Backend {
	return s.backend
}

// load reads the persisted state. Must be called without holding mu, or
// from the constructor.
func (s *Store) load() State {
	data, err := s.backend.Get(StateKey)
	if errors.Is(err, ErrKeyNotFound) {
		s.logger.Debug("no stored conversations")
		return NewState()
	}
	if err != nil {
		s.logger.Warn("failed to read conversations, starting empty", "err", err)
		return NewState()
	}

	state, repaired, err := Decode(data)
	if err != nil {
		s.logger.Warn("stored conversations are corrupt, starting empty", "err", err)
		return NewState()
	}
	if repaired {
		s.logger.Warn("repaired stored conversations", "conversations", len(state.Conversations))
	}
	s.logger.Debug("loaded conversations", "count", len(state.Conversations), "current", state.CurrentID)
	return state
}

// Reload replaces the in-memory state with what the backend holds now.
func (s *Store) Reload() {
	state := s.load()
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// commit installs next and persists it. Callers hold mu.
func (s *Store) commit(next State) error {
	s.state = next
	data, err := next.Encode()
	if err != nil {
		s.logger.Error("failed to encode conversations", "err", err)
		return fmt.Errorf("encode conversations: %w", err)
	}
	if err := s.backend.Put(StateKey, data); err != nil {
		s.logger.Error("failed to persist conversations", "err", err)
		return fmt.Errorf("persist conversations: %w", err)
	}
	return nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateConversation creates an empty conversation, makes it current and
// returns its ID. The ID is valid even when the write fails.
func (s *Store) CreateConversation() (string, error) {
	conv := model.NewConversation(model.NewConversationID())

	s.mu.Lock()
	defer s.mu.Unlock()
	return conv.ID, s.commit(s.state.WithConversation(conv))
}

// SetCurrentConversationID selects id. Unknown IDs are ignored.
func (s *Store) SetCurrentConversationID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Conversations[id]; !ok || s.state.CurrentID == id {
		return nil
	}
	return s.commit(s.state.WithCurrent(id))
}

// SelectConversation makes id current and returns a copy of its messages.
// It reports false, changing nothing, when id does not exist.
func (s *Store) SelectConversation(id string) ([]model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.state.Conversations[id]
	if !ok {
		return nil, false
	}
	if s.state.CurrentID != id {
		// Selection survives a failed write; it has already been logged.
		_ = s.commit(s.state.WithCurrent(id))
	}
	return conv.MessagesCopy(), true
}

// AddMessage appends msg to the conversation and persists immediately.
// Unknown IDs return ErrConversationNotFound and change nothing.
func (s *Store) AddMessage(conversationID string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.state.WithMessage(conversationID, msg)
	if !ok {
		return notFound(conversationID)
	}
	return s.commit(next)
}

// DeleteConversation removes id, clearing the selection if it was current.
// Unknown IDs are ignored.
func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Conversations[id]; !ok {
		return nil
	}
	return s.commit(s.state.Without(id))
}

// ToggleKnowledgeBase flips the knowledge-base flag of id and returns the
// new value. Unknown IDs are ignored and report false.
func (s *Store) ToggleKnowledgeBase(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.state.WithToggledKnowledgeBase(id)
	if !ok {
		return false, nil
	}
	return next.Conversations[id].KnowledgeBaseEnabled, s.commit(next)
}

// RenameConversation sets an explicit title. An empty title restores the
// title derived from the first user message.
func (s *Store) RenameConversation(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.state.WithTitle(id, strings.TrimSpace(title))
	if !ok {
		return notFound(id)
	}
	return s.commit(next)
}

// SetFeedback rates bot message msgID of conversation id. Choosing the
// rating the message already has clears it. The resulting rating is
// returned.
func (s *Store) SetFeedback(id, msgID string, chosen model.Feedback) (model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Conversations[id]; !ok {
		return model.FeedbackNone, notFound(id)
	}
	next, result, ok := s.state.WithFeedback(id, msgID, chosen)
	if !ok {
		return model.FeedbackNone, &ConversationError{Message: ErrMessageNotFound.Message, ID: msgID}
	}
	return result, s.commit(next)
}

// =============================================================================
// QUERIES
// =============================================================================

// Snapshot returns the current state. The returned value must be treated as
// read-only; it is not affected by later mutations.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentConversationID returns the selected conversation ID, or "".
func (s *Store) CurrentConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentID
}

// Conversation returns a copy of the conversation with the given ID.
func (s *Store) Conversation(id string) (*model.Conversation, bool) {
	conv, ok := s.Snapshot().Conversation(id)
	if !ok {
		return nil, false
	}
	return conv.Clone(), true
}

// Current returns a copy of the current conversation.
func (s *Store) Current() (*model.Conversation, bool) {
	conv, ok := s.Snapshot().Current()
	if !ok {
		return nil, false
	}
	return conv.Clone(), true
}

// List returns copies of all conversations, most recently updated first.
func (s *Store) List() []*model.Conversation {
	sorted := s.Snapshot().Sorted()
	out := make([]*model.Conversation, len(sorted))
	for i, conv := range sorted {
		out[i] = conv.Clone()
	}
	return out
}

// Len returns the number of stored conversations.
func (s *Store) Len() int {
	return len(s.Snapshot().Conversations)
}

// Resolve finds a conversation by full ID or by unique ID prefix, the way
// the CLI accepts shortened IDs.
func (s *Store) Resolve(idOrPrefix string) (*model.Conversation, error) {
	state := s.Snapshot()
	if conv, ok := state.Conversation(idOrPrefix); ok {
		return conv.Clone(), nil
	}
	if idOrPrefix == "" {
		return nil, notFound(idOrPrefix)
	}

	var match *model.Conversation
	for id, conv := range state.Conversations {
		if strings.HasPrefix(id, idOrPrefix) || strings.HasPrefix(strings.TrimPrefix(id, "conv_"), idOrPrefix) {
			if match != nil {
				return nil, &ConversationError{Message: "ambiguous conversation ID", ID: idOrPrefix}
			}
			match = conv
		}
	}
	if match == nil {
		return nil, notFound(idOrPrefix)
	}
	return match.Clone(), nil
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList renders conversations as a plain table for the CLI. The current
// conversation is marked with '*'.
func FormatList(convs []*model.Conversation, currentID string) string {
	if len(convs) == 0 {
		return "No conversations found."
	}

	var sb strings.Builder
	sb.WriteString("  " + util.PadRight("ID", 18) + " " + util.PadRight("Updated", 16) + " " +
		util.PadRight("Msgs", 5) + " " + util.PadRight("KB", 3) + " Title\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")

	for _, conv := range convs {
		marker := "  "
		if conv.ID == currentID {
			marker = "* "
		}
		kb := "-"
		if conv.KnowledgeBaseEnabled {
			kb = "on"
		}
		sb.WriteString(marker +
			util.PadRight(ShortID(conv.ID), 18) + " " +
			util.PadRight(conv.UpdatedAt.Format("2006-01-02 15:04"), 16) + " " +
			util.PadRight(strconv.Itoa(conv.MessageCount()), 5) + " " +
			util.PadRight(kb, 3) + " " +
			util.TruncateWidth(util.SingleLine(mention.Humanize(conv.GetTitle())), 40) + "\n")
	}
	return sb.String()
}

// ShortID returns the first 13 characters of the ID after the "conv_"
// prefix, enough to stay unique for v7 IDs created more than a few
// milliseconds apart.
func ShortID(id string) string {
	short := strings.TrimPrefix(id, "conv_")
	if len(short) > 13 {
		short = short[:13]
	}
	return short
}
