// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the conversation store and the chat session together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cocreateai/cocreate-chat/internal/chat"
	"github.com/cocreateai/cocreate-chat/internal/entity"
	"github.com/cocreateai/cocreate-chat/internal/gateway"
	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/storage"
)

// ErrBusy is returned when the conversation cannot change while a reply is
// pending.
var ErrBusy = errors.New("wait for the pending reply to finish")

// ErrNoReply is returned when there is no stored bot reply to rate.
var ErrNoReply = errors.New("no reply to rate")

// ErrNoIngester is returned by Ingest when no ingestion endpoint is set.
var ErrNoIngester = errors.New("conversation ingestion is not configured")

// Ingester pushes a stored conversation into the knowledge base.
// *gateway.Client implements it.
type Ingester interface {
	IngestConversation(ctx context.Context, req gateway.IngestConversationRequest) (gateway.IngestResult, error)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Workspace.
type Options struct {
	// Store holds the conversations; required
	Store *storage.Store

	// Gateway is the chat backend; nil runs offline
	Gateway chat.Gateway

	// Ingester uploads conversations; optional
	Ingester Ingester

	// Catalog lists mentionable entities; nil uses the default catalog
	Catalog *entity.Catalog

	// Chat configures the session. OnMessageSent is owned by the Workspace
	// and ignored here; OnError is called for backend and persistence errors.
	Chat chat.Options

	// Watch reloads the store when another process rewrites it (file
	// backend only)
	Watch bool

	// OnChange runs after conversations or messages change, on whatever
	// goroutine made the change
	OnChange func()

	// Logger receives diagnostics; nil discards them
	Logger *log.Logger
}

// =============================================================================
// WORKSPACE
// =============================================================================

// Workspace keeps the chat session in step with the current conversation.
//
// Changing conversations is refused with ErrBusy while a send is pending, so
// a reply always lands in the conversation it was asked from.
type Workspace struct {
	store     *storage.Store
	session   *chat.Session
	ingester  Ingester
	catalog   *entity.Catalog
	selection *mention.Selection
	logger    *log.Logger
	onError   func(error)
	onChange  func()

	// busy is held for a whole send cycle and briefly by conversation changes
	busy sync.Mutex

	// reloadPending is set when a store change arrives while busy is held
	reloadPending atomic.Bool

	mu      sync.Mutex
	target  string // conversation that receives the messages of the running send
	watcher *storage.Watcher
}

// New creates a workspace and shows the current conversation, or the welcome
// message when there is none.
func New(ctx context.Context, opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = entity.DefaultCatalog()
	}

	w := &Workspace{
		store:     opts.Store,
		ingester:  opts.Ingester,
		catalog:   catalog,
		selection: mention.NewSelection(),
		logger:    logger,
		onError:   opts.Chat.OnError,
		onChange:  opts.OnChange,
	}

	chatOpts := opts.Chat
	chatOpts.OnMessageSent = w.persist
	chatOpts.OnError = w.reportError
	if chatOpts.Logger == nil {
		chatOpts.Logger = logger.With("component", "chat")
	}
	w.session = chat.NewSession(ctx, opts.Gateway, chatOpts)
	w.showCurrent()

	if opts.Watch {
		w.startWatch()
	}
	return w
}

// Close stops the store watcher.
func (w *Workspace) Close() error {
	w.mu.Lock()
	watcher := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	if watcher != nil {
		return watcher.Close()
	}
	return nil
}

func (w *Workspace) startWatch() {
	fb, ok := w.store.Backend().(*storage.FileBackend)
	if !ok {
		w.logger.Debug("store watch needs the file backend, skipping")
		return
	}
	watcher, err := fb.Watch(storage.StateKey, storage.DefaultWatchDebounce, w.logger, w.requestReload)
	if err != nil {
		w.logger.Warn("cannot watch conversations", "err", err)
		return
	}
	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()
}

// =============================================================================
// SENDING
// =============================================================================

// PickEntity records an entity chosen from the autocomplete. The caller has
// already inserted its plain name into the input; Send turns that name into
// the entity's token.
func (w *Workspace) PickEntity(e entity.Entity) {
	w.selection.Add(e.Name, e.Type, e.ID)
}

// PendingMentions returns the names picked since the last send.
func (w *Workspace) PendingMentions() map[string]string {
	return w.selection.Mapping()
}

// Send substitutes picked entity names with their tokens and runs one send
// cycle against the current conversation, creating one first if needed.
// Whitespace-only input is ignored. A send while another is pending returns
// chat.ErrSendInFlight.
func (w *Workspace) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !w.busy.TryLock() {
		return chat.ErrSendInFlight
	}
	defer w.release()

	id := w.ensureCurrent()

	text = mention.Substitute(text, w.selection.Mapping())
	w.selection.Reset()

	w.mu.Lock()
	w.target = id
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.target = ""
		w.mu.Unlock()
	}()

	return w.session.SendMessage(ctx, text)
}

// ensureCurrent returns the current conversation ID, creating a
// conversation when none is selected. Callers hold busy.
func (w *Workspace) ensureCurrent() string {
	if id := w.store.CurrentConversationID(); id != "" {
		return id
	}
	id, err := w.store.CreateConversation()
	if err != nil {
		// The conversation exists in memory; the next write persists it.
		w.logger.Warn("new conversation not persisted yet", "id", id, "err", err)
	}
	w.session.SetKnowledgeBase(false)
	w.changed()
	return id
}

// persist stores each message of a send cycle in the conversation the send
// started from.
func (w *Workspace) persist(msg model.Message) {
	w.mu.Lock()
	id := w.target
	w.mu.Unlock()

	if id == "" {
		id = w.store.CurrentConversationID()
	}
	if id == "" {
		w.logger.Warn("message not persisted, no current conversation", "message", msg.ID)
		return
	}
	if err := w.store.AddMessage(id, msg); err != nil {
		w.reportError(fmt.Errorf("save message: %w", err))
	}
	w.changed()
}

func (w *Workspace) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

func (w *Workspace) changed() {
	if w.onChange != nil {
		w.onChange()
	}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// NewConversation creates an empty conversation, selects it and resets the
// session to the welcome message.
func (w *Workspace) NewConversation() (string, error) {
	if !w.busy.TryLock() {
		return "", ErrBusy
	}
	defer w.release()

	id, err := w.store.CreateConversation()
	w.session.ResetMessages()
	w.session.SetKnowledgeBase(false)
	w.selection.Reset()
	w.changed()
	return id, err
}

// SelectConversation switches to id and loads its messages into the session.
// An empty conversation shows the welcome message.
func (w *Workspace) SelectConversation(id string) error {
	if !w.busy.TryLock() {
		return ErrBusy
	}
	defer w.release()

	if _, ok := w.store.SelectConversation(id); !ok {
		return fmt.Errorf("select %s: %w", id, storage.ErrConversationNotFound)
	}
	w.selection.Reset()
	w.showCurrent()
	w.changed()
	return nil
}

// DeleteConversation removes id. Deleting the current conversation starts a
// fresh one.
func (w *Workspace) DeleteConversation(id string) error {
	if !w.busy.TryLock() {
		return ErrBusy
	}
	defer w.release()

	wasCurrent := w.store.CurrentConversationID() == id
	if err := w.store.DeleteConversation(id); err != nil {
		return err
	}
	if wasCurrent {
		if _, err := w.store.CreateConversation(); err != nil {
			w.logger.Warn("replacement conversation not persisted yet", "err", err)
		}
		w.session.ResetMessages()
		w.session.SetKnowledgeBase(false)
	}
	w.changed()
	return nil
}

// RenameConversation sets an explicit title on id.
func (w *Workspace) RenameConversation(id, title string) error {
	if err := w.store.RenameConversation(id, title); err != nil {
		return err
	}
	w.changed()
	return nil
}

// ToggleKnowledgeBase flips the knowledge-base flag of the current
// conversation, creating one if needed, and returns the new value.
func (w *Workspace) ToggleKnowledgeBase() (bool, error) {
	if !w.busy.TryLock() {
		return false, ErrBusy
	}
	defer w.release()

	id := w.ensureCurrent()
	enabled, err := w.store.ToggleKnowledgeBase(id)
	w.session.SetKnowledgeBase(enabled)
	w.changed()
	return enabled, err
}

// SetFeedback rates a bot message of the current conversation. Choosing the
// rating the message already has clears it. The resulting rating is
// returned.
func (w *Workspace) SetFeedback(messageID string, chosen model.Feedback) (model.Feedback, error) {
	if !w.busy.TryLock() {
		return model.FeedbackNone, ErrBusy
	}
	defer w.release()

	return w.setFeedback(messageID, chosen)
}

// RateReply rates the nth latest stored bot reply of the current
// conversation; 1 is the latest.
func (w *Workspace) RateReply(n int, chosen model.Feedback) (model.Message, error) {
	if !w.busy.TryLock() {
		return model.Message{}, ErrBusy
	}
	defer w.release()

	msg, ok := w.reply(n)
	if !ok {
		return model.Message{}, ErrNoReply
	}
	fb, err := w.setFeedback(msg.ID, chosen)
	msg.Feedback = fb
	return msg, err
}

// reply finds the nth latest bot message stored in the current conversation.
func (w *Workspace) reply(n int) (model.Message, bool) {
	if n < 1 {
		return model.Message{}, false
	}
	conv, ok := w.store.Current()
	if !ok {
		return model.Message{}, false
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if !conv.Messages[i].IsBot() {
			continue
		}
		if n--; n == 0 {
			return conv.Messages[i], true
		}
	}
	return model.Message{}, false
}

func (w *Workspace) setFeedback(messageID string, chosen model.Feedback) (model.Feedback, error) {
	id := w.store.CurrentConversationID()
	fb, err := w.store.SetFeedback(id, messageID, chosen)
	if err != nil {
		var convErr *storage.ConversationError
		if errors.As(err, &convErr) {
			return model.FeedbackNone, err
		}
		// The rating is applied in memory; the next write persists it.
		w.logger.Warn("feedback not persisted", "id", id, "err", err)
	}
	w.session.SetFeedback(messageID, fb)
	w.changed()
	w.logger.Info("feedback recorded", "id", id, "message", messageID, "feedback", string(fb))
	return fb, err
}

// Reload re-reads the store and shows the current conversation again. It
// returns ErrBusy while a send is pending.
func (w *Workspace) Reload() error {
	if !w.busy.TryLock() {
		return ErrBusy
	}
	defer w.release()

	w.reload()
	return nil
}

// reload runs with busy held.
func (w *Workspace) reload() {
	w.store.Reload()
	w.showCurrent()
	w.changed()
}

// requestReload reloads now, or as soon as the pending send or conversation
// change releases busy.
func (w *Workspace) requestReload() {
	w.reloadPending.Store(true)
	w.flushReload()
}

// flushReload runs a requested reload if busy is free. Whoever holds busy
// runs it on release.
func (w *Workspace) flushReload() {
	for w.reloadPending.Load() {
		if !w.busy.TryLock() {
			w.logger.Debug("reload deferred until the pending reply finishes")
			return
		}
		if w.reloadPending.CompareAndSwap(true, false) {
			w.reload()
		}
		w.busy.Unlock()
	}
}

// release unlocks busy and runs a reload requested meanwhile.
func (w *Workspace) release() {
	w.busy.Unlock()
	w.flushReload()
}

// showCurrent loads the current conversation into the session. Callers hold
// busy, or run before the workspace is shared.
func (w *Workspace) showCurrent() {
	conv, ok := w.store.Current()
	if !ok || conv.IsEmpty() {
		w.session.ResetMessages()
		w.session.SetKnowledgeBase(ok && conv.KnowledgeBaseEnabled)
		return
	}
	w.session.LoadMessages(conv.Messages)
	w.session.SetKnowledgeBase(conv.KnowledgeBaseEnabled)
}

// =============================================================================
// INGESTION
// =============================================================================

// Ingest uploads a stored conversation to the knowledge base.
func (w *Workspace) Ingest(ctx context.Context, id string) (gateway.IngestResult, error) {
	if w.ingester == nil {
		return nil, ErrNoIngester
	}
	conv, ok := w.store.Conversation(id)
	if !ok {
		return nil, fmt.Errorf("ingest %s: %w", id, storage.ErrConversationNotFound)
	}

	start := time.Now()
	result, err := w.ingester.IngestConversation(ctx, gateway.IngestConversationRequest{
		ConversationID: conv.ID,
		Messages:       gateway.NewIngestMessages(conv.Messages),
		Metadata: map[string]interface{}{
			"title":                  conv.GetTitle(),
			"created_at":             conv.CreatedAt.Format(time.RFC3339),
			"knowledge_base_enabled": conv.KnowledgeBaseEnabled,
			"session_id":             w.session.SessionID(),
		},
	})
	if err != nil {
		w.logger.Error("ingestion failed", "conversation", conv.ID, "err", err)
		return nil, err
	}
	w.logger.Info("conversation ingested", "conversation", conv.ID, "messages", len(conv.Messages), "duration", time.Since(start))
	return result, nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Session returns the live chat session.
func (w *Workspace) Session() *chat.Session {
	return w.session
}

// Store returns the conversation store.
func (w *Workspace) Store() *storage.Store {
	return w.store
}

// Catalog returns the entity catalog.
func (w *Workspace) Catalog() *entity.Catalog {
	return w.catalog
}

// Conversations lists conversations, most recently updated first.
func (w *Workspace) Conversations() []*model.Conversation {
	return w.store.List()
}

// CurrentConversationID returns the selected conversation, or "".
func (w *Workspace) CurrentConversationID() string {
	return w.store.CurrentConversationID()
}

// Busy reports whether a send is pending.
func (w *Workspace) Busy() bool {
	return w.session.IsLoading()
}
