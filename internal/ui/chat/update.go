// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cocreateai/cocreate-chat/internal/app"
	chatsession "github.com/cocreateai/cocreate-chat/internal/chat"
	"github.com/cocreateai/cocreate-chat/internal/model"
)

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	// The popup owns navigation keys while it is open.
	if m.completion.visible {
		switch {
		case key.Matches(msg, m.keyMap.CompletionNext):
			m.completion.Next()
			return m, nil
		case key.Matches(msg, m.keyMap.CompletionPrev):
			m.completion.Prev()
			return m, nil
		case key.Matches(msg, m.keyMap.CompletionAccept):
			m.acceptCompletion()
			m.layout()
			return m, nil
		case key.Matches(msg, m.keyMap.CompletionClose):
			m.completion.Hide()
			m.layout()
			return m, nil
		}
	}

	if !key.Matches(msg, m.keyMap.DeleteConversation) {
		m.confirmDelete = false
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollUp):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keyMap.ScrollDown):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.NewConversation):
		return m.newConversation()
	case key.Matches(msg, m.keyMap.DeleteConversation):
		return m.deleteConversation()
	case key.Matches(msg, m.keyMap.NextConversation):
		return m.cycleConversation(1)
	case key.Matches(msg, m.keyMap.PrevConversation):
		return m.cycleConversation(-1)
	case key.Matches(msg, m.keyMap.ToggleKnowledge):
		return m.toggleKnowledgeBase()
	case key.Matches(msg, m.keyMap.Reload):
		return m.reload()
	case key.Matches(msg, m.keyMap.LikeReply):
		return m.rateReply(1, model.FeedbackPositive)
	case key.Matches(msg, m.keyMap.DislikeReply):
		return m.rateReply(1, model.FeedbackNegative)

	case key.Matches(msg, m.keyMap.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		m.layout()
		return m, nil
	case key.Matches(msg, m.keyMap.WidenPanel):
		m.resizePanel(PanelStep)
		return m, nil
	case key.Matches(msg, m.keyMap.NarrowPanel):
		m.resizePanel(-PanelStep)
		return m, nil
	}

	// Everything else edits the input.
	before := m.completion.visible
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.updateCompletion()
	if before != m.completion.visible || m.completion.visible {
		m.layout()
	}
	return m, cmd
}

// =============================================================================
// SENDING
// =============================================================================

// submit sends the input, or runs it as a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	text := strings.TrimSpace(value)
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.handleCommand(text)
	}
	if m.loading() {
		m.setError("Wait for the reply before sending another message")
		return m, nil
	}

	m.input.Reset()
	m.completion = newCompletionState()
	m.sending = true
	m.clearNotice()
	m.layout()
	return m, tea.Batch(m.sendCmd(value), m.spinner.Tick)
}

func (m Model) handleSendComplete(msg SendCompleteMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	switch {
	case msg.Err == nil:
	case errors.Is(msg.Err, chatsession.ErrSendInFlight):
		m.setError("Wait for the reply before sending another message")
	default:
		m.logger.Warn("send failed", "err", msg.Err)
		m.setError(msg.Err.Error())
	}
	m.refreshMessages()
	return m, nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func (m Model) newConversation() (tea.Model, tea.Cmd) {
	if _, err := m.ws.NewConversation(); err != nil {
		m.reportActionError(err)
	} else {
		m.setNotice("Started a new conversation")
	}
	m.refreshMessages()
	return m, nil
}

// deleteConversation deletes the current conversation on the second press.
func (m Model) deleteConversation() (tea.Model, tea.Cmd) {
	id := m.ws.CurrentConversationID()
	if id == "" {
		m.setNotice("No conversation to delete")
		return m, nil
	}
	if !m.confirmDelete {
		m.confirmDelete = true
		m.setNotice("Press " + m.keyMap.DeleteConversation.Help().Key + " again to delete this conversation")
		return m, nil
	}
	m.confirmDelete = false
	if err := m.ws.DeleteConversation(id); err != nil {
		m.reportActionError(err)
	} else {
		m.setNotice("Conversation deleted")
	}
	m.refreshMessages()
	return m, nil
}

// cycleConversation selects the neighbour of the current conversation in
// sidebar order.
func (m Model) cycleConversation(step int) (tea.Model, tea.Cmd) {
	convs := m.ws.Conversations()
	if len(convs) == 0 {
		return m, nil
	}
	current := m.ws.CurrentConversationID()
	idx := -1
	for i, c := range convs {
		if c.ID == current {
			idx = i
			break
		}
	}
	next := 0
	if idx >= 0 {
		next = (idx + step + len(convs)) % len(convs)
	}
	if convs[next].ID == current {
		return m, nil
	}
	if err := m.ws.SelectConversation(convs[next].ID); err != nil {
		m.reportActionError(err)
	} else {
		m.clearNotice()
	}
	m.refreshMessages()
	return m, nil
}

func (m Model) toggleKnowledgeBase() (tea.Model, tea.Cmd) {
	enabled, err := m.ws.ToggleKnowledgeBase()
	switch {
	case err != nil:
		m.reportActionError(err)
	case enabled:
		m.setNotice("Knowledge base enabled for this conversation")
	default:
		m.setNotice("Knowledge base disabled for this conversation")
	}
	m.refreshMessages()
	return m, nil
}

// rateReply rates the nth latest reply; the same rating again clears it.
func (m Model) rateReply(n int, fb model.Feedback) (tea.Model, tea.Cmd) {
	msg, err := m.ws.RateReply(n, fb)
	switch {
	case errors.Is(err, app.ErrNoReply):
		m.setError("No reply to rate yet")
	case err != nil:
		m.reportActionError(err)
	case msg.Feedback == model.FeedbackNone:
		m.setNotice("Rating cleared")
	case msg.Feedback == model.FeedbackPositive:
		m.setNotice("Marked as helpful")
	default:
		m.setNotice("Marked as unhelpful")
	}
	m.refreshMessages()
	return m, nil
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	if err := m.ws.Reload(); err != nil {
		m.reportActionError(err)
	} else {
		m.setNotice("Conversations reloaded")
	}
	m.refreshMessages()
	return m, nil
}

func (m *Model) reportActionError(err error) {
	if errors.Is(err, app.ErrBusy) {
		m.setError("Wait for the pending reply to finish")
		return
	}
	m.logger.Warn("action failed", "err", err)
	m.setError(err.Error())
}
