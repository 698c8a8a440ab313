// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"unicode"

	"github.com/cocreateai/cocreate-chat/internal/entity"
)

// maxMentionQuery bounds how far back from the cursor an "@" is looked for.
const maxMentionQuery = 40

// =============================================================================
// COMPLETION STATE
// =============================================================================

// completionState is the "@" autocomplete popup.
type completionState struct {
	visible  bool
	start    int // rune offset of the "@" in the input
	query    string
	matches  []entity.Match
	selected int

	// dismissed is the "@" offset closed with Esc; it stays closed until
	// the user types a new "@"
	dismissed int
}

func newCompletionState() completionState {
	return completionState{dismissed: -1}
}

// Next moves the selection down, wrapping around.
func (c *completionState) Next() {
	if len(c.matches) == 0 {
		return
	}
	c.selected = (c.selected + 1) % len(c.matches)
}

// Prev moves the selection up, wrapping around.
func (c *completionState) Prev() {
	if len(c.matches) == 0 {
		return
	}
	c.selected = (c.selected - 1 + len(c.matches)) % len(c.matches)
}

// Selected returns the highlighted match.
func (c *completionState) Selected() (entity.Match, bool) {
	if !c.visible || c.selected < 0 || c.selected >= len(c.matches) {
		return entity.Match{}, false
	}
	return c.matches[c.selected], true
}

// Hide closes the popup and keeps it closed for the current "@".
func (c *completionState) Hide() {
	if c.visible {
		c.dismissed = c.start
	}
	c.visible = false
	c.matches = nil
	c.selected = 0
}

// =============================================================================
// MENTION DETECTION
// =============================================================================

// mentionQuery finds the "@query" that ends at the cursor. The "@" must start
// the input or follow whitespace or an opening bracket, and the query may
// contain spaces so multi-word names can be typed.
func mentionQuery(value []rune, cursor int) (start int, query string, ok bool) {
	if cursor > len(value) {
		cursor = len(value)
	}
	limit := cursor - maxMentionQuery - 1
	if limit < 0 {
		limit = 0
	}
	for i := cursor - 1; i >= limit; i-- {
		r := value[i]
		switch {
		case r == '@':
			if i > 0 && !unicode.IsSpace(value[i-1]) && !strings.ContainsRune("([{\"'", value[i-1]) {
				return 0, "", false
			}
			query = string(value[i+1 : cursor])
			if strings.HasPrefix(query, " ") {
				return 0, "", false
			}
			return i, query, true
		case r == '\n':
			return 0, "", false
		}
	}
	return 0, "", false
}

// =============================================================================
// COMPLETION HANDLERS
// =============================================================================

// updateCompletion recomputes the popup after the input changed.
func (m *Model) updateCompletion() {
	value := []rune(m.input.Value())
	start, query, ok := mentionQuery(value, m.input.Position())
	if !ok {
		m.completion.visible = false
		m.completion.matches = nil
		m.completion.dismissed = -1
		return
	}
	if start == m.completion.dismissed {
		return
	}

	matches := m.ws.Catalog().Search(query, entity.DefaultSearchLimit)
	if len(matches) == 0 {
		m.completion.visible = false
		m.completion.matches = nil
		return
	}

	if !m.completion.visible || m.completion.start != start || m.completion.query != query {
		m.completion.selected = 0
	}
	m.completion.visible = true
	m.completion.start = start
	m.completion.query = query
	m.completion.matches = matches
	m.completion.dismissed = -1
}

// acceptCompletion replaces "@query" with the picked entity's name and
// records the entity so the name becomes a mention token on send.
func (m *Model) acceptCompletion() bool {
	match, ok := m.completion.Selected()
	if !ok {
		return false
	}
	e := match.Entity

	value := []rune(m.input.Value())
	cursor := m.input.Position()
	if cursor > len(value) {
		cursor = len(value)
	}
	start := m.completion.start
	if start < 0 || start > cursor {
		m.completion.Hide()
		return false
	}

	inserted := []rune(e.Name + " ")
	next := make([]rune, 0, len(value)-(cursor-start)+len(inserted))
	next = append(next, value[:start]...)
	next = append(next, inserted...)
	next = append(next, value[cursor:]...)

	m.input.SetValue(string(next))
	m.input.SetCursor(start + len(inserted))
	m.ws.PickEntity(e)

	m.completion.visible = false
	m.completion.matches = nil
	m.completion.selected = 0
	m.completion.dismissed = -1
	return true
}
