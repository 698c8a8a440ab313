// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/cocreateai/cocreate-chat/internal/entity"
	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/storage"
	"github.com/cocreateai/cocreate-chat/internal/ui/styles"
	"github.com/cocreateai/cocreate-chat/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat renders the complete chat interface.
func (m Model) renderChat() string {
	header := m.renderHeader()

	chatColumn := []string{m.viewport.View()}
	if popup := m.renderCompletionPopup(); popup != "" {
		chatColumn = append(chatColumn, popup)
	}
	chatColumn = append(chatColumn, m.renderInput())
	body := lipgloss.JoinVertical(lipgloss.Left, chatColumn...)

	if m.sidebarVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(lipgloss.Height(body)), body)
	}

	parts := []string{header, body}
	if m.showHelp {
		parts = append(parts, m.help.FullHelpView(m.keyMap.FullHelp()))
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// totalWidth is the width of the header and status bar.
func (m Model) totalWidth() int {
	if m.width > 0 {
		return m.width
	}
	w := m.chatWidth()
	if m.sidebarVisible() {
		w += SidebarWidth
	}
	return w
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	width := m.totalWidth()

	title := model.DefaultTitle
	kb := false
	if conv, ok := m.ws.Store().Current(); ok {
		title = conv.GetTitle()
		kb = conv.KnowledgeBaseEnabled
	}
	title = util.SingleLine(mention.Humanize(title))

	brand := m.theme.HeaderBrand.Render("CoCreateAI")
	var kbBadge string
	if kb {
		kbBadge = m.theme.KnowledgeOn.Render("KB on")
	} else {
		kbBadge = m.theme.KnowledgeOff.Render("KB off")
	}

	// brand + separators + badge take the rest of the line
	room := width - lipgloss.Width(brand) - lipgloss.Width(kbBadge) - 8
	line := brand + "  " + m.theme.HeaderTitle.Render(util.TruncateWidth(title, room)) + "  " + kbBadge
	return m.theme.Header.Width(width).MaxHeight(headerHeight).Render(line)
}

// =============================================================================
// SIDEBAR
// =============================================================================

// renderSidebar lists conversations, newest first, two lines each. The list
// scrolls to keep the current conversation visible.
func (m Model) renderSidebar(height int) string {
	inner := SidebarWidth - 3 // right border + horizontal padding
	convs := m.ws.Conversations()
	current := m.ws.CurrentConversationID()

	lines := []string{m.theme.SidebarTitle.Render(fmt.Sprintf("Conversations (%d)", len(convs)))}
	if len(convs) == 0 {
		lines = append(lines, m.theme.SessionMeta.Render("none yet"))
	}

	const titleLines = 2 // title + margin
	visible := (height - titleLines) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	for i, c := range convs {
		if c.ID == current && i >= visible {
			start = i - visible + 1
		}
	}

	for i := start; i < len(convs) && i < start+visible; i++ {
		lines = append(lines, m.renderSidebarItem(convs[i], convs[i].ID == current, inner)...)
	}

	return m.theme.Sidebar.
		Width(SidebarWidth - 1).
		Height(height).
		MaxHeight(height).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderSidebarItem(conv *model.Conversation, selected bool, width int) []string {
	marker := "  "
	style := m.theme.SessionItem
	if selected {
		marker = "> "
		style = m.theme.SessionItemSelected
	}
	title := util.SingleLine(mention.Humanize(conv.GetTitle()))
	titleLine := style.Render(util.PadRight(marker+title, width))

	meta := fmt.Sprintf("  %s  %d msg", storage.ShortID(conv.ID), conv.MessageCount())
	if conv.KnowledgeBaseEnabled {
		meta += "  KB"
	}
	return []string{titleLine, m.theme.SessionMeta.Render(util.TruncateWidth(meta, width))}
}

// =============================================================================
// MESSAGES
// =============================================================================

// refreshMessages re-renders the message list into the viewport and scrolls
// to the newest message.
func (m *Model) refreshMessages() {
	width := m.viewport.Width
	if width < 10 {
		width = 10
	}

	msgs := m.ws.Session().Messages()
	blocks := make([]string, 0, len(msgs)+1)
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if m.loading() {
		blocks = append(blocks, m.spinner.View()+" "+m.theme.ThinkingText.Render("Thinking"))
	}

	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.viewport.GotoBottom()
}

// renderMessage renders one message as a role line and a bordered bubble.
func (m *Model) renderMessage(msg model.Message, width int) string {
	role := m.theme.MessageRole.Render(msg.Type.DisplayName())
	if !msg.Timestamp.IsZero() {
		role += " " + m.theme.MessageTime.Render(msg.Timestamp.Local().Format("15:04"))
	}

	bubble := m.theme.AssistantBubble
	if msg.IsUser() {
		bubble = m.theme.UserBubble
	}
	// The bubble border takes two columns and the padding two more.
	textWidth := width - 4
	if textWidth < 4 {
		textWidth = 4
	}

	var body string
	if msg.IsBot() && m.renderMarkdown {
		body = m.markdown(mention.Humanize(msg.Content), textWidth)
	} else {
		body = m.highlightMentions(msg.Content)
	}

	parts := []string{role, bubble.Width(width - 2).Render(body)}
	if len(msg.Sources) > 0 {
		parts = append(parts, m.theme.Sources.Render("Sources: "+strings.Join(msg.Sources, ", ")))
	}
	switch msg.Feedback {
	case model.FeedbackPositive:
		parts = append(parts, m.theme.Sources.Render("Rated helpful"))
	case model.FeedbackNegative:
		parts = append(parts, m.theme.Sources.Render("Rated unhelpful"))
	}
	return strings.Join(parts, "\n")
}

// highlightMentions shows each mention token as a colored "@name".
func (m *Model) highlightMentions(text string) string {
	seen := make(map[string]bool)
	for _, men := range mention.ExtractMentions(text) {
		token := mention.Encode(men.Name, men.Type, men.ID)
		if seen[token] {
			continue
		}
		seen[token] = true
		text = strings.ReplaceAll(text, token, m.theme.MentionChip(men.Type).Render("@"+men.Name))
	}
	return text
}

// markdown renders bot Markdown with glamour, falling back to the raw text.
func (m *Model) markdown(content string, width int) string {
	if m.renderer == nil || m.rendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.GlamourStyle()),
			glamour.WithColorProfile(m.theme.ColorProfile),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.logger.Debug("markdown renderer unavailable", "err", err)
			return content
		}
		m.renderer = r
		m.rendererWidth = width
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// INPUT AND COMPLETION
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.chatWidth()).Render(m.input.View())
}

// completionHeight is the number of lines the popup takes.
func (m Model) completionHeight() int {
	if !m.completion.visible || len(m.completion.matches) == 0 {
		return 0
	}
	return len(m.completion.matches) + 2 // border
}

// renderCompletionPopup renders the entity matches above the input.
func (m Model) renderCompletionPopup() string {
	if !m.completion.visible || len(m.completion.matches) == 0 {
		return ""
	}
	width := m.chatWidth() - 2
	if width > 48 {
		width = 48
	}
	inner := width - 2

	rows := make([]string, 0, len(m.completion.matches))
	for i, match := range m.completion.matches {
		rows = append(rows, m.renderCompletionRow(match, i == m.completion.selected, inner))
	}
	return m.theme.CompletionPopup.Width(width).Render(strings.Join(rows, "\n"))
}

func (m Model) renderCompletionRow(match entity.Match, selected bool, width int) string {
	e := match.Entity
	base := m.theme.CompletionItem
	if selected {
		base = m.theme.CompletionSelected
	}

	label := e.Type.Label()
	nameWidth := width - util.StringWidth(label) - 4
	name := util.TruncateWidth(e.Name, nameWidth)

	icon := lipgloss.NewStyle().Foreground(styles.EntityColor(e.Type)).Render(e.Icon())
	row := icon + " " + highlightName(name, match.Positions, base, m.theme.CompletionMatch.Inherit(base))
	gap := width - lipgloss.Width(row) - util.StringWidth(label)
	if gap < 1 {
		gap = 1
	}
	return row + base.Render(strings.Repeat(" ", gap)) + m.theme.CompletionMeta.Render(label)
}

// highlightName styles the matched rune positions of name.
func highlightName(name string, positions []int, base, match lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(name)
	}
	hit := make(map[int]bool, len(positions))
	for _, p := range positions {
		hit[p] = true
	}
	var sb strings.Builder
	for i, r := range []rune(name) {
		if hit[i] {
			sb.WriteString(match.Render(string(r)))
		} else {
			sb.WriteString(base.Render(string(r)))
		}
	}
	return sb.String()
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	width := m.totalWidth()
	session := m.ws.Session()

	var left []string
	switch {
	case !session.BackendAvailable():
		left = append(left, m.theme.OfflineBadge.Render("OFFLINE"))
	case probed(session.ProbeDone()):
		left = append(left, m.theme.OnlineBadge.Render(styles.StatusIndicators.Active+" online"))
	default:
		left = append(left, m.theme.ShortcutDesc.Render(styles.StatusIndicators.Pending+" connecting"))
	}
	if m.loading() {
		left = append(left, m.spinner.View())
	}
	if n := len(m.ws.PendingMentions()); n > 0 {
		left = append(left, m.theme.MentionText.Render(fmt.Sprintf("@%d", n)))
	}
	if m.notice != "" {
		if m.noticeError {
			left = append(left, m.theme.ErrorMessage.Render(m.notice))
		} else {
			left = append(left, m.theme.NoticeMessage.Render(m.notice))
		}
	}

	line := strings.Join(left, "  ")
	if !m.showHelp {
		helpView := m.help.ShortHelpView(m.keyMap.ShortHelp())
		gap := width - 2 - lipgloss.Width(line) - lipgloss.Width(helpView)
		if gap >= 2 {
			line += strings.Repeat(" ", gap) + helpView
		}
	}
	return m.theme.StatusBar.Width(width).MaxHeight(statusHeight).Render(line)
}

// probed reports whether the backend probe has resolved, without blocking.
func probed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}
