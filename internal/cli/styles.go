// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for the line-oriented commands.
//
// The colors come from the TUI palette so both front ends look alike.
// SetupColors turns them off for piped output and NO_COLOR.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/ui/styles"
)

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Indigo)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(14)

	// ValueStyle is used for regular values
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// SuccessStyle, ErrorStyle and WarningStyle mark statuses
	SuccessStyle = lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(styles.Amber)

	// PromptStyle is the REPL prompt
	PromptStyle = lipgloss.NewStyle().Foreground(styles.Teal).Bold(true)

	// UserRoleStyle and BotRoleStyle label messages in transcripts
	UserRoleStyle = lipgloss.NewStyle().Foreground(styles.UserBubbleBorder).Bold(true)
	BotRoleStyle  = lipgloss.NewStyle().Foreground(styles.AssistantBubbleBorder).Bold(true)
)

// RenderSeparator renders a horizontal rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return DimStyle.Render(strings.Repeat("-", width))
}

// printField writes one "label value" line.
func printField(w io.Writer, label string, value interface{}) {
	fmt.Fprintf(w, "%s %s\n", LabelStyle.Render(label), ValueStyle.Render(fmt.Sprint(value)))
}

// renderMentions shows each mention token as a colored "@name".
func renderMentions(text string) string {
	for _, men := range mention.ExtractMentions(text) {
		token := mention.Encode(men.Name, men.Type, men.ID)
		chip := lipgloss.NewStyle().Foreground(styles.EntityColor(men.Type)).Bold(true).Render("@" + men.Name)
		text = strings.ReplaceAll(text, token, chip)
	}
	return text
}

// printMessage writes one message of a transcript.
func printMessage(w io.Writer, msg model.Message) {
	role := BotRoleStyle.Render(msg.Type.DisplayName())
	if msg.IsUser() {
		role = UserRoleStyle.Render(msg.Type.DisplayName())
	}
	stamp := ""
	if !msg.Timestamp.IsZero() {
		stamp = " " + DimStyle.Render(msg.Timestamp.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "%s%s\n%s\n", role, stamp, renderMentions(msg.Content))
	if len(msg.Sources) > 0 {
		fmt.Fprintln(w, DimStyle.Render("Sources: "+strings.Join(msg.Sources, ", ")))
	}
	if msg.Feedback != model.FeedbackNone {
		fmt.Fprintln(w, DimStyle.Render("Rated: "+string(msg.Feedback)))
	}
}
