// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the cocreate TUI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

// Theme names accepted by NewTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	Name         string
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderTitle lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionID           lipgloss.Style
	SessionMeta         lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	MessageRole     lipgloss.Style
	MessageTime     lipgloss.Style
	Sources         lipgloss.Style
	MentionText     lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// COMPLETION POPUP STYLES
	// ==========================================================================

	CompletionPopup    lipgloss.Style
	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
	CompletionMatch    lipgloss.Style
	CompletionMeta     lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	OnlineBadge   lipgloss.Style
	OfflineBadge  lipgloss.Style
	KnowledgeOn   lipgloss.Style
	KnowledgeOff  lipgloss.Style
	Spinner       lipgloss.Style
	ThinkingText  lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style
	ErrorMessage  lipgloss.Style
	NoticeMessage lipgloss.Style
}

// NewTheme creates a theme. name is "dark", "light" or "auto"; anything else
// is treated as "auto", which follows the terminal background.
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	name = strings.ToLower(strings.TrimSpace(name))
	var isDark bool
	switch name {
	case ThemeDark:
		isDark = true
	case ThemeLight:
		isDark = false
	default:
		name = ThemeAuto
		isDark = termenv.HasDarkBackground()
	}
	// AdaptiveColor resolves against the default renderer.
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Name:         name,
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginBottom(1)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SessionItemSelected = lipgloss.NewStyle().
		Foreground(Indigo).
		Background(SurfaceBright).
		Bold(true)

	t.SessionID = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SessionMeta = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.MessageRole = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.MessageTime = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Sources = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.MentionText = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Completion popup
	t.CompletionPopup = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(0, 1)

	t.CompletionItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.CompletionSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.CompletionMatch = lipgloss.NewStyle().
		Foreground(Teal).
		Underline(true)

	t.CompletionMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.OnlineBadge = lipgloss.NewStyle().
		Foreground(SuccessHighContrast).
		Bold(true)

	t.OfflineBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Bold(true).
		Padding(0, 1)

	t.KnowledgeOn = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.KnowledgeOff = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Amber)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		Bold(true)

	t.NoticeMessage = lipgloss.NewStyle().
		Foreground(InfoHighContrast)
}

// MentionChip returns the style of an inline mention of the given type.
func (t *Theme) MentionChip(typ model.EntityType) lipgloss.Style {
	return t.MentionText.Foreground(EntityColor(typ))
}

// GlamourStyle returns the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, sidebar hidden
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
