// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the cocreate TUI.
// All colors use Lip Gloss AdaptiveColor so one palette serves light and
// dark terminals.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

// =============================================================================
// BRAND COLORS
// =============================================================================

// Indigo - Primary accent, assistant messages, selections
var Indigo = lipgloss.AdaptiveColor{Light: "#4F46E5", Dark: "#A5B4FC"}

// IndigoDeep - Darker indigo for backgrounds
var IndigoDeep = lipgloss.AdaptiveColor{Light: "#3730A3", Dark: "#312E81"}

// Teal - Brand color, user highlights, focus
var Teal = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#5EEAD4"}

// TealDeep - Darker teal for backgrounds
var TealDeep = lipgloss.AdaptiveColor{Light: "#115E59", Dark: "#134E4A"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Emerald - Online backend, knowledge base enabled
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors and the offline badge
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings and the pending reply indicator
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Header, status bar and sidebar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// SurfaceBright - Highlighted rows
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#EEF2FF", Dark: "#313244"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#45475A"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, sources
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MESSAGE COLORS
// =============================================================================

// User messages - teal tones
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#134E4A", Dark: "#CCFBF1"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#14B8A6", Dark: "#2DD4BF"}

// Assistant messages - soft indigo tones
var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#312E81", Dark: "#E0E7FF"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#A5B4FC", Dark: "#818CF8"}

// =============================================================================
// ENTITY COLORS
// =============================================================================

// Mention chip colors, one per entity type.
var (
	ProjectColor = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	ProcessColor = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#C4B5FD"}
	PersonColor  = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#6EE7B7"}
	AgentColor   = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FCD34D"}
)

// EntityColor returns the chip color for an entity type.
func EntityColor(t model.EntityType) lipgloss.AdaptiveColor {
	switch t {
	case model.EntityProject:
		return ProjectColor
	case model.EntityProcess:
		return ProcessColor
	case model.EntityPerson:
		return PersonColor
	case model.EntityAgent:
		return AgentColor
	default:
		return TextSecondary
	}
}

// SelectionBg - Highlighted completion row
var SelectionBg = lipgloss.AdaptiveColor{Light: "#C7D2FE", Dark: "#3730A3"}

// =============================================================================
// ACCESSIBILITY: Shapes alongside colors
// =============================================================================

// StatusIndicatorSet contains text indicators for status states so state is
// never conveyed by color alone.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
	Active  string
}

// StatusIndicators are ASCII-only for maximum terminal compatibility.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
	Active:  "[*]",
}

// High contrast status colors.
var (
	SuccessHighContrast = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
	ErrorHighContrast   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	WarningHighContrast = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	InfoHighContrast    = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}
)

// =============================================================================
// STATUS RENDERING
// =============================================================================

// RenderSuccess renders a success message with the [OK] indicator.
func RenderSuccess(message string) string {
	return renderIndicated(SuccessHighContrast, StatusIndicators.Success, message)
}

// RenderError renders an error message with the [X] indicator.
func RenderError(message string) string {
	return renderIndicated(ErrorHighContrast, StatusIndicators.Error, message)
}

// RenderWarning renders a warning message with the [!] indicator.
func RenderWarning(message string) string {
	return renderIndicated(WarningHighContrast, StatusIndicators.Warning, message)
}

// RenderInfo renders an info message with the [i] indicator.
func RenderInfo(message string) string {
	return renderIndicated(InfoHighContrast, StatusIndicators.Info, message)
}

// RenderStatus renders a success or error message.
func RenderStatus(success bool, message string) string {
	if success {
		return RenderSuccess(message)
	}
	return RenderError(message)
}

func renderIndicated(color lipgloss.AdaptiveColor, indicator, message string) string {
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(indicator + " " + message)
}
