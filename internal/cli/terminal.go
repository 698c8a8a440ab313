// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the line-oriented commands.
//
// Interactive terminals get colors and prompts; piped output and NO_COLOR
// get plain text.
package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL SIZE
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width used for wrapping
	MinTerminalWidth = 40
)

// TerminalWidth returns the width of stdout, or DefaultTerminalWidth when it
// is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR CONTROL
// =============================================================================

// ColorsEnabled reports whether colored output should be used: stdout is a
// terminal and NO_COLOR is unset.
func ColorsEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return IsStdoutTTY()
}

// SetupColors applies the color decision to the color libraries. noColor
// forces plain output.
func SetupColors(noColor bool) {
	enabled := ColorsEnabled() && !noColor
	color.NoColor = !enabled
	if !enabled {
		termenv.SetDefaultOutput(termenv.NewOutput(os.Stdout, termenv.WithProfile(termenv.Ascii)))
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ColorProfile returns the color profile of stdout.
func ColorProfile() termenv.Profile {
	if color.NoColor {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
