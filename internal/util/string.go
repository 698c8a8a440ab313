// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the cocreate packages.
package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateRunes truncates a string to maxRunes characters, appending "..."
// when something was cut. Safe for multi-byte UTF-8.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates a string to maxWidth terminal columns.
// Wide characters (CJK, emoji) count as two columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces up to width columns. Longer strings are truncated.
func PadRight(s string, width int) string {
	s = TruncateWidth(s, width)
	return runewidth.FillRight(s, width)
}

// StringWidth returns the display width of a string in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// SingleLine collapses all whitespace runs, including newlines, into single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RuneLen returns the number of runes in a string.
func RuneLen(s string) int {
	return len([]rune(s))
}
