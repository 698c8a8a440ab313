// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the cocreate TUI.
package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// SpinnerConfig holds the configuration for a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// LineSpinner - Simple line rotation
var LineSpinner = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    10,
}

// DotsSpinner - Classic three-dot animation, used while a reply is pending
var DotsSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// Duration returns the duration for each frame.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.FPS)
}

// Bubble converts the configuration into a bubbles spinner.
func (s SpinnerConfig) Bubble() spinner.Spinner {
	return spinner.Spinner{
		Frames: append([]string(nil), s.Frames...),
		FPS:    s.Duration(),
	}
}

// Frame returns the frame shown after elapsed time.
func (s SpinnerConfig) Frame(elapsed time.Duration) string {
	if len(s.Frames) == 0 {
		return ""
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return s.Frames[int(elapsed/s.Duration())%len(s.Frames)]
}
