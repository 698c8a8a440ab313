// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the cocreate packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, PadRight, StringWidth: terminal-column aware helpers (go-runewidth)
//   - SingleLine: collapse whitespace for one-line previews
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - ExpandHome: "~" expansion for configured paths
//
// # Usage
//
//	label := util.PadRight(conv.GetTitle(), 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
