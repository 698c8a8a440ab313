// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides conversation export functionality for cocreate.
//
// Conversations can be written as Markdown, as a standalone HTML page, or as
// JSON. Mention tokens are shown as "@name" in the human-readable formats and
// kept verbatim in JSON.
//
// # Key Types
//
//   - Exporter: Common interface of the three formats
//   - Options: Export configuration options
//
// # Supported Formats
//
//   - JSON: The stored conversation, tokens included
//   - Markdown: Human-readable transcript
//   - HTML: Styled page; message bodies are rendered as Markdown
//
// # Usage
//
// Export to a file:
//
//	exporter, err := export.ForFormat("html", opts)
//	path, err := export.ExportToFile(conv, exporter, opts)
//
// Export to any writer:
//
//	err := export.Write(os.Stdout, conv, export.NewMarkdownExporter(nil))
package export
