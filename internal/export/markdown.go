// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	var sb strings.Builder
	title := mention.Humanize(conv.GetTitle())

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(title)))
		sb.WriteString(fmt.Sprintf("id: %s\n", conv.ID))
		sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("updated: %s\n", conv.UpdatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(conv.Messages)))
		sb.WriteString(fmt.Sprintf("knowledge_base: %t\n", conv.KnowledgeBaseEnabled))
		sb.WriteString("generator: cocreate\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(util.SingleLine(title))))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(conv.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatTimestamp(conv.UpdatedAt)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(conv.Messages)))
		if entities := mentionedEntities(conv); len(entities) > 0 {
			names := make([]string, len(entities))
			for i, m := range entities {
				names[i] = fmt.Sprintf("%s (%s)", m.Name, m.Type.Label())
			}
			sb.WriteString(fmt.Sprintf("- **Mentions**: %s\n", strings.Join(names, ", ")))
		}
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")

	for i, msg := range conv.Messages {
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				msg.Type.DisplayName(),
				formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", msg.Type.DisplayName()))
		}

		sb.WriteString(strings.TrimSpace(mention.Humanize(msg.Content)))
		sb.WriteString("\n\n")

		if len(msg.Sources) > 0 {
			sb.WriteString(fmt.Sprintf("<sub>Sources: %s</sub>\n\n", strings.Join(msg.Sources, ", ")))
		}

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	if e.options.IncludeMetadata {
		sb.WriteString("\n---\n\n")
		sb.WriteString(fmt.Sprintf("*Exported from cocreate on %s*\n",
			time.Now().Format("January 2, 2006 at 3:04 PM")))
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only characters that would break formatting in headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
