// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page with
// embedded CSS. Message bodies are rendered from Markdown; raw HTML in
// messages is dropped and dangerous link targets are neutralized.
type HTMLExporter struct {
	options  *Options
	markdown goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options: opts,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}
	title := html.EscapeString(mention.Humanize(conv.GetTitle()))

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", title))
	sb.WriteString("    <meta name=\"generator\" content=\"cocreate\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(conv))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range conv.Messages {
		body, err := e.renderMessage(msg)
		if err != nil {
			return nil, err
		}
		sb.WriteString(body)
	}
	sb.WriteString("        </main>\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <footer class=\"footer\">\n")
		sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>cocreate</strong> on %s</p>\n",
			time.Now().Format("January 2, 2006 at 3:04 PM")))
		sb.WriteString("        </footer>\n")
	}

	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(conv *model.Conversation) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(mention.Humanize(conv.GetTitle()))))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(conv.Messages)))
	if conv.KnowledgeBaseEnabled {
		sb.WriteString("                <span class=\"meta-item\"><strong>Knowledge base:</strong> on</span>\n")
	}
	sb.WriteString("            </div>\n")

	if entities := mentionedEntities(conv); len(entities) > 0 {
		sb.WriteString("            <div class=\"mentions\">\n")
		for _, m := range entities {
			sb.WriteString(fmt.Sprintf("                <span class=\"chip chip-%s\">@%s</span>\n",
				html.EscapeString(string(m.Type)), html.EscapeString(m.Name)))
		}
		sb.WriteString("            </div>\n")
	}

	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg model.Message) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", html.EscapeString(string(msg.Type))))

	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n", html.EscapeString(msg.Type.DisplayName())))
	if e.options.IncludeTimestamps {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("                </div>\n")

	var body bytes.Buffer
	if err := e.markdown.Convert([]byte(mention.Humanize(msg.Content)), &body); err != nil {
		return "", fmt.Errorf("render message %s: %w", msg.ID, err)
	}
	sb.WriteString("                <div class=\"message-content\">\n")
	sb.Write(body.Bytes())
	sb.WriteString("                </div>\n")

	if len(msg.Sources) > 0 {
		sb.WriteString(fmt.Sprintf("                <div class=\"sources\">Sources: %s</div>\n",
			html.EscapeString(strings.Join(msg.Sources, ", "))))
	}

	sb.WriteString("            </div>\n")
	return sb.String(), nil
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --user-bg: #1f2335;
            --bot-bg: #24283b;
            --code-bg: #1a1b26;
            --accent-blue: #7aa2f7;
            --accent-green: #9ece6a;
            --accent-purple: #bb9af7;
            --accent-orange: #ff9e64;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --user-bg: #f6f8fa;
            --bot-bg: #ffffff;
            --code-bg: #f6f8fa;
            --accent-blue: #0366d6;
            --accent-green: #22863a;
            --accent-purple: #6f42c1;
            --accent-orange: #d15704;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; }
        .mentions { margin-top: 12px; display: flex; flex-wrap: wrap; gap: 8px; }
        .chip { font-size: 13px; padding: 2px 10px; border-radius: 999px; border: 1px solid currentColor; }
        .chip-project { color: var(--accent-blue); }
        .chip-process { color: var(--accent-purple); }
        .chip-person { color: var(--accent-green); }
        .chip-agent { color: var(--accent-orange); }

        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 20px; padding: 18px; border-radius: 8px; border-left: 4px solid transparent; }
        .user-message { background: var(--user-bg); border-left-color: var(--accent-blue); }
        .bot-message { background: var(--bot-bg); border-left-color: var(--accent-green); }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 8px; font-weight: 600; }
        .timestamp, .sources { font-size: 12px; color: var(--text-muted); font-weight: 400; }
        .sources { margin-top: 8px; }
        .message-content p { margin-bottom: 8px; }
        .message-content pre { background: var(--code-bg); padding: 12px; border-radius: 6px; overflow-x: auto; font-family: var(--font-mono); }
        .message-content code { font-family: var(--font-mono); }

        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); text-align: center; }
    </style>
`
