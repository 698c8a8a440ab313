// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides conversation export functionality for cocreate.
package export

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/util"
)

// ErrEmptyConversation is returned for conversations without messages.
var ErrEmptyConversation = errors.New("conversation has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Formats lists the accepted format names.
var Formats = []string{"markdown", "html", "json"}

// ForFormat returns the exporter for a format name ("markdown"/"md",
// "html"/"htm", "json").
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes a metadata header and footer.
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		OpenAfterExport:   false,
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Write exports conv to w.
func Write(w io.Writer, conv *model.Conversation, exporter Exporter) error {
	content, err := exporter.Export(conv)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	_, err = w.Write(content)
	return err
}

// ExportToFile exports a conversation to a file using the specified exporter.
// Returns the output file path or an error.
func ExportToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(mention.Humanize(conv.GetTitle())),
		timestamp,
		exporter.FileExtension(),
	)

	outputDir := util.ExpandHome(opts.OutputDir)
	if outputDir == "" {
		outputDir = "."
	}
	outputPath := filepath.Join(outputDir, filename)
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// The file was written; opening it is best effort.
			return outputPath, fmt.Errorf("open %s: %w", outputPath, err)
		}
	}

	return outputPath, nil
}

// validate rejects conversations that cannot be exported.
func validate(conv *model.Conversation) error {
	if conv == nil {
		return errors.New("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return ErrEmptyConversation
	}
	if conv.CreatedAt.IsZero() {
		return errors.New("conversation has invalid creation timestamp")
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(s, 50)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		'@':  '-',
		'[':  '-',
		']':  '-',
		'(':  '-',
		')':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// mentionedEntities lists the distinct entities mentioned in the
// conversation, in order of first appearance.
func mentionedEntities(conv *model.Conversation) []model.EntityMention {
	seen := make(map[model.EntityMention]bool)
	var out []model.EntityMention
	for _, msg := range conv.Messages {
		for _, m := range msg.Mentions {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}
