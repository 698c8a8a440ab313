// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation("conv_test")
	conv.Append(model.NewUserMessage("How is @[Atlas](project:1) going?",
		[]model.EntityMention{{ID: "1", Type: model.EntityProject, Name: "Atlas"}}))
	conv.Append(model.NewBotMessage("**On track.** Ask @[Ana Souza](person:7) for details.", []string{"Azure OpenAI"}))
	return conv
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	for _, want := range []string{
		"title: \"How is @Atlas going?\"",
		"# How is @Atlas going?",
		"### You",
		"### Assistant",
		"Ask @Ana Souza for details.",
		"<sub>Sources: Azure OpenAI</sub>",
		"- **Mentions**: Atlas (Project)",
		"generator: cocreate",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("markdown missing %q:\n%s", want, result)
		}
	}
	if strings.Contains(result, "@[") {
		t.Error("mention tokens should be humanized")
	}
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := &Options{IncludeMetadata: false, IncludeTimestamps: false}
	out, err := NewMarkdownExporter(opts).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)
	if strings.HasPrefix(result, "---") || strings.Contains(result, "Exported from") {
		t.Errorf("metadata should be omitted:\n%s", result)
	}
	if strings.Contains(result, "### You <sub>") {
		t.Error("timestamps should be omitted")
	}
}

// TestYAMLNewlineInjection tests that newlines are escaped in the frontmatter.
func TestYAMLNewlineInjection(t *testing.T) {
	conv := sampleConversation()
	conv.SetTitle("Test\nInjection: malicious")

	out, err := NewMarkdownExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.Contains(string(out), "\nInjection: malicious\n") {
		t.Error("newline in title leaked into the frontmatter")
	}
	if !strings.Contains(string(out), `title: "Test\nInjection: malicious"`) {
		t.Errorf("expected escaped title:\n%s", out)
	}
}

// =============================================================================
// HTML
// =============================================================================

func TestHTMLExporter(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	for _, want := range []string{
		"<title>How is @Atlas going?</title>",
		"<strong>On track.</strong>",
		`class="dark-theme"`,
		`<span class="chip chip-project">@Atlas</span>`,
		`<div class="message bot-message">`,
		"Sources: Azure OpenAI",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

// TestHTMLExporter_EscapesRawHTML tests that message HTML is never emitted verbatim.
func TestHTMLExporter_EscapesRawHTML(t *testing.T) {
	conv := model.NewConversation("conv_xss")
	conv.Append(model.NewUserMessage("<script>alert('xss')</script>", nil))
	conv.Append(model.NewBotMessage("[click](javascript:alert(1))\n\n```<script>\ncode\n```", nil))
	conv.SetTitle("<b>title</b>")

	out, err := NewHTMLExporter(&Options{Theme: "light"}).Export(conv)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	if strings.Contains(result, "<script>") {
		t.Error("script tag leaked into the page")
	}
	if strings.Contains(result, `href="javascript:`) {
		t.Error("javascript link leaked into the page")
	}
	if !strings.Contains(result, "&lt;b&gt;title&lt;/b&gt;") {
		t.Error("title should be escaped")
	}
	if !strings.Contains(result, `class="light-theme"`) {
		t.Error("light theme should be applied")
	}
}

// =============================================================================
// JSON
// =============================================================================

func TestJSONExporter_KeepsTokens(t *testing.T) {
	conv := sampleConversation()
	out, err := NewJSONExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var back model.Conversation
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("output is not a conversation: %v", err)
	}
	if back.Messages[0].Content != conv.Messages[0].Content {
		t.Errorf("content changed: %q", back.Messages[0].Content)
	}
	if len(back.Messages[0].Mentions) != 1 {
		t.Error("mentions should be kept")
	}

	if _, err := NewJSONExporter(nil).Export(model.NewConversation("conv_empty")); err != nil {
		t.Errorf("empty conversations are valid JSON exports: %v", err)
	}
}

// =============================================================================
// SHARED
// =============================================================================

func TestValidation(t *testing.T) {
	for _, exporter := range []Exporter{NewMarkdownExporter(nil), NewHTMLExporter(nil)} {
		if _, err := exporter.Export(nil); err == nil {
			t.Errorf("%T: nil conversation should fail", exporter)
		}
		_, err := exporter.Export(model.NewConversation("conv_empty"))
		if !errors.Is(err, ErrEmptyConversation) {
			t.Errorf("%T: expected ErrEmptyConversation, got %v", exporter, err)
		}
	}
}

func TestForFormat(t *testing.T) {
	tests := map[string]string{
		"markdown": ".md",
		"MD":       ".md",
		"html":     ".html",
		"htm":      ".html",
		"json":     ".json",
	}
	for format, ext := range tests {
		exporter, err := ForFormat(format, nil)
		if err != nil {
			t.Errorf("ForFormat(%q) failed: %v", format, err)
			continue
		}
		if exporter.FileExtension() != ext {
			t.Errorf("ForFormat(%q) extension = %q, want %q", format, exporter.FileExtension(), ext)
		}
	}
	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(sampleConversation(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("file written to %s, want dir %s", path, dir)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "conversation_How_is_-Atlas_going-_") || !strings.HasSuffix(name, ".md") {
		t.Errorf("unexpected file name %q", name)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Errorf("file not written: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "conversation"},
		{"a/b\\c:d", "a-b-c-d"},
		{"hello world", "hello_world"},
		{"x\x01y", "x-y"},
		{"Olá", "Olá"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
