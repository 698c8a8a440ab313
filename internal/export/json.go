// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"

	"github.com/cocreateai/cocreate-chat/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON format.
// JSON exports always contain the complete conversation, mention tokens
// included, so the output can be read back as a model.Conversation.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a conversation to indented JSON. Empty conversations are
// allowed.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, errors.New("conversation is nil")
	}
	return json.MarshalIndent(conv, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
