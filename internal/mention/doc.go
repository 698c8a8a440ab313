// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mention encodes and decodes entity mentions embedded in message text.
//
// The user types a display name after "@" and picks an entity from the
// autocomplete. Before the message is sent, every picked name is replaced by a
// durable token that carries the entity type and identifier:
//
//	@[Ana Souza](person:42)
//
// Tokens survive persistence and round-trips through the backend, so any text
// (including bot replies) can be scanned for mentions later.
//
// # Key Types
//
//   - Selection: Name-to-token mapping accumulated while the user picks entities
//
// # Key Functions
//
//   - Encode: Build a token from name, type and id
//   - ExtractMentions: Scan text for tokens, left to right, duplicates kept
//   - Substitute: Replace whole-word names with their tokens in a single pass
//   - Humanize: Render tokens back as "@name" for display
//
// # Usage
//
//	sel := mention.NewSelection()
//	sel.Add("Ana", model.EntityPerson, "1")
//	text := mention.Substitute("Ana e Banana", sel.Mapping())
//	// text == "@[Ana](person:1) e Banana"
//
//	mentions := mention.ExtractMentions(text)
//	// mentions == [{ID: "1", Type: "person", Name: "Ana"}]
package mention
