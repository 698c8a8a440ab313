// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package entity provides the catalog of mentionable entities.
package entity

import (
	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
)

// Entity is something the user can mention with "@".
type Entity struct {
	ID          string           `toml:"id" json:"id"`
	Type        model.EntityType `toml:"type" json:"type"`
	Name        string           `toml:"name" json:"name"`
	Description string           `toml:"description" json:"description,omitempty"`
}

// Token returns the mention token for the entity.
func (e Entity) Token() string {
	return mention.Encode(e.Name, e.Type, e.ID)
}

// Mention returns the entity as a message mention.
func (e Entity) Mention() model.EntityMention {
	return model.EntityMention{ID: e.ID, Type: e.Type, Name: e.Name}
}

// Icon returns a one-character marker for the entity type.
func (e Entity) Icon() string {
	switch e.Type {
	case model.EntityProject:
		return "▣"
	case model.EntityProcess:
		return "⟳"
	case model.EntityPerson:
		return "●"
	case model.EntityAgent:
		return "◆"
	default:
		return "·"
	}
}
