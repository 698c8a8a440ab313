// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package entity provides the catalog of mentionable entities.
package entity

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/util"
)

// DefaultSearchLimit is the number of suggestions shown by the autocomplete.
const DefaultSearchLimit = 8

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is an immutable, ordered collection of entities.
type Catalog struct {
	entities []Entity
}

// NewCatalog creates a catalog from entities, keeping their order.
func NewCatalog(entities []Entity) *Catalog {
	out := make([]Entity, len(entities))
	copy(out, entities)
	return &Catalog{entities: out}
}

// DefaultCatalog returns the built-in example entities.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Entity{
		{ID: "1", Type: model.EntityProject, Name: "Atlas", Description: "Customer data platform"},
		{ID: "2", Type: model.EntityProject, Name: "Onboarding (v2)", Description: "New client onboarding flow"},
		{ID: "3", Type: model.EntityProject, Name: "Mobile App", Description: "iOS and Android companion app"},
		{ID: "1", Type: model.EntityProcess, Name: "Code Review", Description: "Pull request review process"},
		{ID: "2", Type: model.EntityProcess, Name: "Incident Response", Description: "On-call escalation runbook"},
		{ID: "3", Type: model.EntityProcess, Name: "Sprint Planning", Description: "Biweekly planning ritual"},
		{ID: "1", Type: model.EntityPerson, Name: "Ana Souza", Description: "Product lead"},
		{ID: "2", Type: model.EntityPerson, Name: "João Pereira", Description: "Backend engineer"},
		{ID: "3", Type: model.EntityPerson, Name: "Maria Oliveira", Description: "Designer"},
		{ID: "1", Type: model.EntityAgent, Name: "Research Agent", Description: "Searches the knowledge graph"},
		{ID: "2", Type: model.EntityAgent, Name: "Report Agent", Description: "Drafts status reports"},
	})
}

// catalogFile is the TOML layout of a catalog file.
type catalogFile struct {
	Entities []Entity `toml:"entity"`
}

// LoadFile reads a TOML catalog. Every entry needs an ID, a name and one of
// the four entity types; legacy type literals are accepted.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(util.ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("read entity catalog: %w", err)
	}

	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse entity catalog: %w", err)
	}

	for i, e := range file.Entities {
		typ, ok := model.ParseEntityType(string(e.Type))
		if !ok {
			return nil, fmt.Errorf("entity %d (%q): invalid type %q", i+1, e.Name, e.Type)
		}
		if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("entity %d: id and name are required", i+1)
		}
		if strings.ContainsAny(e.Name, "[]") || strings.ContainsAny(e.ID, "()") {
			return nil, fmt.Errorf("entity %d (%q): name or id contains token delimiters", i+1, e.Name)
		}
		file.Entities[i].Type = typ
	}
	return NewCatalog(file.Entities), nil
}

// Load returns the catalog from path, or the default catalog when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	return LoadFile(path)
}

// Len returns the number of entities.
func (c *Catalog) Len() int {
	return len(c.entities)
}

// All returns a copy of every entity in catalog order.
func (c *Catalog) All() []Entity {
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

// ByType returns the entities of one type in catalog order.
func (c *Catalog) ByType(t model.EntityType) []Entity {
	var out []Entity
	for _, e := range c.entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Lookup finds an entity by type and ID.
func (c *Catalog) Lookup(t model.EntityType, id string) (Entity, bool) {
	for _, e := range c.entities {
		if e.Type == t && e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// =============================================================================
// SEARCH
// =============================================================================

// Match is one search result.
type Match struct {
	Entity    Entity
	Score     int
	Positions []int // rune positions in Entity.Name matched by the query
}

// Search fuzzy-matches query against entity names and returns at most limit
// results, best first. An empty query lists the catalog in order. limit <= 0
// means no limit.
//
// A query of the form "type:rest" (for example "person:ana") restricts the
// search to that entity type.
func (c *Catalog) Search(query string, limit int) []Match {
	query = strings.TrimSpace(query)

	var only model.EntityType
	if prefix, rest, ok := strings.Cut(query, ":"); ok {
		if t, valid := model.ParseEntityType(strings.ToLower(prefix)); valid {
			only = t
			query = strings.TrimSpace(rest)
		}
	}

	matches := make([]Match, 0, len(c.entities))
	for _, e := range c.entities {
		if only != "" && e.Type != only {
			continue
		}
		score, ok := FuzzyMatch(query, e.Name)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Entity:    e,
			Score:     score,
			Positions: HighlightPositions(query, e.Name),
		})
	}

	// Stable keeps catalog order among equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
