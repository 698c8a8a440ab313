// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package entity provides the catalog of mentionable entities.
//
// The catalog feeds the "@" autocomplete. It ships with a built-in set of
// example projects, processes, people and agents, and can be replaced by a
// TOML file listing real ones.
//
// # Key Types
//
//   - Entity: A mentionable project, process, person or agent
//   - Catalog: Searchable collection of entities
//   - Match: Search result with score and highlight positions
//
// # Usage
//
//	catalog := entity.DefaultCatalog()
//	for _, m := range catalog.Search("ana", 5) {
//		fmt.Println(m.Entity.Name, m.Entity.Token())
//	}
//
// A catalog file looks like:
//
//	[[entity]]
//	id = "42"
//	type = "person"
//	name = "Ana Souza"
//	description = "Product lead"
package entity
