// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package entity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
)

func TestEntity_Token(t *testing.T) {
	e := Entity{ID: "1", Type: model.EntityPerson, Name: "Ana Souza"}

	assert.Equal(t, "@[Ana Souza](person:1)", e.Token())
	assert.Equal(t, []model.EntityMention{e.Mention()}, mention.ExtractMentions(e.Token()))
}

func TestDefaultCatalog_CoversEveryType(t *testing.T) {
	c := DefaultCatalog()
	for _, typ := range model.EntityTypes {
		assert.NotEmpty(t, c.ByType(typ), "no %s entities", typ)
	}
	for _, e := range c.All() {
		assert.Len(t, mention.ExtractMentions(e.Token()), 1, "token for %q must round-trip", e.Name)
	}
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query, target string
		want          bool
	}{
		{"", "Atlas", true},
		{"atl", "Atlas", true},
		{"as", "Ana Souza", true},
		{"jose", "José", true},
		{"JOAO", "João Pereira", true},
		{"xyz", "Atlas", false},
		{"atlases", "Atlas", false},
	}
	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.target, func(t *testing.T) {
			_, ok := FuzzyMatch(tt.query, tt.target)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestFuzzyMatch_PrefersWordStarts(t *testing.T) {
	boundary, _ := FuzzyMatch("rs", "Report Summary")
	inner, _ := FuzzyMatch("rs", "Cursor")
	assert.Greater(t, boundary, inner)
}

func TestHighlightPositions(t *testing.T) {
	assert.Equal(t, []int{0, 4}, HighlightPositions("as", "Ana Souza"))
	assert.Equal(t, []int{0, 1, 2, 3}, HighlightPositions("joao", "João"))
	assert.Nil(t, HighlightPositions("zz", "Ana"))
	assert.Nil(t, HighlightPositions("", "Ana"))
}

func TestCatalog_Search(t *testing.T) {
	c := DefaultCatalog()

	all := c.Search("", 0)
	assert.Len(t, all, c.Len())
	assert.Equal(t, c.All()[0], all[0].Entity, "empty query keeps catalog order")

	got := c.Search("ana", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "Ana Souza", got[0].Entity.Name)
	assert.LessOrEqual(t, len(got), 3)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestCatalog_SearchTypeFilter(t *testing.T) {
	c := DefaultCatalog()

	got := c.Search("agent:", 0)
	require.NotEmpty(t, got)
	for _, m := range got {
		assert.Equal(t, model.EntityAgent, m.Entity.Type)
	}

	got = c.Search("pessoa:mar", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "Maria Oliveira", got[0].Entity.Name)

	// Unknown prefixes are part of the query.
	assert.Empty(t, c.Search("team:ana", 0))
}

func TestCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	e, ok := c.Lookup(model.EntityProject, "1")
	require.True(t, ok)
	assert.Equal(t, "Atlas", e.Name)

	_, ok = c.Lookup(model.EntityProject, "999")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[entity]]
id = "42"
type = "person"
name = "Ana Souza"
description = "Product lead"

[[entity]]
id = "7"
type = "projeto"
name = "Atlas"
`), 0600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, model.EntityProject, c.All()[1].Type, "legacy literal is normalized")
	assert.Equal(t, "@[Ana Souza](person:42)", c.All()[0].Token())
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad type":   "[[entity]]\nid = \"1\"\ntype = \"team\"\nname = \"X\"\n",
		"missing id": "[[entity]]\ntype = \"person\"\nname = \"X\"\n",
		"delimiters": "[[entity]]\nid = \"1\"\ntype = \"person\"\nname = \"A]B\"\n",
		"not toml":   "[[entity\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0600))
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(dir, "absent.toml"))
	assert.Error(t, err)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog().Len(), c.Len())
}
