// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// entities.go - The entities command.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/cocreateai/cocreate-chat/internal/config"
	"github.com/cocreateai/cocreate-chat/internal/entity"
	"github.com/cocreateai/cocreate-chat/internal/ui/styles"
	"github.com/cocreateai/cocreate-chat/internal/util"
)

// entityResult is the JSON form of a search result.
type entityResult struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Token       string `json:"token"`
	Score       int    `json:"score"`
}

// HandleEntities searches the entity catalog. It needs neither the store
// nor the backend.
func HandleEntities(args Args) error {
	SetupColors(args.NoColor)
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	return RunEntities(cfg, args, os.Stdout)
}

// RunEntities searches the catalog configured in cfg and prints the matches.
func RunEntities(cfg *config.Config, args Args, w io.Writer) error {
	p := NewArgParser(args.Raw, "json")
	catalog, err := entity.Load(cfg.Chat.EntitiesFile)
	if err != nil {
		return &ConfigError{Err: err}
	}

	limit := p.FlagIntOrDefault("limit", entity.DefaultSearchLimit)
	matches := catalog.Search(strings.Join(p.PositionalFrom(0), " "), limit)

	if args.JSON || p.BoolFlag("json") {
		out := make([]entityResult, 0, len(matches))
		for _, m := range matches {
			out = append(out, entityResult{
				ID:          m.Entity.ID,
				Type:        string(m.Entity.Type),
				Name:        m.Entity.Name,
				Description: m.Entity.Description,
				Token:       m.Entity.Token(),
				Score:       m.Score,
			})
		}
		return writeJSON(w, "entities", out)
	}

	printEntityMatches(w, matches)
	return nil
}

// printEntityMatches writes one line per match: icon, name, type and token.
func printEntityMatches(w io.Writer, matches []entity.Match) {
	if len(matches) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No matching entities.")
		return
	}
	for _, m := range matches {
		e := m.Entity
		icon := lipgloss.NewStyle().Foreground(styles.EntityColor(e.Type)).Render(e.Icon())
		fmt.Fprintf(w, "%s %s %s %s\n",
			icon,
			util.PadRight(util.TruncateWidth(e.Name, 28), 28),
			util.PadRight(e.Type.Label(), 8),
			DimStyle.Render(e.Token()))
	}
}
