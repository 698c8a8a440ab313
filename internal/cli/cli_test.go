// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/cocreateai/cocreate-chat/internal/app"
	"github.com/cocreateai/cocreate-chat/internal/entity"
	"github.com/cocreateai/cocreate-chat/internal/gateway"
	"github.com/cocreateai/cocreate-chat/internal/storage"
)

// =============================================================================
// COMMAND PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantCmd  Command
		validate func(*testing.T, Args)
	}{
		{
			name:    "no args starts the TUI",
			argv:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "chat",
			argv:    []string{"chat"},
			wantCmd: CmdChat,
		},
		{
			name:    "conversations alias with subcommand",
			argv:    []string{"c", "Export", "0190", "--format", "html"},
			wantCmd: CmdConversations,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "export" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "export")
				}
				want := []string{"Export", "0190", "--format", "html"}
				if !reflect.DeepEqual(a.Raw, want) {
					t.Errorf("Raw = %v, want %v", a.Raw, want)
				}
			},
		},
		{
			name:    "global flags anywhere",
			argv:    []string{"--offline", "status", "--backend", "http://chat:9000", "--json"},
			wantCmd: CmdStatus,
			validate: func(t *testing.T, a Args) {
				if !a.Offline || !a.JSON {
					t.Errorf("Offline = %v, JSON = %v, want both true", a.Offline, a.JSON)
				}
				if a.Backend != "http://chat:9000" {
					t.Errorf("Backend = %q", a.Backend)
				}
				if len(a.Raw) != 0 {
					t.Errorf("Raw = %v, want empty", a.Raw)
				}
			},
		},
		{
			name:    "equals form",
			argv:    []string{"--storage=sqlite", "--config=/tmp/c.toml", "entities", "ana"},
			wantCmd: CmdEntities,
			validate: func(t *testing.T, a Args) {
				if a.Storage != "sqlite" || a.ConfigPath != "/tmp/c.toml" {
					t.Errorf("Storage = %q, ConfigPath = %q", a.Storage, a.ConfigPath)
				}
				if !reflect.DeepEqual(a.Raw, []string{"ana"}) {
					t.Errorf("Raw = %v", a.Raw)
				}
			},
		},
		{
			name:    "ephemeral selects the memory store",
			argv:    []string{"chat", "--ephemeral"},
			wantCmd: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.Storage != "memory" {
					t.Errorf("Storage = %q, want memory", a.Storage)
				}
			},
		},
		{
			name:    "help flag wins",
			argv:    []string{"chat", "--help"},
			wantCmd: CmdHelp,
		},
		{
			name:    "version flag",
			argv:    []string{"-V"},
			wantCmd: CmdVersion,
		},
		{
			name:    "unknown command",
			argv:    []string{"frobnicate"},
			wantCmd: CmdHelp,
			validate: func(t *testing.T, a Args) {
				if a.Unknown != "frobnicate" {
					t.Errorf("Unknown = %q", a.Unknown)
				}
			},
		},
		{
			name:    "verbose and quiet",
			argv:    []string{"-v", "-q", "s"},
			wantCmd: CmdStatus,
			validate: func(t *testing.T, a Args) {
				if !a.Verbose || !a.Quiet {
					t.Errorf("Verbose = %v, Quiet = %v", a.Verbose, a.Quiet)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Errorf("command = %v, want %v", cmd, tt.wantCmd)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestCommand_String(t *testing.T) {
	if CmdConversations.String() != "conversations" {
		t.Errorf("CmdConversations.String() = %q", CmdConversations.String())
	}
	if Command(99).String() != "help" {
		t.Errorf("unknown command should print as help")
	}
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser_BoolFlagsDoNotConsumeValues(t *testing.T) {
	p := NewArgParser([]string{"delete", "--confirm", "0190"}, "confirm")
	if !p.BoolFlag("confirm") {
		t.Error("BoolFlag(confirm) = false")
	}
	if p.Positional(1) != "0190" {
		t.Errorf("Positional(1) = %q, want 0190", p.Positional(1))
	}

	// Without the declaration the value is taken.
	p = NewArgParser([]string{"delete", "--confirm", "0190"})
	if p.Flag("confirm") != "0190" {
		t.Errorf("Flag(confirm) = %q, want 0190", p.Flag("confirm"))
	}
}

func TestArgParser_Forms(t *testing.T) {
	p := NewArgParser([]string{"export", "--format=html", "--output", "/tmp/out", "--open=false", "--", "--literal"}, "open")

	if p.Subcommand() != "export" {
		t.Errorf("Subcommand() = %q", p.Subcommand())
	}
	if p.Flag("format") != "html" || p.Flag("--output") != "/tmp/out" {
		t.Errorf("Flag(format) = %q, Flag(output) = %q", p.Flag("format"), p.Flag("output"))
	}
	if p.BoolFlag("open") {
		t.Error("--open=false should be false")
	}
	if !p.HasFlag("open") {
		t.Error("HasFlag(open) = false")
	}
	if p.Positional(1) != "--literal" {
		t.Errorf("arguments after -- are positional, got %q", p.Positional(1))
	}
	if p.PositionalCount() != 2 {
		t.Errorf("PositionalCount() = %d, want 2", p.PositionalCount())
	}
	if got := p.FlagOrDefault("missing", "x"); got != "x" {
		t.Errorf("FlagOrDefault = %q", got)
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	p := NewArgParser([]string{"--limit", "3", "--bad", "x"})
	if got := p.FlagIntOrDefault("limit", 8); got != 3 {
		t.Errorf("limit = %d, want 3", got)
	}
	if got := p.FlagIntOrDefault("bad", 8); got != 8 {
		t.Errorf("bad = %d, want default", got)
	}
	if got := p.FlagIntOrDefault("none", 8); got != 8 {
		t.Errorf("none = %d, want default", got)
	}
}

func TestArgParser_Empty(t *testing.T) {
	p := NewArgParser(nil)
	if p.Subcommand() != "" || p.Positional(0) != "" || p.PositionalFrom(1) != nil {
		t.Error("empty parser should return zero values")
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"true", "YES", "y", "1", "on"} {
		if v, err := ParseBoolString(s); err != nil || !v {
			t.Errorf("ParseBoolString(%q) = %v, %v", s, v, err)
		}
	}
	for _, s := range []string{"false", "No", "n", "0", "off"} {
		if v, err := ParseBoolString(s); err != nil || v {
			t.Errorf("ParseBoolString(%q) = %v, %v", s, v, err)
		}
	}
	if _, err := ParseBoolString("maybe"); err == nil {
		t.Error("ParseBoolString(maybe) should fail")
	}
}

func TestParseConfigValue(t *testing.T) {
	if v, err := parseConfigValue(true, "off"); err != nil || v != false {
		t.Errorf("bool: %v, %v", v, err)
	}
	if v, err := parseConfigValue(56, " 64 "); err != nil || v != 64 {
		t.Errorf("int: %v, %v", v, err)
	}
	if _, err := parseConfigValue(56, "wide"); err == nil {
		t.Error("int: expected error")
	}
	v, err := parseConfigValue([]string{}, "Azure OpenAI, Neo4j")
	if err != nil || !reflect.DeepEqual(v, []string{"Azure OpenAI", "Neo4j"}) {
		t.Errorf("list: %v, %v", v, err)
	}
	if v, _ := parseConfigValue("dark", "light"); v != "light" {
		t.Errorf("string: %v", v)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{NewUsageError("bad", "cocreate help"), ExitUsageError},
		{&ConfigError{Err: errors.New("bad toml")}, ExitConfigError},
		{wrap("conversations", "show", fmt.Errorf("x: %w", storage.ErrConversationNotFound)), ExitNotFoundError},
		{wrap("status", "", &gateway.ClientError{Type: gateway.ErrTypeUnavailable, Message: "down"}), ExitNetworkError},
		{app.ErrNoIngester, ExitNetworkError},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPrintError_Hint(t *testing.T) {
	var sb strings.Builder
	PrintError(&sb, wrap("conversations", "show", storage.ErrConversationNotFound))
	out := sb.String()
	if !strings.Contains(out, "Error: conversations show: conversation not found") {
		t.Errorf("unexpected error line: %q", out)
	}
	if !strings.Contains(out, "Hint: run 'cocreate conversations list'") {
		t.Errorf("missing hint: %q", out)
	}
}

func TestUsageError_Message(t *testing.T) {
	err := NewUsageError("missing key", "cocreate config get <key>")
	if err.Error() != "missing key\nUsage: cocreate config get <key>" {
		t.Errorf("Error() = %q", err.Error())
	}
}

// =============================================================================
// MENTION COMPLETION
// =============================================================================

func TestMentionCompleter(t *testing.T) {
	complete := MentionCompleter(entity.DefaultCatalog())

	line := "status of @ana please"
	pos := len([]rune("status of @ana"))
	head, completions, tail := complete(line, pos)
	if head != "status of " {
		t.Errorf("head = %q", head)
	}
	if tail != " please" {
		t.Errorf("tail = %q", tail)
	}
	if len(completions) == 0 || completions[0] != "@[Ana Souza](person:1) " {
		t.Fatalf("completions = %v", completions)
	}

	// No '@' before the cursor.
	if _, c, _ := complete("status of ana", 13); c != nil {
		t.Errorf("plain word completed: %v", c)
	}
	// An '@' inside a word is an email address, not a mention.
	if _, c, _ := complete("mail ana@atl", 12); c != nil {
		t.Errorf("email completed: %v", c)
	}
	// A bare '@' lists the catalog.
	if _, c, _ := complete("@", 1); len(c) != entity.DefaultSearchLimit {
		t.Errorf("bare @ returned %d completions", len(c))
	}
}
