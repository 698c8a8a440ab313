// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and usage text for cocreate.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdConversations
	CmdEntities
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdConversations:
		return "conversations"
	case CmdEntities:
		return "entities"
	case CmdStatus:
		return "status"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string // --config: config file instead of ~/.cocreate/config.toml
	Backend    string // --backend: backend URL override
	Storage    string // --storage: storage driver override
	Offline    bool   // --offline: never contact the backend
	Verbose    bool   // --verbose: debug logging
	Quiet      bool
	JSON       bool // Output in JSON format
	NoColor    bool

	// Command-specific
	Subcommand string

	// Unknown is set when the command word was not recognized
	Unknown string

	// Raw args (remaining after the command word and global flags)
	Raw []string
}

const usageText = `cocreate - terminal client for the CoCreateAI assistant

Chat with the CoCreateAI backend about projects, processes, people and agents.
Type @ in a message to mention one of them. Conversations are kept locally
and can be exported or uploaded to the knowledge base.

Usage:
  cocreate                         Start the TUI (default)
  cocreate chat                    Line-oriented chat with input history
  cocreate conversations, c [sub]  Manage stored conversations
  cocreate entities, e [query]     Search mentionable entities
  cocreate status, s               Show backend and storage status
  cocreate config [sub]            Show or change configuration
  cocreate version                 Show version information
  cocreate help                    Show this help

Conversation Commands:
  cocreate conversations list               List conversations, newest first
  cocreate conversations show <id>          Print a conversation
  cocreate conversations new                Start an empty conversation
  cocreate conversations select <id>        Make a conversation current
  cocreate conversations rename <id> <title>
                                            Rename a conversation
  cocreate conversations kb <id>            Toggle the knowledge base
  cocreate conversations delete <id>        Delete a conversation
    --confirm                               Required confirmation flag
  cocreate conversations export <id>        Export a conversation
    --format markdown|html|json             Export format (default: markdown)
    --output DIR                            Output directory (default: .)
    --open                                  Open the file after export
  cocreate conversations ingest <id>        Upload to the knowledge base

  IDs may be shortened to any unique prefix.

Config Commands:
  cocreate config show                      Print the effective configuration
  cocreate config get <key>                 Print one value (e.g. backend.url)
  cocreate config set <key> <value>         Change and save one value
  cocreate config keys                      List all keys
  cocreate config path                      Print the config file location

Global Flags:
  --config FILE       Use FILE instead of ~/.cocreate/config.toml
  --backend URL       Backend base URL (default: http://localhost:8000)
  --storage DRIVER    Storage driver: file, sqlite or memory
  --ephemeral         Keep conversations in memory only (same as --storage memory)
  --offline           Do not contact the backend
  --json              Output in JSON format
  --no-color          Disable colored output
  -q, --quiet         Print less
  -v, --verbose       Debug logging
  -h, --help          Show this help
  -V, --version       Show version information

Environment:
  COCREATE_HOME              Config directory (default: ~/.cocreate)
  COCREATE_BACKEND_URL       Backend base URL
  COCREATE_STORAGE_DRIVER    Storage driver
  NO_COLOR                   Disable colored output

Examples:
  cocreate --backend http://chat.internal:8000
  cocreate chat --offline
  cocreate conversations export 0190f3a1 --format html --open
  cocreate entities ana
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// VersionInfo is the machine-readable form of the version output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// CurrentVersion returns the build information of this binary.
func CurrentVersion() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// PrintVersion writes the version information to w.
func PrintVersion(w io.Writer, jsonMode bool) error {
	info := CurrentVersion()
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewJSONResponse("version", info))
	}
	fmt.Fprintf(w, "cocreate %s\n", info.Version)
	fmt.Fprintf(w, "  Commit:   %s\n", info.GitCommit)
	fmt.Fprintf(w, "  Built:    %s\n", info.BuildDate)
	fmt.Fprintf(w, "  Go:       %s\n", info.GoVersion)
	fmt.Fprintf(w, "  Platform: %s\n", info.Platform)
	return nil
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments, excluding the program name.
// Global flags are accepted anywhere on the line.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed, early := parseGlobalFlags(argv)
	if early != nil {
		return *early, parsed
	}

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	word := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining
	if len(remaining) > 0 {
		parsed.Subcommand = strings.ToLower(remaining[0])
	}

	switch word {
	case "tui":
		return CmdTUI, parsed
	case "chat":
		return CmdChat, parsed
	case "conversations", "conversation", "conv", "c":
		return CmdConversations, parsed
	case "entities", "entity", "e":
		return CmdEntities, parsed
	case "status", "s":
		return CmdStatus, parsed
	case "config":
		return CmdConfig, parsed
	case "version":
		return CmdVersion, parsed
	case "help":
		return CmdHelp, parsed
	default:
		parsed.Unknown = word
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags from argv and returns the rest.
// A non-nil command is returned for --help and --version.
func parseGlobalFlags(argv []string) ([]string, Args, *Command) {
	var (
		remaining []string
		parsed    Args
		early     *Command
	)

	// value returns the argument of a flag given as "--flag value" or
	// "--flag=value".
	value := func(i *int, arg string) string {
		if idx := strings.IndexByte(arg, '='); idx >= 0 {
			return arg[idx+1:]
		}
		if *i+1 < len(argv) {
			*i++
			return argv[*i]
		}
		return ""
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		name := arg
		if idx := strings.IndexByte(arg, '='); idx >= 0 && strings.HasPrefix(arg, "--") {
			name = arg[:idx]
		}

		switch name {
		case "--config":
			parsed.ConfigPath = value(&i, arg)
		case "--backend":
			parsed.Backend = value(&i, arg)
		case "--storage":
			parsed.Storage = value(&i, arg)
		case "--ephemeral":
			parsed.Storage = "memory"
		case "--offline":
			parsed.Offline = true
		case "--json":
			parsed.JSON = true
		case "--no-color":
			parsed.NoColor = true
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "-h", "--help":
			cmd := CmdHelp
			early = &cmd
		case "-V", "--version":
			cmd := CmdVersion
			early = &cmd
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed, early
}
