// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Argument parsing shared by the subcommands.
package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits subcommand arguments into flags and positionals.
//
// Supported forms:
//
//	--flag value     Flag with a space-separated value
//	--flag=value     Flag with an equals sign
//	--flag           Boolean flag
//
// Flags named in boolFlags never take a value, so "--confirm <id>" keeps
// <id> positional.
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. boolFlags lists the flag names (without dashes)
// that never take a value.
//
// Example:
//
//	p := NewArgParser([]string{"export", "0190", "--format", "html", "--open"}, "open")
//	p.Subcommand()     // "export"
//	p.Positional(1)    // "0190"
//	p.Flag("format")   // "html"
//	p.BoolFlag("open") // true
func NewArgParser(raw []string, boolFlags ...string) *ArgParser {
	isBool := make(map[string]bool, len(boolFlags))
	for _, name := range boolFlags {
		isBool[name] = true
	}

	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
		raw:       raw,
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if idx := strings.IndexByte(name, '='); idx >= 0 {
			key, val := name[:idx], name[idx+1:]
			if b, err := ParseBoolString(val); err == nil && isBool[key] {
				p.boolFlags[key] = b
			} else {
				p.flags[key] = val
			}
			continue
		}

		if !isBool[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i++
			continue
		}
		p.boolFlags[name] = true
	}
	return p
}

// Subcommand returns the first positional argument, lower-cased.
func (p *ArgParser) Subcommand() string {
	return strings.ToLower(p.Positional(0))
}

// Flag returns the value of a string flag, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagOrDefault returns the flag value or a default if not set.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// FlagIntOrDefault returns the flag value as an integer or a default when
// the flag is missing or not a number.
func (p *ArgParser) FlagIntOrDefault(name string, defaultValue int) int {
	val := p.Flag(name)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return n
}

// BoolFlag reports whether a boolean flag was given.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// HasFlag reports whether the flag was given in either form.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, isString := p.flags[name]
	_, isBool := p.boolFlags[name]
	return isString || isBool
}

// Positional returns the positional argument at index, or "". Index 0 is
// the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns the positional arguments starting at index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return nil
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the original arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

// ParseBoolString parses true/false, yes/no, y/n, 1/0 and on/off
// (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %q", s)
	}
}

// parseConfigValue converts a command-line value to the type the config key
// expects, judged from the key's current value.
func parseConfigValue(current interface{}, raw string) (interface{}, error) {
	switch current.(type) {
	case bool:
		return ParseBoolString(raw)
	case int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid number: %q", raw)
		}
		return n, nil
	case []string:
		if strings.TrimSpace(raw) == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return raw, nil
	}
}
