// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for the CLI commands.
//
// Handlers always return errors and never exit; main decides how to report
// them and which exit code to use.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/cocreateai/cocreate-chat/internal/app"
	"github.com/cocreateai/cocreate-chat/internal/export"
	"github.com/cocreateai/cocreate-chat/internal/gateway"
	"github.com/cocreateai/cocreate-chat/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a failed CLI command with context.
type CommandError struct {
	Command string // Command that failed (e.g., "conversations")
	Action  string // Action being performed (e.g., "export")
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports a command invoked with missing or invalid arguments.
type UsageError struct {
	Message string
	Usage   string // Correct invocation (optional)
}

func (e *UsageError) Error() string {
	if e.Usage == "" {
		return e.Message
	}
	return fmt.Sprintf("%s\nUsage: %s", e.Message, e.Usage)
}

// ConfigError reports an unreadable or invalid configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewUsageError creates a UsageError.
func NewUsageError(message, usage string) error {
	return &UsageError{Message: message, Usage: usage}
}

// wrap attaches command context to err. A nil err stays nil.
func wrap(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// =============================================================================
// REPORTING
// =============================================================================

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var configErr *ConfigError
	switch {
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &configErr):
		return ExitConfigError
	case errors.Is(err, storage.ErrConversationNotFound):
		return ExitNotFoundError
	case isUnreachable(err):
		return ExitNetworkError
	case errors.Is(err, app.ErrNoIngester):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

// PrintError writes err to w in the CLI's error format, with a hint for
// errors the user can act on.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)

	if hint := errorHint(err); hint != "" {
		color.New(color.FgYellow).Fprintf(w, "Hint: %s\n", hint)
	}
}

func errorHint(err error) string {
	switch {
	case isUnreachable(err):
		return "check that the backend is running, or pass --backend URL"
	case errors.Is(err, app.ErrNoIngester):
		return "ingestion needs the backend; drop --offline"
	case errors.Is(err, storage.ErrConversationNotFound):
		return "run 'cocreate conversations list' to see the IDs"
	case errors.Is(err, export.ErrEmptyConversation):
		return "send a message first"
	default:
		return ""
	}
}

// isUnreachable reports backend errors that retrying against the same URL
// will not fix.
func isUnreachable(err error) bool {
	return errors.Is(err, gateway.ErrUnavailable) || errors.Is(err, gateway.ErrTimeout)
}
