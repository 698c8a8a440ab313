// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the slash command registry. Each command is a small
// handler keyed by name and aliases.
package chat

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cocreateai/cocreate-chat/internal/export"
	"github.com/cocreateai/cocreate-chat/internal/model"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command. args excludes the command name.
type CommandHandler func(m Model, args []string) (tea.Model, tea.Cmd)

// command describes a slash command for /help.
type command struct {
	name    string
	aliases []string
	usage   string
	desc    string
	handler CommandHandler
}

// commands is filled in init because the help handler reads it.
var commands []command

// commandHandlers maps command names and aliases to their handlers.
var commandHandlers map[string]CommandHandler

func init() {
	commands = []command{
		{"help", []string{"h", "?"}, "/help", "list commands", handleHelpCommand},
		{"new", []string{"n"}, "/new", "start a new conversation", handleNewCommand},
		{"delete", []string{"del"}, "/delete", "delete the current conversation", handleDeleteCommand},
		{"rename", []string{"title"}, "/rename <title>", "rename the current conversation", handleRenameCommand},
		{"kb", []string{"knowledge"}, "/kb", "toggle the knowledge base", handleKnowledgeCommand},
		{"like", []string{"good", "up"}, "/like [n]", "rate the latest (or nth latest) reply as helpful", handleLikeCommand},
		{"dislike", []string{"bad", "down"}, "/dislike [n]", "rate the latest (or nth latest) reply as unhelpful", handleDislikeCommand},
		{"export", []string{"e"}, "/export [markdown|html|json]", "export the current conversation", handleExportCommand},
		{"ingest", []string{"upload"}, "/ingest", "add the conversation to the knowledge base", handleIngestCommand},
		{"reload", []string{"r"}, "/reload", "reload conversations from disk", handleReloadCommand},
		{"quit", []string{"q", "exit"}, "/quit", "quit", handleQuitCommand},
	}

	commandHandlers = make(map[string]CommandHandler)
	for _, c := range commands {
		commandHandlers[c.name] = c.handler
		for _, a := range c.aliases {
			commandHandlers[a] = c.handler
		}
	}
}

// handleCommand processes slash commands using the command registry.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	handler, ok := commandHandlers[name]
	if !ok {
		m.setError(fmt.Sprintf("Unknown command /%s, try /help", name))
		return m, nil
	}
	m.completion = newCompletionState()
	return handler(m, parts[1:])
}

// CommandHelp returns one "usage  description" line per command.
func CommandHelp() []string {
	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(lines, fmt.Sprintf("%-30s %s", c.usage, c.desc))
	}
	return lines
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelpCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	parts := make([]string, 0, len(commands))
	for _, c := range commands {
		parts = append(parts, c.usage)
	}
	m.setNotice(strings.Join(parts, "  "))
	m.showHelp = true
	m.help.ShowAll = true
	m.layout()
	return m, nil
}

func handleNewCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.newConversation()
}

func handleDeleteCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.confirmDelete = true
	return m.deleteConversation()
}

func handleRenameCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		m.setError("Usage: /rename <title>")
		return m, nil
	}
	id := m.ws.CurrentConversationID()
	if id == "" {
		m.setError("No conversation to rename")
		return m, nil
	}
	if err := m.ws.RenameConversation(id, title); err != nil {
		m.reportActionError(err)
	} else {
		m.setNotice("Conversation renamed")
	}
	m.refreshMessages()
	return m, nil
}

func handleKnowledgeCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.toggleKnowledgeBase()
}

func handleLikeCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	return rateCommand(m, args, model.FeedbackPositive)
}

func handleDislikeCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	return rateCommand(m, args, model.FeedbackNegative)
}

func rateCommand(m Model, args []string, fb model.Feedback) (tea.Model, tea.Cmd) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			m.setError(fmt.Sprintf("Invalid reply number %q", args[0]))
			return m, nil
		}
		n = v
	}
	return m.rateReply(n, fb)
}

func handleExportCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	format := "markdown"
	if len(args) > 0 {
		format = args[0]
	}
	conv, ok := m.ws.Store().Current()
	if !ok {
		m.setError("No conversation to export")
		return m, nil
	}

	opts := export.DefaultOptions()
	opts.OutputDir = m.exportDir
	opts.Theme = m.theme.GlamourStyle()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}

	m.setNotice("Exporting conversation...")
	return m, func() tea.Msg {
		path, err := export.ExportToFile(conv, exporter, opts)
		return ExportCompleteMsg{Path: path, Err: err}
	}
}

func handleIngestCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	id := m.ws.CurrentConversationID()
	if id == "" {
		m.setError("No conversation to upload")
		return m, nil
	}
	ws, ctx := m.ws, m.ctx
	m.setNotice("Uploading conversation...")
	return m, func() tea.Msg {
		_, err := ws.Ingest(ctx, id)
		return IngestCompleteMsg{ConversationID: id, Err: err}
	}
}

func handleReloadCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.reload()
}

func handleQuitCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}
