// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// conversations.go - The conversations command.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/cocreateai/cocreate-chat/internal/export"
	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/storage"
)

// conversationSummary is the JSON form of a listed conversation.
type conversationSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Messages      int       `json:"messages"`
	KnowledgeBase bool      `json:"knowledge_base_enabled"`
	Current       bool      `json:"current"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func summarize(conv *model.Conversation, currentID string) conversationSummary {
	return conversationSummary{
		ID:            conv.ID,
		Title:         mention.Humanize(conv.GetTitle()),
		Messages:      conv.MessageCount(),
		KnowledgeBase: conv.KnowledgeBaseEnabled,
		Current:       conv.ID == currentID,
		CreatedAt:     conv.CreatedAt,
		UpdatedAt:     conv.UpdatedAt,
	}
}

// HandleConversations runs a conversations subcommand.
func HandleConversations(ctx context.Context, args Args) error {
	SetupColors(args.NoColor)
	env, err := OpenEnv(args, EnvOptions{})
	if err != nil {
		return err
	}
	defer env.Close()
	return RunConversations(ctx, env, args.Raw)
}

// RunConversations runs a conversations subcommand against an open Env.
func RunConversations(ctx context.Context, env *Env, raw []string) error {
	p := NewArgParser(raw, "confirm", "open", "json")
	jsonMode := env.Args.JSON || p.BoolFlag("json")

	switch p.Subcommand() {
	case "", "list", "ls":
		return conversationsList(env, jsonMode)
	case "show", "cat":
		return conversationsShow(env, p, jsonMode)
	case "new":
		return conversationsNew(env, jsonMode)
	case "select", "switch":
		return conversationsSelect(env, p)
	case "rename":
		return conversationsRename(env, p)
	case "kb", "knowledge":
		return conversationsKnowledge(env, p)
	case "delete", "rm":
		return conversationsDelete(env, p)
	case "export":
		return conversationsExport(env, p, jsonMode)
	case "ingest", "upload":
		return conversationsIngest(ctx, env, p, jsonMode)
	default:
		return NewUsageError(fmt.Sprintf("unknown conversations subcommand %q", p.Subcommand()),
			"cocreate conversations [list|show|new|select|rename|kb|delete|export|ingest]")
	}
}

// resolveArg resolves the ID at positional index 1, falling back to the
// current conversation when allowCurrent is set.
func resolveArg(env *Env, p *ArgParser, action string, allowCurrent bool) (*model.Conversation, error) {
	id := p.Positional(1)
	if id == "" {
		if allowCurrent {
			if conv, ok := env.Store.Current(); ok {
				return conv, nil
			}
		}
		return nil, NewUsageError("missing conversation ID", "cocreate conversations "+action+" <id>")
	}
	conv, err := env.Store.Resolve(id)
	return conv, wrap("conversations", action, err)
}

func conversationsList(env *Env, jsonMode bool) error {
	convs := env.Store.List()
	currentID := env.Store.CurrentConversationID()

	if jsonMode {
		out := make([]conversationSummary, 0, len(convs))
		for _, conv := range convs {
			out = append(out, summarize(conv, currentID))
		}
		return writeJSON(env.Stdout, "conversations list", out)
	}

	fmt.Fprint(env.Stdout, storage.FormatList(convs, currentID))
	if len(convs) > 0 && !env.Args.Quiet {
		color.New(color.Faint).Fprintf(env.Stdout, "%d conversation(s), * marks the current one\n", len(convs))
	}
	return nil
}

func conversationsShow(env *Env, p *ArgParser, jsonMode bool) error {
	conv, err := resolveArg(env, p, "show", true)
	if err != nil {
		return err
	}
	if jsonMode {
		data, err := export.NewJSONExporter(export.DefaultOptions()).Export(conv)
		if err != nil {
			return wrap("conversations", "show", err)
		}
		_, err = fmt.Fprintf(env.Stdout, "%s\n", data)
		return err
	}

	fmt.Fprintln(env.Stdout, TitleStyle.Render(mention.Humanize(conv.GetTitle())))
	printField(env.Stdout, "ID", conv.ID)
	printField(env.Stdout, "Created", conv.CreatedAt.Local().Format("2006-01-02 15:04"))
	printField(env.Stdout, "Updated", conv.UpdatedAt.Local().Format("2006-01-02 15:04"))
	printField(env.Stdout, "Messages", conv.MessageCount())
	printField(env.Stdout, "Knowledge", onOff(conv.KnowledgeBaseEnabled))
	fmt.Fprintln(env.Stdout, RenderSeparator(60))
	for _, msg := range conv.Messages {
		printMessage(env.Stdout, msg)
		fmt.Fprintln(env.Stdout)
	}
	return nil
}

func conversationsNew(env *Env, jsonMode bool) error {
	id, err := env.Store.CreateConversation()
	if err != nil {
		return wrap("conversations", "new", err)
	}
	if jsonMode {
		return writeJSON(env.Stdout, "conversations new", map[string]string{"id": id})
	}
	color.New(color.FgGreen).Fprintf(env.Stdout, "Created conversation %s\n", storage.ShortID(id))
	return nil
}

func conversationsSelect(env *Env, p *ArgParser) error {
	conv, err := resolveArg(env, p, "select", false)
	if err != nil {
		return err
	}
	if err := env.Store.SetCurrentConversationID(conv.ID); err != nil {
		return wrap("conversations", "select", err)
	}
	color.New(color.FgGreen).Fprintf(env.Stdout, "Current conversation: %s\n", mention.Humanize(conv.GetTitle()))
	return nil
}

func conversationsRename(env *Env, p *ArgParser) error {
	title := strings.TrimSpace(strings.Join(p.PositionalFrom(2), " "))
	if p.Positional(1) == "" || title == "" {
		return NewUsageError("missing conversation ID or title", "cocreate conversations rename <id> <title>")
	}
	conv, err := resolveArg(env, p, "rename", false)
	if err != nil {
		return err
	}
	if err := env.Store.RenameConversation(conv.ID, title); err != nil {
		return wrap("conversations", "rename", err)
	}
	color.New(color.FgGreen).Fprintf(env.Stdout, "Renamed %s to %q\n", storage.ShortID(conv.ID), title)
	return nil
}

func conversationsKnowledge(env *Env, p *ArgParser) error {
	conv, err := resolveArg(env, p, "kb", true)
	if err != nil {
		return err
	}
	enabled, err := env.Store.ToggleKnowledgeBase(conv.ID)
	if err != nil {
		return wrap("conversations", "kb", err)
	}
	fmt.Fprintf(env.Stdout, "Knowledge base %s for %s\n", onOff(enabled), storage.ShortID(conv.ID))
	return nil
}

func conversationsDelete(env *Env, p *ArgParser) error {
	conv, err := resolveArg(env, p, "delete", false)
	if err != nil {
		return err
	}
	if !p.BoolFlag("confirm") {
		return NewUsageError(
			fmt.Sprintf("deleting %q cannot be undone; add --confirm", mention.Humanize(conv.GetTitle())),
			"cocreate conversations delete <id> --confirm")
	}
	if err := env.Store.DeleteConversation(conv.ID); err != nil {
		return wrap("conversations", "delete", err)
	}
	color.New(color.FgYellow).Fprintf(env.Stdout, "Deleted conversation %s\n", storage.ShortID(conv.ID))
	return nil
}

func conversationsExport(env *Env, p *ArgParser, jsonMode bool) error {
	conv, err := resolveArg(env, p, "export", true)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.OutputDir = p.FlagOrDefault("output", opts.OutputDir)
	opts.OpenAfterExport = p.BoolFlag("open")
	if env.Config.UI.Theme == "light" {
		opts.Theme = "light"
	}
	exporter, err := export.ForFormat(p.FlagOrDefault("format", "markdown"), opts)
	if err != nil {
		return NewUsageError(err.Error(), "--format "+strings.Join(export.Formats, "|"))
	}

	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return wrap("conversations", "export", err)
	}
	if jsonMode {
		return writeJSON(env.Stdout, "conversations export", map[string]string{"id": conv.ID, "path": path})
	}
	color.New(color.FgGreen).Fprintf(env.Stdout, "Exported to %s\n", path)
	return nil
}

func conversationsIngest(ctx context.Context, env *Env, p *ArgParser, jsonMode bool) error {
	conv, err := resolveArg(env, p, "ingest", true)
	if err != nil {
		return err
	}
	ws := env.NewWorkspace(ctx, env.ChatOptions(), false, nil)
	defer ws.Close()

	result, err := ws.Ingest(ctx, conv.ID)
	if err != nil {
		return wrap("conversations", "ingest", err)
	}
	if jsonMode {
		return writeJSON(env.Stdout, "conversations ingest", result)
	}
	color.New(color.FgGreen).Fprintf(env.Stdout, "Uploaded %s (%d messages) to the knowledge base\n",
		storage.ShortID(conv.ID), conv.MessageCount())
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
