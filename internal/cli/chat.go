// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-oriented chat with input history.
//
// The REPL drives the same Workspace as the TUI. Tab completes "@name" to a
// mention token from the entity catalog.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/cocreateai/cocreate-chat/internal/app"
	"github.com/cocreateai/cocreate-chat/internal/config"
	"github.com/cocreateai/cocreate-chat/internal/entity"
	"github.com/cocreateai/cocreate-chat/internal/export"
	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/storage"
	"github.com/cocreateai/cocreate-chat/internal/ui/styles"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor with history loaded from historyFile and
// mention completion over catalog.
func NewChatCLI(historyFile string, catalog *entity.Catalog) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	if catalog != nil {
		line.SetWordCompleter(MentionCompleter(catalog))
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with the given prompt. Non-blank input is added to
// the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists the history, readable by the owner only.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// historyPath returns the REPL history file in the config directory.
func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// =============================================================================
// MENTION COMPLETION
// =============================================================================

// MentionCompleter completes the "@query" word under the cursor to the
// mention tokens of the best catalog matches.
func MentionCompleter(catalog *entity.Catalog) liner.WordCompleter {
	return func(line string, pos int) (string, []string, string) {
		runes := []rune(line)
		if pos > len(runes) {
			pos = len(runes)
		}
		start := pos
		for start > 0 && runes[start-1] != '@' && runes[start-1] != ' ' && runes[start-1] != '\t' {
			start--
		}
		if start == 0 || runes[start-1] != '@' {
			return line, nil, ""
		}
		at := start - 1
		if at > 0 && !isMentionBoundary(runes[at-1]) {
			return line, nil, ""
		}

		query := string(runes[start:pos])
		matches := catalog.Search(query, entity.DefaultSearchLimit)
		completions := make([]string, 0, len(matches))
		for _, m := range matches {
			completions = append(completions, m.Entity.Token()+" ")
		}
		return string(runes[:at]), completions, string(runes[pos:])
	}
}

func isMentionBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '(', '[', '{', '"', '\'':
		return true
	}
	return false
}

// =============================================================================
// SESSION
// =============================================================================

// ChatREPL is an interactive chat over a Workspace.
type ChatREPL struct {
	ws    *app.Workspace
	env   *Env
	out   io.Writer
	quiet bool

	// lastErr is the most recent backend or persistence error
	lastErr error
}

// NewChatREPL creates a REPL over ws. Output goes to env.Stdout.
func NewChatREPL(ws *app.Workspace, env *Env) *ChatREPL {
	return &ChatREPL{ws: ws, env: env, out: env.Stdout, quiet: env.Args.Quiet}
}

// HandleChat runs the interactive chat until the user quits.
func HandleChat(ctx context.Context, args Args) error {
	SetupColors(args.NoColor)

	env, err := OpenEnv(args, EnvOptions{LogToFile: true})
	if err != nil {
		return err
	}
	defer env.Close()

	var repl *ChatREPL
	chatOpts := env.ChatOptions()
	chatOpts.OnError = func(err error) {
		if repl != nil {
			repl.lastErr = err
		}
	}
	ws := env.NewWorkspace(ctx, chatOpts, false, nil)
	defer ws.Close()
	repl = NewChatREPL(ws, env)

	input := NewChatCLI(historyPath(), env.Catalog)
	defer input.Close()

	return repl.Run(ctx, input)
}

// lineReader is the part of ChatCLI the loop needs.
type lineReader interface {
	ReadInput(prompt string) (string, error)
}

// Run prints the banner and processes input until EOF, Ctrl+C or /quit.
func (r *ChatREPL) Run(ctx context.Context, input lineReader) error {
	r.printBanner(ctx)

	for {
		line, err := input.ReadInput(PromptStyle.Render("cocreate> "))
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed stdin all end the session.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				r.env.Logger.Debug("input closed", "err", err)
			}
			fmt.Fprintln(r.out)
			r.printExitSummary()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if !r.handleCommand(ctx, line) {
				r.printExitSummary()
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			r.printExitSummary()
			return nil
		}

		r.send(ctx, line)
	}
}

func (r *ChatREPL) printBanner(ctx context.Context) {
	fmt.Fprintln(r.out, TitleStyle.Render("CoCreateAI chat"))
	if !r.quiet {
		fmt.Fprintln(r.out, DimStyle.Render("Type @ and press Tab to mention an entity, /help for commands."))
	}

	// Give the startup probe a moment so the status line is accurate.
	select {
	case <-r.ws.Session().ProbeDone():
	case <-ctx.Done():
	case <-time.After(time.Duration(r.env.Config.Backend.HealthTimeoutSecs) * time.Second):
	}
	if r.ws.Session().BackendAvailable() {
		fmt.Fprintln(r.out, SuccessStyle.Render("[OK]")+" "+DimStyle.Render("backend "+r.env.Config.Backend.URL))
	} else {
		fmt.Fprintln(r.out, WarningStyle.Render("[!] offline"))
	}
	fmt.Fprintln(r.out)
	r.printTranscript()
}

// printTranscript prints every message of the session.
func (r *ChatREPL) printTranscript() {
	for _, msg := range r.ws.Session().Messages() {
		printMessage(r.out, msg)
		fmt.Fprintln(r.out)
	}
}

// send runs one send cycle. Ctrl+C during the request cancels it.
func (r *ChatREPL) send(ctx context.Context, text string) {
	sendCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	before := len(r.ws.Session().Messages())
	r.lastErr = nil
	stopSpinner := r.startSpinner()

	err := r.ws.Send(sendCtx, text)
	stopSpinner()
	if err != nil {
		PrintError(r.env.Stderr, err)
		return
	}

	msgs := r.ws.Session().Messages()
	if before > len(msgs) {
		before = 0
	}
	for _, msg := range msgs[before:] {
		if msg.IsUser() {
			continue
		}
		printMessage(r.out, msg)
	}
	if r.lastErr != nil && !r.quiet {
		fmt.Fprintln(r.out, DimStyle.Render("("+r.lastErr.Error()+")"))
	}
	fmt.Fprintln(r.out)
}

// startSpinner shows a "Thinking" line until the returned func is called.
// Output that is not a terminal gets a single static line.
func (r *ChatREPL) startSpinner() func() {
	if r.quiet {
		return func() {}
	}
	const label = " Thinking..."
	erase := func() { fmt.Fprint(r.out, "\r"+strings.Repeat(" ", len(label)+2)+"\r") }

	if !IsStdoutTTY() {
		fmt.Fprint(r.out, DimStyle.Render(strings.TrimSpace(label))+"\r")
		return erase
	}

	spin := styles.LineSpinner
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		start := time.Now()
		ticker := time.NewTicker(spin.Duration())
		defer ticker.Stop()
		for {
			fmt.Fprint(r.out, "\r"+PromptStyle.Render(spin.Frame(time.Since(start)))+DimStyle.Render(label))
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()
	return func() {
		close(done)
		<-finished
		erase()
	}
}

func (r *ChatREPL) printExitSummary() {
	conv, ok := r.ws.Store().Current()
	if !ok || r.quiet {
		return
	}
	fmt.Fprintf(r.out, "%s %s (%d messages)\n",
		DimStyle.Render("Conversation saved:"),
		storage.ShortID(conv.ID),
		conv.MessageCount())
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// replCommand is one slash command of the REPL.
type replCommand struct {
	name    string
	aliases []string
	usage   string
	desc    string
	run     func(r *ChatREPL, ctx context.Context, args []string) (bool, error)
}

var replCommands []replCommand

func init() {
	replCommands = []replCommand{
		{"help", []string{"h", "?"}, "/help", "list commands", (*ChatREPL).cmdHelp},
		{"new", []string{"n"}, "/new", "start a new conversation", (*ChatREPL).cmdNew},
		{"list", []string{"ls"}, "/list", "list conversations", (*ChatREPL).cmdList},
		{"switch", []string{"open", "select"}, "/switch <id>", "switch to a conversation", (*ChatREPL).cmdSwitch},
		{"rename", []string{"title"}, "/rename <title>", "rename the current conversation", (*ChatREPL).cmdRename},
		{"kb", []string{"knowledge"}, "/kb", "toggle the knowledge base", (*ChatREPL).cmdKnowledge},
		{"like", []string{"good", "up"}, "/like [n]", "rate the latest (or nth latest) reply as helpful", (*ChatREPL).cmdLike},
		{"dislike", []string{"bad", "down"}, "/dislike [n]", "rate the latest (or nth latest) reply as unhelpful", (*ChatREPL).cmdDislike},
		{"rate", nil, "/rate <positive|negative> [n]", "rate a reply; the same rating again clears it", (*ChatREPL).cmdRate},
		{"delete", []string{"del"}, "/delete", "delete the current conversation", (*ChatREPL).cmdDelete},
		{"export", []string{"e"}, "/export [markdown|html|json]", "export the current conversation", (*ChatREPL).cmdExport},
		{"ingest", []string{"upload"}, "/ingest", "add the conversation to the knowledge base", (*ChatREPL).cmdIngest},
		{"entities", []string{"who"}, "/entities [query]", "search mentionable entities", (*ChatREPL).cmdEntities},
		{"history", []string{"show"}, "/history", "print the current conversation", (*ChatREPL).cmdHistory},
		{"quit", []string{"q", "exit"}, "/quit", "leave the chat", (*ChatREPL).cmdQuit},
	}
}

func findReplCommand(name string) (replCommand, bool) {
	for _, c := range replCommands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return replCommand{}, false
}

// handleCommand runs a slash command and reports whether the REPL should
// continue.
func (r *ChatREPL) handleCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	cmd, ok := findReplCommand(name)
	if !ok {
		PrintError(r.env.Stderr, fmt.Errorf("unknown command /%s, try /help", name))
		return true
	}
	cont, err := cmd.run(r, ctx, parts[1:])
	if err != nil {
		if errors.Is(err, app.ErrBusy) {
			err = errors.New("wait for the pending reply to finish")
		}
		PrintError(r.env.Stderr, err)
	}
	return cont
}

func (r *ChatREPL) cmdHelp(_ context.Context, _ []string) (bool, error) {
	for _, c := range replCommands {
		fmt.Fprintf(r.out, "  %-30s %s\n", c.usage, DimStyle.Render(c.desc))
	}
	return true, nil
}

func (r *ChatREPL) cmdNew(_ context.Context, _ []string) (bool, error) {
	id, err := r.ws.NewConversation()
	if err != nil {
		return true, err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Started conversation "+storage.ShortID(id)))
	r.printTranscript()
	return true, nil
}

func (r *ChatREPL) cmdList(_ context.Context, _ []string) (bool, error) {
	fmt.Fprint(r.out, storage.FormatList(r.ws.Conversations(), r.ws.CurrentConversationID()))
	return true, nil
}

func (r *ChatREPL) cmdSwitch(_ context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return true, NewUsageError("missing conversation ID", "/switch <id>")
	}
	conv, err := r.ws.Store().Resolve(args[0])
	if err != nil {
		return true, err
	}
	if err := r.ws.SelectConversation(conv.ID); err != nil {
		return true, err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Switched to "+mention.Humanize(conv.GetTitle())))
	fmt.Fprintln(r.out)
	r.printTranscript()
	return true, nil
}

func (r *ChatREPL) cmdRename(_ context.Context, args []string) (bool, error) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return true, NewUsageError("missing title", "/rename <title>")
	}
	id := r.ws.CurrentConversationID()
	if id == "" {
		return true, errors.New("no conversation to rename")
	}
	if err := r.ws.RenameConversation(id, title); err != nil {
		return true, err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Renamed"))
	return true, nil
}

func (r *ChatREPL) cmdKnowledge(_ context.Context, _ []string) (bool, error) {
	enabled, err := r.ws.ToggleKnowledgeBase()
	if err != nil {
		return true, err
	}
	if enabled {
		fmt.Fprintln(r.out, SuccessStyle.Render("Knowledge base enabled"))
	} else {
		fmt.Fprintln(r.out, WarningStyle.Render("Knowledge base disabled"))
	}
	return true, nil
}

func (r *ChatREPL) cmdLike(_ context.Context, args []string) (bool, error) {
	return true, r.rate(model.FeedbackPositive, args)
}

func (r *ChatREPL) cmdDislike(_ context.Context, args []string) (bool, error) {
	return true, r.rate(model.FeedbackNegative, args)
}

func (r *ChatREPL) cmdRate(_ context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return true, NewUsageError("missing rating", "/rate <positive|negative> [n]")
	}
	fb, ok := model.ParseFeedback(args[0])
	if !ok {
		return true, NewUsageError(fmt.Sprintf("unknown rating %q", args[0]), "/rate <positive|negative> [n]")
	}
	return true, r.rate(fb, args[1:])
}

// rate applies a rating to the nth latest reply; n defaults to 1.
func (r *ChatREPL) rate(fb model.Feedback, args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return NewUsageError(fmt.Sprintf("invalid reply number %q", args[0]), "/like [n]")
		}
		n = v
	}
	msg, err := r.ws.RateReply(n, fb)
	if err != nil {
		return err
	}
	switch msg.Feedback {
	case model.FeedbackNone:
		fmt.Fprintln(r.out, DimStyle.Render("Rating cleared"))
	case model.FeedbackPositive:
		fmt.Fprintln(r.out, SuccessStyle.Render("Marked as helpful"))
	default:
		fmt.Fprintln(r.out, WarningStyle.Render("Marked as unhelpful"))
	}
	return nil
}

func (r *ChatREPL) cmdDelete(_ context.Context, _ []string) (bool, error) {
	id := r.ws.CurrentConversationID()
	if id == "" {
		return true, errors.New("no conversation to delete")
	}
	if err := r.ws.DeleteConversation(id); err != nil {
		return true, err
	}
	fmt.Fprintln(r.out, WarningStyle.Render("Deleted conversation "+storage.ShortID(id)))
	return true, nil
}

func (r *ChatREPL) cmdExport(_ context.Context, args []string) (bool, error) {
	format := "markdown"
	if len(args) > 0 {
		format = args[0]
	}
	conv, ok := r.ws.Store().Current()
	if !ok {
		return true, errors.New("no conversation to export")
	}
	opts := export.DefaultOptions()
	opts.OpenAfterExport = false
	if r.env.Config.UI.Theme == "light" {
		opts.Theme = "light"
	}
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return true, err
	}
	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return true, err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Exported to "+path))
	return true, nil
}

func (r *ChatREPL) cmdIngest(ctx context.Context, _ []string) (bool, error) {
	id := r.ws.CurrentConversationID()
	if id == "" {
		return true, errors.New("no conversation to upload")
	}
	if _, err := r.ws.Ingest(ctx, id); err != nil {
		return true, err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Conversation added to the knowledge base"))
	return true, nil
}

func (r *ChatREPL) cmdEntities(_ context.Context, args []string) (bool, error) {
	printEntityMatches(r.out, r.ws.Catalog().Search(strings.Join(args, " "), entity.DefaultSearchLimit))
	return true, nil
}

func (r *ChatREPL) cmdHistory(_ context.Context, _ []string) (bool, error) {
	r.printTranscript()
	return true, nil
}

func (r *ChatREPL) cmdQuit(_ context.Context, _ []string) (bool, error) {
	return false, nil
}
