// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocreateai/cocreate-chat/internal/app"
	"github.com/cocreateai/cocreate-chat/internal/config"
	"github.com/cocreateai/cocreate-chat/internal/mention"
	"github.com/cocreateai/cocreate-chat/internal/model"
	"github.com/cocreateai/cocreate-chat/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

// testEnv opens an Env over a memory store. An empty backendURL runs
// offline.
func testEnv(t *testing.T, backendURL string, args Args) (*Env, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("COCREATE_HOME", t.TempDir())

	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Backend.HealthTimeoutSecs = 2
	cfg.Log.Level = "error"

	args.Offline = backendURL == ""
	args.Backend = backendURL
	env, err := OpenEnv(args, EnvOptions{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })

	var out, errOut bytes.Buffer
	env.Stdout = &out
	env.Stderr = &errOut
	return env, &out, &errOut
}

// fakeBackend serves /health, /api/chat and /api/ingest/conversation.
type fakeBackend struct {
	reply   string
	chats   atomic.Int32
	ingests atomic.Int32
	lastMsg atomic.Value
}

func (b *fakeBackend) start(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message   string `json:"message"`
			SessionID string `json:"session_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.chats.Add(1)
		b.lastMsg.Store(req.Message)
		json.NewEncoder(w).Encode(map[string]string{"response": b.reply, "session_id": req.SessionID})
	})
	mux.HandleFunc("/api/ingest/conversation", func(w http.ResponseWriter, r *http.Request) {
		b.ingests.Add(1)
		w.Write([]byte(`{"status":"ingested","nodes":3}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

// seedConversation stores a conversation with one user and one bot message.
func seedConversation(t *testing.T, store *storage.Store, question string) *model.Conversation {
	t.Helper()
	id, err := store.CreateConversation()
	require.NoError(t, err)
	require.NoError(t, store.AddMessage(id, model.NewUserMessage(question, mention.ExtractMentions(question))))
	require.NoError(t, store.AddMessage(id, model.NewBotMessage("All good.", []string{"Azure OpenAI"})))
	conv, ok := store.Conversation(id)
	require.True(t, ok)
	return conv
}

// scriptedInput feeds the REPL fixed lines, then EOF.
type scriptedInput struct {
	lines []string
}

func (s *scriptedInput) ReadInput(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

// =============================================================================
// ENV
// =============================================================================

func TestOpenEnv_OfflineHasNoGateway(t *testing.T) {
	env, _, _ := testEnv(t, "", Args{})

	assert.Nil(t, env.Client)
	assert.Nil(t, env.Gateway(), "a nil client must not hide inside the interface")
	assert.Nil(t, env.Ingester())
	assert.NotNil(t, env.Store)
	assert.Equal(t, 11, env.Catalog.Len())
}

func TestOpenEnv_FlagOverrides(t *testing.T) {
	env, _, _ := testEnv(t, "http://chat.example:9000", Args{Verbose: true})

	require.NotNil(t, env.Client)
	assert.Equal(t, "http://chat.example:9000", env.Client.BaseURL())
	assert.Equal(t, "debug", env.Config.Log.Level)
}

func TestOpenEnv_BadBackendURL(t *testing.T) {
	t.Setenv("COCREATE_HOME", t.TempDir())
	cfg := config.Default()
	cfg.Storage.Driver = "memory"

	_, err := OpenEnv(Args{Backend: "ftp://nope"}, EnvOptions{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestOpenEnv_MissingEntitiesFileFallsBack(t *testing.T) {
	t.Setenv("COCREATE_HOME", t.TempDir())
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Log.Level = "error"
	cfg.Chat.EntitiesFile = filepath.Join(t.TempDir(), "missing.toml")

	env, err := OpenEnv(Args{Offline: true}, EnvOptions{Config: cfg})
	require.NoError(t, err)
	defer env.Close()
	assert.Equal(t, 11, env.Catalog.Len())
}

func TestLoadConfig_FromPath(t *testing.T) {
	t.Setenv("COCREATE_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cocreate.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backend]\nurl = \"http://from-file:8000\"\n[ui]\ntheme = \"light\"\n"), 0600))

	cfg, err := LoadConfig(Args{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:8000", cfg.Backend.URL)
	assert.Equal(t, "light", cfg.UI.Theme)

	cfg, err = LoadConfig(Args{ConfigPath: path, Backend: "http://flag:1"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:1", cfg.Backend.URL, "flags win over the file")
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestConversations_List(t *testing.T) {
	env, out, _ := testEnv(t, "", Args{})
	conv := seedConversation(t, env.Store, "How is @[Atlas](project:1) doing?")

	require.NoError(t, RunConversations(context.Background(), env, []string{"list"}))
	text := out.String()
	assert.Contains(t, text, storage.ShortID(conv.ID))
	assert.Contains(t, text, "How is Atlas doing?")
	assert.Contains(t, text, "1 conversation(s)")
}

func TestConversations_ListJSON(t *testing.T) {
	env, out, _ := testEnv(t, "", Args{JSON: true})
	conv := seedConversation(t, env.Store, "hello")

	require.NoError(t, RunConversations(context.Background(), env, nil))

	var resp struct {
		Success bool                  `json:"success"`
		Data    []conversationSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, conv.ID, resp.Data[0].ID)
	assert.Equal(t, 2, resp.Data[0].Messages)
	assert.True(t, resp.Data[0].Current)
}

func TestConversations_ShowByPrefix(t *testing.T) {
	env, out, _ := testEnv(t, "", Args{})
	conv := seedConversation(t, env.Store, "Ping @[Ana Souza](person:1)")

	require.NoError(t, RunConversations(context.Background(), env, []string{"show", storage.ShortID(conv.ID)}))
	text := out.String()
	assert.Contains(t, text, conv.ID)
	assert.Contains(t, text, "@Ana Souza")
	assert.Contains(t, text, "Sources: Azure OpenAI")
}

func TestConversations_ShowUnknown(t *testing.T) {
	env, _, _ := testEnv(t, "", Args{})
	err := RunConversations(context.Background(), env, []string{"show", "nope"})
	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, ExitCode(err))
}

func TestConversations_DeleteNeedsConfirm(t *testing.T) {
	env, _, _ := testEnv(t, "", Args{})
	conv := seedConversation(t, env.Store, "hello")

	err := RunConversations(context.Background(), env, []string{"delete", conv.ID})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
	assert.Equal(t, 1, env.Store.Len())

	require.NoError(t, RunConversations(context.Background(), env, []string{"delete", "--confirm", conv.ID}))
	assert.Equal(t, 0, env.Store.Len())
	assert.Empty(t, env.Store.CurrentConversationID())
}

func TestConversations_NewSelectRenameKB(t *testing.T) {
	env, _, _ := testEnv(t, "", Args{})
	first := seedConversation(t, env.Store, "first")

	require.NoError(t, RunConversations(context.Background(), env, []string{"new"}))
	assert.NotEqual(t, first.ID, env.Store.CurrentConversationID())

	require.NoError(t, RunConversations(context.Background(), env, []string{"select", first.ID}))
	assert.Equal(t, first.ID, env.Store.CurrentConversationID())

	require.NoError(t, RunConversations(context.Background(), env, []string{"rename", first.ID, "Weekly", "sync"}))
	conv, _ := env.Store.Conversation(first.ID)
	assert.Equal(t, "Weekly sync", conv.GetTitle())

	require.NoError(t, RunConversations(context.Background(), env, []string{"kb"}))
	conv, _ = env.Store.Conversation(first.ID)
	assert.True(t, conv.KnowledgeBaseEnabled, "kb without an ID toggles the current conversation")

	err := RunConversations(context.Background(), env, []string{"rename", first.ID})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConversations_Export(t *testing.T) {
	env, out, _ := testEnv(t, "", Args{})
	conv := seedConversation(t, env.Store, "Export me")
	dir := t.TempDir()

	require.NoError(t, RunConversations(context.Background(), env,
		[]string{"export", conv.ID, "--format", "json", "--output", dir}))

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, out.String(), files[0])

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var back model.Conversation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, conv.ID, back.ID)

	err = RunConversations(context.Background(), env, []string{"export", conv.ID, "--format", "pdf"})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConversations_IngestOffline(t *testing.T) {
	env, _, _ := testEnv(t, "", Args{})
	seedConversation(t, env.Store, "hello")

	err := RunConversations(context.Background(), env, []string{"ingest"})
	require.ErrorIs(t, err, app.ErrNoIngester)
	assert.Equal(t, ExitNetworkError, ExitCode(err))
}

func TestConversations_IngestOnline(t *testing.T) {
	backend := &fakeBackend{}
	env, out, _ := testEnv(t, backend.start(t), Args{})
	conv := seedConversation(t, env.Store, "hello")

	require.NoError(t, RunConversations(context.Background(), env, []string{"ingest", conv.ID}))
	assert.Equal(t, int32(1), backend.ingests.Load())
	assert.Contains(t, out.String(), "knowledge base")
}

func TestConversations_UnknownSubcommand(t *testing.T) {
	env, _, _ := testEnv(t, "", Args{})
	err := RunConversations(context.Background(), env, []string{"frob"})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

// =============================================================================
// ENTITIES, STATUS, CONFIG
// =============================================================================

func TestEntities_Search(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunEntities(config.Default(), Args{Raw: []string{"ana"}}, &out))
	assert.Contains(t, out.String(), "Ana Souza")
	assert.Contains(t, out.String(), "@[Ana Souza](person:1)")

	out.Reset()
	require.NoError(t, RunEntities(config.Default(), Args{Raw: []string{"zzzzzz"}}, &out))
	assert.Contains(t, out.String(), "No matching entities")
}

func TestEntities_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunEntities(config.Default(), Args{JSON: true, Raw: []string{"agent:", "--limit", "1"}}, &out))

	var resp struct {
		Data []entityResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "agent", resp.Data[0].Type)
}

func TestStatus_Offline(t *testing.T) {
	env, out, _ := testEnv(t, "", Args{JSON: true})
	seedConversation(t, env.Store, "hello")

	require.NoError(t, RunStatus(context.Background(), env))
	var resp struct {
		Data StatusReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Data.Offline)
	assert.False(t, resp.Data.BackendOK)
	assert.Equal(t, 1, resp.Data.Conversations)
	assert.Equal(t, "memory", resp.Data.StorageDriver)
	assert.Empty(t, resp.Data.StoragePath)
}

func TestStatus_Online(t *testing.T) {
	backend := &fakeBackend{}
	env, out, _ := testEnv(t, backend.start(t), Args{})

	require.NoError(t, RunStatus(context.Background(), env))
	assert.Contains(t, out.String(), "yes (")

	report := GatherStatus(context.Background(), env)
	assert.True(t, report.BackendOK)
	assert.Equal(t, "healthy", report.BackendStatus)
}

func TestStatus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	env, _, _ := testEnv(t, url, Args{})
	report := GatherStatus(context.Background(), env)
	assert.False(t, report.BackendOK)
	assert.NotEmpty(t, report.BackendError)
}

func TestConfig_GetSet(t *testing.T) {
	t.Setenv("COCREATE_HOME", t.TempDir())
	cfg := config.Default()
	var out bytes.Buffer
	var saved *config.Config
	save := func(c *config.Config) error {
		saved = c
		return nil
	}

	require.NoError(t, RunConfig(cfg, Args{Raw: []string{"get", "backend.url"}}, &out, save))
	assert.Equal(t, config.DefaultBackendURL+"\n", out.String())

	require.NoError(t, RunConfig(cfg, Args{Raw: []string{"set", "ui.panel_width", "64"}}, &out, save))
	require.NotNil(t, saved)
	assert.Equal(t, 64, saved.UI.PanelWidth)
	assert.Equal(t, 56, cfg.UI.PanelWidth, "the loaded config is not mutated")

	require.NoError(t, RunConfig(cfg, Args{Raw: []string{"set", "chat.offline_sources", "Cache,Disk"}}, &out, save))
	assert.Equal(t, []string{"Cache", "Disk"}, saved.Chat.OfflineSources)

	err := RunConfig(cfg, Args{Raw: []string{"set", "ui.show_sidebar", "perhaps"}}, &out, save)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = RunConfig(cfg, Args{Raw: []string{"get", "nope.key"}}, &out, save)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = RunConfig(cfg, Args{Raw: []string{"set", "backend.url"}}, &out, save)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConfig_ShowAndKeys(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default()

	require.NoError(t, RunConfig(cfg, Args{Raw: []string{"show"}}, &out, nil))
	assert.Contains(t, out.String(), "[backend]")

	out.Reset()
	require.NoError(t, RunConfig(cfg, Args{Raw: []string{"keys"}}, &out, nil))
	assert.Contains(t, out.String(), "storage.driver\n")
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PrintVersion(&out, false))
	assert.True(t, strings.HasPrefix(out.String(), "cocreate "+Version))

	out.Reset()
	require.NoError(t, PrintVersion(&out, true))
	var resp struct {
		Data VersionInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, Version, resp.Data.Version)
}

// =============================================================================
// REPL
// =============================================================================

func newTestREPL(t *testing.T, backendURL string) (*ChatREPL, *Env, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	env, out, errOut := testEnv(t, backendURL, Args{})

	var repl *ChatREPL
	chatOpts := env.ChatOptions()
	chatOpts.OnError = func(err error) { repl.lastErr = err }
	ws := env.NewWorkspace(context.Background(), chatOpts, false, nil)
	t.Cleanup(func() { ws.Close() })
	repl = NewChatREPL(ws, env)
	return repl, env, out, errOut
}

func TestREPL_OfflineSend(t *testing.T) {
	repl, env, out, _ := newTestREPL(t, "")

	input := &scriptedInput{lines: []string{"", "hello there", "/list", "/quit", "never read"}}
	require.NoError(t, repl.Run(context.Background(), input))

	text := out.String()
	assert.Contains(t, text, "[!] offline")
	assert.Contains(t, text, env.Config.Chat.WelcomeMessage)
	assert.Contains(t, text, env.Config.OfflineNotice())
	assert.Contains(t, text, "Sources: Local System")
	assert.Contains(t, text, "Conversation saved:")
	assert.Equal(t, []string{"never read"}, input.lines)

	conv, ok := env.Store.Current()
	require.True(t, ok)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "hello there", conv.Messages[0].Content)
	assert.Contains(t, text, storage.ShortID(conv.ID))
}

func TestREPL_OnlineSendWithMentionToken(t *testing.T) {
	backend := &fakeBackend{reply: "@[Atlas](project:1) ships Friday"}
	repl, env, out, _ := newTestREPL(t, backend.start(t))

	input := &scriptedInput{lines: []string{"When does @[Atlas](project:1) ship?"}}
	require.NoError(t, repl.Run(context.Background(), input))

	assert.Equal(t, int32(1), backend.chats.Load())
	assert.Equal(t, "When does @[Atlas](project:1) ship?", backend.lastMsg.Load())
	assert.Contains(t, out.String(), "@Atlas ships Friday")
	assert.Contains(t, out.String(), "[OK]")

	conv, ok := env.Store.Current()
	require.True(t, ok)
	require.Len(t, conv.Messages[0].Mentions, 1)
	assert.Equal(t, "Atlas", conv.Messages[0].Mentions[0].Name)
}

func TestREPL_Commands(t *testing.T) {
	repl, env, out, errOut := newTestREPL(t, "")

	input := &scriptedInput{lines: []string{
		"first question",
		"/kb",
		"/rename Planning",
		"/new",
		"/entities ana",
		"/switch nope",
		"/bogus",
		"/help",
		"exit",
	}}
	require.NoError(t, repl.Run(context.Background(), input))

	text := out.String()
	assert.Contains(t, text, "Knowledge base enabled")
	assert.Contains(t, text, "Renamed")
	assert.Contains(t, text, "Started conversation")
	assert.Contains(t, text, "Ana Souza")
	assert.Contains(t, text, "/export [markdown|html|json]")
	assert.Contains(t, errOut.String(), "conversation not found")
	assert.Contains(t, errOut.String(), "unknown command /bogus")

	assert.Equal(t, 2, env.Store.Len())
	var titles []string
	for _, c := range env.Store.List() {
		titles = append(titles, c.GetTitle())
	}
	assert.Contains(t, titles, "Planning")
}

func TestREPL_RateReplies(t *testing.T) {
	repl, env, out, errOut := newTestREPL(t, "")

	input := &scriptedInput{lines: []string{
		"/like",
		"first question",
		"second question",
		"/like",
		"/dislike 2",
		"/like",
		"/rate meh",
		"/rate bad 1",
		"/like 9",
		"/history",
	}}
	require.NoError(t, repl.Run(context.Background(), input))

	text := out.String()
	assert.Contains(t, text, "Marked as helpful")
	assert.Contains(t, text, "Marked as unhelpful")
	assert.Contains(t, text, "Rating cleared")
	assert.Contains(t, text, "Rated: negative")
	assert.Contains(t, errOut.String(), "no reply to rate")
	assert.Contains(t, errOut.String(), `unknown rating "meh"`)

	conv, ok := env.Store.Current()
	require.True(t, ok)
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, model.FeedbackNegative, conv.Messages[1].Feedback)
	assert.Equal(t, model.FeedbackNegative, conv.Messages[3].Feedback)
}

func TestREPL_ExportWritesFile(t *testing.T) {
	repl, _, out, _ := newTestREPL(t, "")
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	input := &scriptedInput{lines: []string{"hello", "/export html"}}
	require.NoError(t, repl.Run(context.Background(), input))

	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Contains(t, out.String(), "Exported to")
}
