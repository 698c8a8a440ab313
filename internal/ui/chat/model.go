// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"

	"github.com/cocreateai/cocreate-chat/internal/app"
	"github.com/cocreateai/cocreate-chat/internal/config"
	"github.com/cocreateai/cocreate-chat/internal/ui/styles"
)

// Layout constants.
const (
	// SidebarWidth is the width of the conversation list, border included
	SidebarWidth = 30

	// PanelStep is how many columns one resize key press adds or removes
	PanelStep = 4

	headerHeight = 1
	inputHeight  = 2 // separator + input line
	statusHeight = 1
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat view.
type Options struct {
	// Context bounds every backend call made from the view
	Context context.Context

	// Theme styles the view; nil uses the configured UI theme
	Theme *styles.Theme

	// UI holds panel sizes, sidebar and markdown settings
	UI config.UIConfig

	// Notifier delivers workspace callbacks; the same notifier must be
	// wired into app.Options.OnChange and the chat OnError
	Notifier *Notifier

	// ExportDir receives /export output
	ExportDir string

	// Logger receives diagnostics; nil discards them
	Logger *log.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ws       *app.Workspace
	ctx      context.Context
	theme    *styles.Theme
	notifier *Notifier
	logger   *log.Logger

	// Components
	keyMap   KeyMap
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Markdown rendering for bot replies
	renderMarkdown bool
	renderer       *glamour.TermRenderer
	rendererWidth  int

	// Dimensions
	width         int
	height        int
	panelWidth    int
	minPanelWidth int
	maxPanelWidth int
	showSidebar   bool
	showHelp      bool

	completion completionState

	// sending is true from Enter until SendCompleteMsg
	sending bool

	// confirmDelete arms the delete key for a second press
	confirmDelete bool

	exportDir string

	// Transient status line
	notice      string
	noticeError bool
}

// New creates the chat view over a workspace.
func New(ws *app.Workspace, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ui := opts.UI
	defaults := config.Default().UI
	if ui.MinPanelWidth <= 0 {
		ui.MinPanelWidth = defaults.MinPanelWidth
	}
	if ui.MaxPanelWidth < ui.MinPanelWidth {
		ui.MaxPanelWidth = ui.MinPanelWidth
	}
	if ui.PanelWidth <= 0 {
		ui.PanelWidth = defaults.PanelWidth
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(ui.Theme)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Placeholder = "Ask something... type @ to mention"
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(ui.PanelWidth, 10)

	sp := spinner.New()
	sp.Spinner = styles.DotsSpinner.Bubble()
	sp.Style = theme.Spinner

	h := help.New()
	h.Styles.ShortKey = theme.ShortcutKey
	h.Styles.ShortDesc = theme.ShortcutDesc
	h.Styles.FullKey = theme.ShortcutKey
	h.Styles.FullDesc = theme.ShortcutDesc

	m := Model{
		ws:             ws,
		ctx:            ctx,
		theme:          theme,
		notifier:       opts.Notifier,
		logger:         logger,
		keyMap:         DefaultKeyMap(),
		help:           h,
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		renderMarkdown: ui.RenderMarkdown,
		panelWidth:     clamp(ui.PanelWidth, ui.MinPanelWidth, ui.MaxPanelWidth),
		minPanelWidth:  ui.MinPanelWidth,
		maxPanelWidth:  ui.MaxPanelWidth,
		showSidebar:    ui.ShowSidebar,
		completion:     newCompletionState(),
		exportDir:      exportDir,
	}
	m.layout()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts cursor blinking, the workspace listener and the wait for the
// backend probe.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.waitForProbe()}
	if m.notifier != nil {
		cmds = append(cmds, m.notifier.Wait())
	}
	if m.ws.Session().IsLoading() {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshMessages()
		return m, cmd

	case WorkspaceChangedMsg:
		m.refreshMessages()
		return m, m.listen()

	case WorkspaceErrorMsg:
		m.logger.Warn("workspace error", "err", msg.Err)
		m.setError(msg.Err.Error())
		return m, m.listen()

	case SendCompleteMsg:
		return m.handleSendComplete(msg)

	case BackendProbedMsg:
		m.refreshMessages()
		return m, nil

	case ExportCompleteMsg:
		if msg.Err != nil {
			m.setError("Export failed: " + msg.Err.Error())
		} else {
			m.setNotice("Exported to " + msg.Path)
		}
		return m, nil

	case IngestCompleteMsg:
		if msg.Err != nil {
			m.setError("Upload failed: " + msg.Err.Error())
		} else {
			m.setNotice("Conversation added to the knowledge base")
		}
		return m, nil
	}

	return m, nil
}

// View renders the chat interface.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport and input for the current window and panel width.
func (m *Model) layout() {
	panel := m.chatWidth()

	reserved := headerHeight + inputHeight + statusHeight
	if m.showHelp {
		reserved += len(m.keyMap.FullHelp()[0])
	}
	if m.completion.visible {
		reserved += m.completionHeight()
	}
	height := m.height - reserved
	if height < 1 {
		height = 1
	}

	m.viewport.Width = panel
	m.viewport.Height = height

	const promptLen = 2 // "> "
	inputWidth := panel - 2 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
	m.help.Width = m.width

	m.refreshMessages()
}

// sidebarVisible reports whether the conversation list fits next to the
// chat panel.
func (m Model) sidebarVisible() bool {
	if !m.showSidebar {
		return false
	}
	if m.width == 0 {
		return true
	}
	return m.width-SidebarWidth >= m.minPanelWidth
}

// chatWidth returns the rendered width of the chat panel: the configured
// panel width, limited by what the window leaves next to the sidebar.
func (m Model) chatWidth() int {
	w := m.panelWidth
	if m.width > 0 {
		avail := m.width
		if m.sidebarVisible() {
			avail -= SidebarWidth
		}
		if avail < w {
			w = avail
		}
	}
	if w < 1 {
		w = 1
	}
	return w
}

// resizePanel changes the panel width by delta columns within the
// configured bounds.
func (m *Model) resizePanel(delta int) {
	m.panelWidth = clamp(m.panelWidth+delta, m.minPanelWidth, m.maxPanelWidth)
	m.layout()
}

// PanelWidth returns the configured chat panel width.
func (m Model) PanelWidth() int {
	return m.panelWidth
}

// =============================================================================
// COMMANDS
// =============================================================================

// listen re-arms the workspace listener.
func (m Model) listen() tea.Cmd {
	if m.notifier == nil {
		return nil
	}
	return m.notifier.Wait()
}

// waitForProbe reports when the backend probe resolves.
func (m Model) waitForProbe() tea.Cmd {
	done := m.ws.Session().ProbeDone()
	return func() tea.Msg {
		<-done
		return BackendProbedMsg{}
	}
}

// sendCmd runs one send cycle off the event loop.
func (m Model) sendCmd(text string) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		return SendCompleteMsg{Err: ws.Send(ctx, text)}
	}
}

// loading reports whether a reply is pending.
func (m Model) loading() bool {
	return m.sending || m.ws.Session().IsLoading()
}

// =============================================================================
// STATUS
// =============================================================================

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeError = false
}

func (m *Model) setError(s string) {
	m.notice = s
	m.noticeError = true
}

func (m *Model) clearNotice() {
	m.notice = ""
	m.noticeError = false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
