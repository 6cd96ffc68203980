// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/session"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// Options configures a chat Model.
type Options struct {
	// Controller owns the conversation. Required.
	Controller *session.Controller
	// Theme styles the screen. Defaults to an auto theme.
	Theme *styles.Theme
	// Markup renders replies. Defaults to glamour for the theme.
	Markup render.Markup
	// Endpoint is shown in the header.
	Endpoint string
	// Backend is the storage backend name shown in the status bar.
	Backend string
	// HydrateTimeout bounds the startup history load.
	HydrateTimeout time.Duration
	// Context scopes exchanges and saves. Defaults to context.Background.
	Context context.Context
}

// Model is the Bubble Tea model for the chat screen. All controller calls
// happen inside Update, on the event loop.
type Model struct {
	ctrl           *session.Controller
	theme          *styles.Theme
	markup         render.Markup
	endpoint       string
	backend        string
	hydrateTimeout time.Duration
	ctx            context.Context

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	width    int
	height   int
	showHelp bool
	notice   string
	quitting bool

	changes *changeTracker
	copy    func(string) error
}

// New creates a chat model around a controller.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	markup := opts.Markup
	if markup == nil {
		markup = render.NewGlamour(theme.GlamourStyle(), 0)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New(spinner.WithSpinner(styles.LineSpinner.Spinner()))
	sp.Style = theme.Spinner

	m := Model{
		ctrl:           opts.Controller,
		theme:          theme,
		markup:         markup,
		endpoint:       opts.Endpoint,
		backend:        opts.Backend,
		hydrateTimeout: opts.HydrateTimeout,
		ctx:            ctx,
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		help:           help.New(),
		keys:           DefaultKeyMap(),
		changes:        &changeTracker{},
		copy:           copyToClipboard,
	}

	changes := m.changes
	m.ctrl.Subscribe(func(ch session.Change) {
		changes.dirty = true
		if ch.Kind != session.ChangeStatus {
			changes.appended = true
		}
	})
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the history load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		LoadHistoryCmd(m.ctx, m.ctrl, m.hydrateTimeout),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	case HistoryLoadedMsg:
		m.ctrl.Hydrate(msg.Turns)

	case ExchangeDoneMsg:
		cmds = append(cmds, m.handleExchangeDone(msg))

	case PersistedMsg:
		if msg.Err != nil {
			m.notice = "history not saved: " + msg.Err.Error()
		}

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)

	case spinner.TickMsg:
		if m.ctrl.Status() == session.StatusAwaitingResponse {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.changes.dirty = true
			cmds = append(cmds, cmd)
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.changes.dirty {
		m.refresh()
	}
	return m, tea.Batch(cmds...)
}

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.help.Width = msg.Width

	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-m.reservedHeight(), 1)

	const promptLen = 2
	m.input.Width = max(m.width-4-promptLen, 10)

	m.changes.dirty = true
}

// reservedHeight is the number of rows used by everything except the viewport.
func (m Model) reservedHeight() int {
	const (
		headerHeight    = 1
		inputAreaHeight = 2
		statusBarHeight = 1
		helpHeight      = 1
	)
	h := headerHeight + inputAreaHeight + statusBarHeight + helpHeight
	if m.showHelp {
		h += len(m.keys.FullHelp()[1]) - 1
	}
	return h
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.CopyReply):
		m.copyLastReply()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.viewport.Height = max(m.height-m.reservedHeight(), 1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input to the controller. Input stays enabled while a
// reply is pending; the controller decides whether a submit is accepted.
func (m Model) submit() (Model, tea.Cmd) {
	p, err := m.ctrl.Submit(m.input.Value())
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return m, nil
	case errors.Is(err, session.ErrQueued):
		m.input.Reset()
		m.notice = "queued until the current reply arrives"
		return m, nil
	case errors.Is(err, session.ErrBusy):
		m.notice = "a reply is pending; message not sent"
		return m, nil
	case err != nil:
		m.notice = err.Error()
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	return m, tea.Batch(
		ExchangeCmd(m.ctx, p, m.ctrl.Exchanger()),
		m.spinner.Tick,
	)
}

func (m *Model) handleExchangeDone(msg ExchangeDoneMsg) tea.Cmd {
	res, err := m.ctrl.Resolve(msg.Outcome)
	if err != nil {
		log.Debug().Err(err).Str("pending_id", msg.Outcome.ID).Msg("outcome dropped")
		return nil
	}

	cmds := []tea.Cmd{PersistCmd(m.ctx, m.ctrl, res.Snapshot)}
	if res.Next != nil {
		m.notice = ""
		cmds = append(cmds, ExchangeCmd(m.ctx, res.Next, m.ctrl.Exchanger()))
	}
	return tea.Batch(cmds...)
}

func (m *Model) copyLastReply() {
	reply, ok := m.ctrl.LastReply()
	if !ok {
		m.notice = "no reply to copy"
		return
	}
	if err := m.copy(reply.Text); err != nil {
		log.Warn().Err(err).Msg("clipboard write failed")
		m.notice = "copy failed: " + err.Error()
		return
	}
	m.notice = "last reply copied"
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.theme = styles.NewTheme(cfg.UI.Theme)
	m.theme.SetSize(m.width, m.height)
	m.markup = render.NewMarkup(cfg.UI, m.theme)
	m.input.PromptStyle = m.theme.InputPrompt
	m.input.PlaceholderStyle = m.theme.InputPlaceholder
	m.spinner.Style = m.theme.Spinner
	m.notice = "config reloaded"
	m.changes.dirty = true
	log.Info().Str("markup", cfg.UI.Markup).Str("theme", cfg.UI.Theme).Msg("chat view reconfigured")
}

// refresh re-runs the projection into the viewport. It follows the bottom
// when new turns arrived or the user had not scrolled away.
func (m *Model) refresh() {
	follow := m.changes.appended || m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript())
	if follow {
		m.viewport.GotoBottom()
	}
	m.changes.reset()
}

func (m Model) transcript() string {
	return render.Transcript(m.ctrl.Snapshot(), m.ctrl.Status(), render.Options{
		Width:        m.viewport.Width,
		Markup:       m.markup,
		Theme:        m.theme,
		SpinnerFrame: m.spinner.View(),
	})
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Controller returns the session controller.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Notice returns the transient status bar notice.
func (m Model) Notice() string {
	return m.notice
}

// Markup returns the active reply renderer.
func (m Model) Markup() render.Markup {
	return m.markup
}
