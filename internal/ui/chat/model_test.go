// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/exchange"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/session"
	"github.com/jeranaias/chatterm/internal/storage"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	ctrl  *session.Controller
	store *storage.Store
	ex    exchange.Exchanger
}

func newFixture(t *testing.T, policy session.BusyPolicy, reply string, err error) (Model, *fixture) {
	t.Helper()
	store := storage.NewStore(storage.NewMemorySlot(0), "")
	ex := exchange.ExchangerFunc(func(ctx context.Context, text string) (string, error) {
		return reply, err
	})
	ctrl := session.New(session.Options{Store: store, Exchanger: ex, BusyPolicy: policy})

	m := New(Options{
		Controller: ctrl,
		Theme:      styles.NewTheme("dark"),
		Markup:     render.Raw{},
		Endpoint:   config.DefaultEndpoint,
		Backend:    storage.BackendMemory,
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, &fixture{ctrl: ctrl, store: store, ex: ex}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

func typeAndSubmit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// finishExchange runs the in-flight exchange and feeds its outcome back.
func finishExchange(t *testing.T, m Model, f *fixture) (Model, tea.Cmd) {
	t.Helper()
	p := f.ctrl.InFlight()
	require.NotNil(t, p, "no exchange in flight")
	msg := ExchangeCmd(context.Background(), p, f.ex)()
	return update(t, m, msg)
}

// =============================================================================
// SUBMIT CYCLE
// =============================================================================

func TestModel_SubmitCycle(t *testing.T) {
	m, f := newFixture(t, session.BusyIgnore, "hi back", nil)

	m, cmd := typeAndSubmit(t, m, "hello")
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, f.ctrl.Len())
	assert.Equal(t, session.StatusAwaitingResponse, f.ctrl.Status())
	assert.Empty(t, m.input.Value())

	m, cmd = finishExchange(t, m, f)
	assert.Equal(t, 2, f.ctrl.Len())
	assert.Equal(t, session.StatusIdle, f.ctrl.Status())

	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	persisted, ok := msgs[0].(PersistedMsg)
	require.True(t, ok)
	assert.NoError(t, persisted.Err)
	assert.Equal(t, 2, persisted.Turns)

	stored := f.store.Load(context.Background())
	assert.True(t, model.Equal(f.ctrl.Snapshot(), stored))

	m, _ = update(t, m, persisted)
	view := m.View()
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "hi back")
	assert.Contains(t, view, "2 turns")
	assert.Contains(t, view, storage.BackendMemory)
}

func TestModel_EmptySubmitIgnored(t *testing.T) {
	m, f := newFixture(t, session.BusyIgnore, "unused", nil)

	m, cmd := typeAndSubmit(t, m, "   ")
	assert.Nil(t, cmd)
	assert.Zero(t, f.ctrl.Len())
	assert.Equal(t, session.StatusIdle, f.ctrl.Status())
	assert.Empty(t, m.Notice())
}

func TestModel_SubmitWhilePendingIgnored(t *testing.T) {
	m, f := newFixture(t, session.BusyIgnore, "first reply", nil)

	m, _ = typeAndSubmit(t, m, "first")
	m, cmd := typeAndSubmit(t, m, "second")

	assert.Nil(t, cmd)
	assert.Equal(t, 1, f.ctrl.Len())
	assert.Equal(t, "second", m.input.Value())
	assert.Contains(t, m.Notice(), "pending")

	_, _ = finishExchange(t, m, f)
	assert.Equal(t, 2, f.ctrl.Len())
}

func TestModel_SubmitWhilePendingQueued(t *testing.T) {
	m, f := newFixture(t, session.BusyQueue, "ok", nil)

	m, _ = typeAndSubmit(t, m, "first")
	m, _ = typeAndSubmit(t, m, "second")
	assert.Equal(t, 1, f.ctrl.Queued())
	assert.Empty(t, m.input.Value())

	m, _ = finishExchange(t, m, f)
	snap := f.ctrl.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "second", snap[2].Text)
	assert.Equal(t, session.StatusAwaitingResponse, f.ctrl.Status())

	_, _ = finishExchange(t, m, f)
	assert.Equal(t, 4, f.ctrl.Len())
}

func TestModel_RemoteFailureShownInTranscript(t *testing.T) {
	remote := &exchange.Error{Kind: exchange.KindRemote, StatusCode: 500, Message: "status 500"}
	m, f := newFixture(t, session.BusyIgnore, "", remote)

	m, _ = typeAndSubmit(t, m, "hello")
	m, _ = finishExchange(t, m, f)

	assert.Equal(t, 2, f.ctrl.Len())
	assert.Contains(t, m.View(), session.RemoteFailureText)
}

func TestModel_StaleOutcomeDropped(t *testing.T) {
	m, f := newFixture(t, session.BusyIgnore, "reply", nil)
	m, _ = typeAndSubmit(t, m, "hello")

	_, cmd := update(t, m, ExchangeDoneMsg{Outcome: session.Outcome{ID: "not-the-pending-one", Reply: "late"}})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, f.ctrl.Len())
	assert.Equal(t, session.StatusAwaitingResponse, f.ctrl.Status())
}

// =============================================================================
// HYDRATION
// =============================================================================

func TestModel_HydratesStoredHistory(t *testing.T) {
	m, f := newFixture(t, session.BusyIgnore, "reply", nil)
	stored := []model.Turn{
		{Text: "earlier question", Speaker: model.SpeakerUser},
		{Text: "earlier answer", Speaker: model.SpeakerAssistant},
	}
	require.NoError(t, f.store.Save(context.Background(), stored))

	msg := LoadHistoryCmd(context.Background(), f.ctrl, time.Second)()
	m, _ = update(t, m, msg)

	assert.True(t, model.Equal(stored, f.ctrl.Snapshot()))
	assert.Contains(t, m.View(), "earlier answer")
}

func TestModel_EarlySubmitWinsOverHydration(t *testing.T) {
	m, f := newFixture(t, session.BusyIgnore, "reply", nil)
	stored := []model.Turn{
		{Text: "old", Speaker: model.SpeakerUser},
		{Text: "old reply", Speaker: model.SpeakerAssistant},
	}
	require.NoError(t, f.store.Save(context.Background(), stored))
	load := LoadHistoryCmd(context.Background(), f.ctrl, 0)

	m, _ = typeAndSubmit(t, m, "new")
	m, _ = update(t, m, load())

	snap := f.ctrl.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "new", snap[0].Text)
	assert.True(t, f.ctrl.HydrationDone())
}

// =============================================================================
// OTHER MESSAGES
// =============================================================================

func TestModel_PersistFailureShowsNotice(t *testing.T) {
	m, _ := newFixture(t, session.BusyIgnore, "reply", nil)

	m, _ = update(t, m, PersistedMsg{Turns: 2, Err: errors.New("disk full")})
	assert.Contains(t, m.Notice(), "disk full")
	assert.Contains(t, m.View(), "disk full")
}

func TestModel_CopyLastReply(t *testing.T) {
	m, f := newFixture(t, session.BusyIgnore, "copy me", nil)
	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "no reply to copy", m.Notice())

	m, _ = typeAndSubmit(t, m, "hello")
	m, _ = finishExchange(t, m, f)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})

	assert.Equal(t, "copy me", copied)
	assert.Equal(t, "last reply copied", m.Notice())
}

func TestModel_CopyFailure(t *testing.T) {
	m, f := newFixture(t, session.BusyIgnore, "reply", nil)
	m.copy = func(string) error { return errors.New("no clipboard") }

	m, _ = typeAndSubmit(t, m, "hello")
	m, _ = finishExchange(t, m, f)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})

	assert.True(t, strings.HasPrefix(m.Notice(), "copy failed"))
}

func TestModel_ConfigReloadSwapsMarkup(t *testing.T) {
	m, _ := newFixture(t, session.BusyIgnore, "reply", nil)

	cfg := config.Default()
	cfg.UI.Markup = "plain"
	cfg.UI.Theme = "light"
	m, _ = update(t, m, ConfigReloadedMsg{Config: cfg})

	assert.IsType(t, &render.Plain{}, m.Markup())
	assert.Equal(t, styles.ModeLight, m.theme.Mode)
	assert.Equal(t, "config reloaded", m.Notice())

	before := m.Markup()
	m, _ = update(t, m, ConfigReloadedMsg{})
	assert.Same(t, before, m.Markup())
}

func TestModel_SpinnerStopsWhenIdle(t *testing.T) {
	m, _ := newFixture(t, session.BusyIgnore, "reply", nil)

	_, cmd := update(t, m, spinner.TickMsg{})
	assert.Nil(t, cmd)
}

func TestModel_Quit(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		m, _ := newFixture(t, session.BusyIgnore, "reply", nil)
		m, cmd := update(t, m, tea.KeyMsg{Type: k})

		require.NotNil(t, cmd)
		assert.Contains(t, collect(cmd), tea.Msg(tea.QuitMsg{}))
		assert.Empty(t, m.View())
	}
}

func TestModel_ViewBeforeResize(t *testing.T) {
	ctrl := session.New(session.Options{})
	m := New(Options{Controller: ctrl, Theme: styles.NewTheme("dark"), Markup: render.Raw{}})
	assert.Equal(t, "Loading...", m.View())
	assert.NotNil(t, m.Init())
}

func TestModel_ResizeSizesViewport(t *testing.T) {
	m, _ := newFixture(t, session.BusyIgnore, "reply", nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 50, Height: 20})

	assert.Equal(t, 50, m.viewport.Width)
	assert.Equal(t, 20-m.reservedHeight(), m.viewport.Height)
	assert.Equal(t, styles.LayoutNarrow, m.theme.GetLayoutMode())
	assert.NotContains(t, m.View(), storage.BackendMemory)
}

func TestKeyMapHelp(t *testing.T) {
	k := DefaultKeyMap()
	assert.Len(t, k.ShortHelp(), 4)
	assert.Len(t, k.FullHelp(), 3)
}
