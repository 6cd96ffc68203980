// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatterm/internal/exchange"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/session"
)

// =============================================================================
// COMMANDS
// =============================================================================

// LoadHistoryCmd reads stored history off the event loop.
// A zero timeout means no deadline beyond ctx.
func LoadHistoryCmd(ctx context.Context, ctrl *session.Controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return HistoryLoadedMsg{Turns: ctrl.LoadHistory(ctx)}
	}
}

// ExchangeCmd runs one exchange for p.
func ExchangeCmd(ctx context.Context, p *session.Pending, ex exchange.Exchanger) tea.Cmd {
	return func() tea.Msg {
		return ExchangeDoneMsg{Outcome: p.Run(ctx, ex)}
	}
}

// PersistCmd saves a conversation snapshot.
func PersistCmd(ctx context.Context, ctrl *session.Controller, snapshot []model.Turn) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.Persist(ctx, snapshot)
		return PersistedMsg{Turns: len(snapshot), Err: err}
	}
}
