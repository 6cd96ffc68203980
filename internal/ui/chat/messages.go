// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat interface.
// Every message is produced by a tea.Cmd running off the event loop and is
// applied to the session controller on the loop.
package chat

import (
	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/session"
)

// HistoryLoadedMsg carries stored turns read at startup.
type HistoryLoadedMsg struct {
	Turns []model.Turn
}

// ExchangeDoneMsg carries the outcome of one exchange.
type ExchangeDoneMsg struct {
	Outcome session.Outcome
}

// PersistedMsg reports the result of a save.
type PersistedMsg struct {
	Turns int
	Err   error
}

// ConfigReloadedMsg is sent when the config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}
