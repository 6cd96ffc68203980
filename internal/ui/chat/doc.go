// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat screen for the chatterm TUI.

The Bubble Tea event loop is the only goroutine that touches the session
controller. Slow work runs in tea.Cmds and reports back as messages.

# Flow

	Init            -> LoadHistoryCmd           -> HistoryLoadedMsg -> Controller.Hydrate
	Enter           -> Controller.Submit        -> ExchangeCmd      -> ExchangeDoneMsg
	ExchangeDoneMsg -> Controller.Resolve       -> PersistCmd       -> PersistedMsg
	config watcher  -> ConfigReloadedMsg        -> new theme and markup

The controller notifies the model after every append or status change, and
the model re-runs the transcript projection into its viewport.

# Keys

	Enter    send
	PgUp     page up
	PgDn     page down
	C-y      copy last reply
	F1       toggle help
	Esc/C-c  quit
*/
package chat
