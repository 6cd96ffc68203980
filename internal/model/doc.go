// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
//
// This package defines the transcript types shared by the session controller,
// the persistence adapter and the renderers.
//
// # Key Types
//
//   - Turn: one message with its text and speaker
//   - Speaker: user or assistant
//   - Conversation: the append-only, ordered log of turns
//
// # Usage
//
//	conv := model.NewConversation()
//	turn, err := model.UserTurn("hello")
//	if err != nil {
//	    // blank input, nothing to append
//	}
//	conv.Append(turn)
//	for _, t := range conv.Snapshot() {
//	    fmt.Printf("%s: %s\n", t.Speaker.DisplayName(), t.Text)
//	}
//
// # Stored Form
//
// A turn is stored as {"text": "...", "speaker": "user"|"assistant"}. The
// legacy speaker tag "bot" is read as assistant.
package model
