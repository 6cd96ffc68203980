// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered, append-only log of turns for one session.
//
// Insertion order is the displayed transcript order. Turns are never removed,
// reordered or edited, so a renderer can always treat a change as "new turns
// at the end". Strict user/assistant alternation is not enforced.
//
// A Conversation is not safe for concurrent use; its owner serializes access.
type Conversation struct {
	turns []Turn
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{turns: make([]Turn, 0)}
}

// NewConversationFrom creates a conversation holding a copy of turns.
func NewConversationFrom(turns []Turn) *Conversation {
	c := &Conversation{turns: make([]Turn, len(turns))}
	copy(c.turns, turns)
	return c
}

// =============================================================================
// APPEND-ONLY OPERATIONS
// =============================================================================

// Append adds a turn to the end of the conversation.
func (c *Conversation) Append(turn Turn) {
	c.turns = append(c.turns, turn)
}

// Snapshot returns a copy of the turns in order. Changing the returned slice
// does not affect the conversation, and later appends do not affect it either.
func (c *Conversation) Snapshot() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// =============================================================================
// QUERIES
// =============================================================================

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// IsEmpty returns true if there are no turns.
func (c *Conversation) IsEmpty() bool {
	return len(c.turns) == 0
}

// At returns the turn at index i.
func (c *Conversation) At(i int) (Turn, bool) {
	if i < 0 || i >= len(c.turns) {
		return Turn{}, false
	}
	return c.turns[i], true
}

// Last returns the most recent turn.
func (c *Conversation) Last() (Turn, bool) {
	return c.At(len(c.turns) - 1)
}

// LastBySpeaker returns the most recent turn by the given speaker.
func (c *Conversation) LastBySpeaker(s Speaker) (Turn, bool) {
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Speaker == s {
			return c.turns[i], true
		}
	}
	return Turn{}, false
}

// Equal reports whether two turn sequences hold the same turns in the same order.
func Equal(a, b []Turn) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
