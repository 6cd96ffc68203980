// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// SPEAKER TYPE
// =============================================================================

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// legacyBotSpeaker is how the browser client tagged assistant turns. Its
// records carry the tag under "type" instead of "speaker". Both are accepted
// on decode and never written.
const legacyBotSpeaker = "bot"

// String returns the string representation of the speaker.
func (s Speaker) String() string {
	return string(s)
}

// DisplayName returns the label shown next to a turn.
func (s Speaker) DisplayName() string {
	switch s {
	case SpeakerUser:
		return "You"
	case SpeakerAssistant:
		return "Bot"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the known speakers.
func (s Speaker) Valid() bool {
	return s == SpeakerUser || s == SpeakerAssistant
}

// ParseSpeaker converts a stored speaker tag into a Speaker.
func ParseSpeaker(v string) (Speaker, error) {
	switch v {
	case string(SpeakerUser):
		return SpeakerUser, nil
	case string(SpeakerAssistant), legacyBotSpeaker:
		return SpeakerAssistant, nil
	default:
		return "", fmt.Errorf("unknown speaker %q", v)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Speaker) UnmarshalText(text []byte) error {
	parsed, err := ParseSpeaker(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Speaker) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown speaker %q", string(s))
	}
	return []byte(s), nil
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one message unit in a conversation.
//
// Turns are values. Once appended to a Conversation they are only ever copied,
// so there is no way to edit one in place.
type Turn struct {
	Text    string  `json:"text"`
	Speaker Speaker `json:"speaker"`
}

// ValidationError reports a turn that cannot be created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrEmptyText is returned for text that is empty after trimming whitespace.
var ErrEmptyText = &ValidationError{Field: "text", Message: "must not be empty"}

// NewTurn creates a turn, rejecting whitespace-only text and unknown speakers.
// The text is kept exactly as given; trimming is only used for the check.
func NewTurn(text string, speaker Speaker) (Turn, error) {
	if IsBlank(text) {
		return Turn{}, ErrEmptyText
	}
	if !speaker.Valid() {
		return Turn{}, &ValidationError{Field: "speaker", Message: fmt.Sprintf("unknown speaker %q", string(speaker))}
	}
	return Turn{Text: text, Speaker: speaker}, nil
}

// UserTurn creates a user turn. See NewTurn.
func UserTurn(text string) (Turn, error) {
	return NewTurn(text, SpeakerUser)
}

// AssistantTurn creates an assistant turn. See NewTurn.
func AssistantTurn(text string) (Turn, error) {
	return NewTurn(text, SpeakerAssistant)
}

// IsBlank reports whether text is empty after trimming whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Preview returns a single-line, rune-safe preview of the turn text.
func (t Turn) Preview(maxLen int) string {
	return util.TruncateRunes(util.SingleLine(t.Text), maxLen)
}

// turnRecord is the stored shape of a turn. Pointer fields let the decoder
// tell a missing field apart from an empty one.
type turnRecord struct {
	Text    *string `json:"text"`
	Speaker *string `json:"speaker"`
	Type    *string `json:"type"`
}

// UnmarshalJSON decodes a stored turn. The speaker is read from "speaker",
// or from the browser client's "type" when "speaker" is absent. A record
// missing the text or a speaker tag, with blank text, or with an unknown
// speaker is rejected.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var rec turnRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.Text == nil {
		return &ValidationError{Field: "text", Message: "missing"}
	}
	if rec.Speaker == nil {
		rec.Speaker = rec.Type
	}
	if rec.Speaker == nil {
		return &ValidationError{Field: "speaker", Message: "missing"}
	}
	speaker, err := ParseSpeaker(*rec.Speaker)
	if err != nil {
		return &ValidationError{Field: "speaker", Message: err.Error()}
	}
	turn, err := NewTurn(*rec.Text, speaker)
	if err != nil {
		return err
	}
	*t = turn
	return nil
}
