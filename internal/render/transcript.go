// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/session"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// DefaultPendingText follows the assistant label while a reply is pending.
const DefaultPendingText = "waiting for reply..."

// Options controls how a transcript is drawn.
type Options struct {
	// Width is the column budget. Zero disables wrapping.
	Width int
	// Markup renders assistant turns. Nil means Raw.
	Markup Markup
	// Theme styles labels and bodies. Nil renders unstyled text.
	Theme *styles.Theme
	// PendingText replaces DefaultPendingText when set.
	PendingText string
	// SpinnerFrame is drawn before the pending text.
	SpinnerFrame string
}

// Transcript projects a conversation snapshot and status into display text.
// It has no side effects. Each turn renders to a self-contained block so
// the output for a prefix of turns is a prefix of the output for all of them.
func Transcript(turns []model.Turn, status session.Status, opts Options) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(TurnBlock(t, opts))
	}
	if status == session.StatusAwaitingResponse {
		b.WriteString(PendingLine(opts))
	}
	return b.String()
}

// TurnBlock renders one turn, terminated by a blank line.
func TurnBlock(t model.Turn, opts Options) string {
	label := t.Speaker.DisplayName() + ":"

	body := t.Text
	if t.Speaker == model.SpeakerAssistant && !session.IsFailureText(t.Text) {
		body = markupOf(opts).Render(t.Text, bodyWidth(opts))
	}

	theme := opts.Theme
	if theme == nil {
		if strings.Contains(body, "\n") {
			return label + "\n" + body + "\n\n"
		}
		return label + " " + body + "\n\n"
	}

	labelStyle := theme.UserLabel
	bubble := theme.UserBubble
	if t.Speaker == model.SpeakerAssistant {
		labelStyle = theme.AssistantLabel
		bubble = theme.AssistantBubble
		if session.IsFailureText(t.Text) {
			bubble = theme.FailureBubble
		}
	}
	if w := bodyWidth(opts); w > 0 && t.Speaker == model.SpeakerUser {
		bubble = bubble.Width(w)
	}
	return labelStyle.Render(label) + "\n" + bubble.Render(body) + "\n\n"
}

// PendingLine renders the indicator shown while a reply is outstanding.
func PendingLine(opts Options) string {
	text := opts.PendingText
	if text == "" {
		text = DefaultPendingText
	}
	if opts.SpinnerFrame != "" {
		text = opts.SpinnerFrame + " " + text
	}

	label := model.SpeakerAssistant.DisplayName() + ":"
	if opts.Theme == nil {
		return label + " " + text + "\n"
	}
	return opts.Theme.AssistantLabel.Render(label) + " " + opts.Theme.Pending.Render(text) + "\n"
}

func markupOf(opts Options) Markup {
	if opts.Markup == nil {
		return Raw{}
	}
	return opts.Markup
}

// bodyWidth leaves room for the bubble's left border and padding.
func bodyWidth(opts Options) int {
	if opts.Width <= 0 {
		return 0
	}
	if opts.Theme == nil {
		return opts.Width
	}
	if w := opts.Width - 2; w > 10 {
		return w
	}
	return 10
}
