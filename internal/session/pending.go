// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session controller.
package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatterm/internal/exchange"
)

// =============================================================================
// IN-FLIGHT EXCHANGE
// =============================================================================

// Pending is the handle for the one exchange in flight.
//
// Submit returns it; the caller runs it off the event loop and hands the
// Outcome back to Resolve.
type Pending struct {
	// ID identifies the exchange. Resolve rejects outcomes with another ID.
	ID string

	// Text is the submitted message, exactly as typed.
	Text string

	// Started is when the user turn was appended.
	Started time.Time
}

// Outcome is the result of running a Pending exchange.
type Outcome struct {
	ID      string
	Reply   string
	Err     error
	Elapsed time.Duration
}

// Run performs the exchange. It blocks until ex returns and is safe to call
// from any goroutine, since it touches no controller state.
func (p *Pending) Run(ctx context.Context, ex exchange.Exchanger) Outcome {
	start := time.Now()
	log.Debug().Str("pending_id", p.ID).Msg("exchange started")

	reply, err := ex.Send(ctx, p.Text)
	out := Outcome{ID: p.ID, Reply: reply, Err: err, Elapsed: time.Since(start)}

	event := log.Debug()
	if err != nil {
		event = log.Warn().Err(err).Str("kind", exchange.KindOf(err).String())
	}
	event.Str("pending_id", p.ID).Dur("elapsed", out.Elapsed).Msg("exchange finished")
	return out
}

// Failed reports whether the exchange produced an error.
func (o Outcome) Failed() bool {
	return o.Err != nil
}
