// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session controller.
//
// A Controller is the only writer of its conversation. It moves between two
// states:
//
//	idle --Submit--> awaiting-response --Resolve--> idle
//
// Submit appends the user turn and returns a *Pending handle. The caller runs
// the handle off its event loop and passes the Outcome to Resolve, which
// appends the reply (or a fixed failure message) and returns the snapshot to
// persist.
//
// # Key Types
//
//   - Controller: The state machine
//   - Pending: The one in-flight exchange
//   - Outcome: Result of running a Pending
//   - Resolution: What Resolve appended, plus the snapshot to save
//
// # Usage
//
// Event-loop callers:
//
//	p, err := ctrl.Submit(text)
//	if err != nil {
//	    return // blank, busy or queued
//	}
//	out := p.Run(ctx, client)          // off the loop
//	res, _ := ctrl.Resolve(out)        // back on the loop
//	go ctrl.Persist(ctx, res.Snapshot) // off the loop
//
// Persist serializes writes and skips a snapshot shorter than one already
// written, so saves may finish in any order.
//
// Line-mode callers:
//
//	ctrl.Exchange(ctx, text)
//	res, err := ctrl.Send(ctx, text) // res[0].Failed tells a failure turn from a reply
//
// # Startup
//
// LoadHistory reads the store off the loop; Hydrate applies the result only
// if the user has not already added turns.
package session
