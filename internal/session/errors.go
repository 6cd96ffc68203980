// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session controller.
package session

import (
	"github.com/jeranaias/chatterm/internal/model"
)

// ValidationError reports a submit that was rejected before any state change.
type ValidationError = model.ValidationError

// ErrEmptyInput is returned by Submit for empty or whitespace-only text.
var ErrEmptyInput = model.ErrEmptyText

// SessionError represents a controller-level rejection.
// It implements the error interface and can be compared using errors.Is.
type SessionError struct {
	Message string
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing session errors.
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrBusy is returned by Submit while a reply is pending under BusyIgnore.
	ErrBusy = &SessionError{Message: "a reply is already pending"}

	// ErrQueued is returned by Submit while a reply is pending under BusyQueue.
	// The text has been recorded and will be submitted later.
	ErrQueued = &SessionError{Message: "submit queued until the pending reply arrives"}

	// ErrStaleOutcome is returned by Resolve for an outcome that does not
	// belong to the in-flight exchange.
	ErrStaleOutcome = &SessionError{Message: "outcome does not match the pending exchange"}
)
