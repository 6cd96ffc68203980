// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange provides the HTTP client for the chat endpoint.
package exchange

import (
	"errors"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Kind categorizes exchange failures for handling.
type Kind int

const (
	// KindTransport means no response arrived: dial failure, reset, timeout
	// or cancellation.
	KindTransport Kind = iota
	// KindRemote means the endpoint answered with a non-success status.
	KindRemote
	// KindInvalidResponse means a success status arrived with a body that is
	// not {"response": string}.
	KindInvalidResponse
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRemote:
		return "remote"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Error represents a failed exchange.
type Error struct {
	Kind    Kind
	Message string

	// StatusCode is set for KindRemote and KindInvalidResponse.
	StatusCode int

	Cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg += " (status " + strconv.Itoa(e.StatusCode) + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind, so the sentinels
// below match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for easy checking with errors.Is.
var (
	ErrTransport       = &Error{Kind: KindTransport, Message: "no response from endpoint"}
	ErrRemote          = &Error{Kind: KindRemote, Message: "endpoint returned an error"}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse, Message: "invalid response body"}
)

// KindOf returns the kind of err, or KindTransport for errors that did not
// come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}
