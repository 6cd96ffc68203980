// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session controller.
package session

import (
	"fmt"
	"strings"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the controller state.
type Status int

const (
	// StatusIdle accepts a submit.
	StatusIdle Status = iota
	// StatusAwaitingResponse has exactly one exchange in flight.
	StatusAwaitingResponse
)

// String returns the status label shown in the status bar.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAwaitingResponse:
		return "awaiting response"
	default:
		return "unknown"
	}
}

// =============================================================================
// BUSY POLICY
// =============================================================================

// BusyPolicy decides what a submit does while a reply is pending.
type BusyPolicy int

const (
	// BusyIgnore drops the submit. Nothing is appended and no exchange starts.
	BusyIgnore BusyPolicy = iota
	// BusyQueue holds the text and submits it once the pending reply resolves.
	BusyQueue
)

// String returns the config name of the policy.
func (p BusyPolicy) String() string {
	if p == BusyQueue {
		return "queue"
	}
	return "ignore"
}

// ParseBusyPolicy converts a config value to a BusyPolicy.
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return BusyIgnore, nil
	case "queue":
		return BusyQueue, nil
	default:
		return BusyIgnore, fmt.Errorf("unknown busy policy %q", s)
	}
}

// =============================================================================
// FAILURE TEXTS
// =============================================================================

const (
	// RemoteFailureText is appended when the endpoint answers with a non-success status.
	RemoteFailureText = "Sorry, there was an issue with the server."

	// TransportFailureText is appended when no usable response arrives.
	TransportFailureText = "There was an error processing your request."
)

// IsFailureText reports whether text is one of the failure replies the
// controller appends.
func IsFailureText(text string) bool {
	return text == RemoteFailureText || text == TransportFailureText
}
