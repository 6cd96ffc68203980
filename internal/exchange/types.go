// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange provides the HTTP client for the chat endpoint.
package exchange

import "context"

// Request is the body posted to the endpoint.
type Request struct {
	Message string `json:"message"`
}

// Response is the body the endpoint returns on success.
type Response struct {
	Response string `json:"response"`
}

// responseBody distinguishes a missing "response" field from an empty one.
type responseBody struct {
	Response *string `json:"response"`
}

// Exchanger sends one message and returns the reply text.
type Exchanger interface {
	Send(ctx context.Context, text string) (string, error)
}

// ExchangerFunc adapts a function to the Exchanger interface.
type ExchangerFunc func(ctx context.Context, text string) (string, error)

// Send implements Exchanger.
func (f ExchangerFunc) Send(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}
