// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange provides the HTTP client for the chat endpoint.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/chatterm/internal/config"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the exchange client.
type ClientConfig struct {
	// Endpoint receives POST {"message": ...} (default: http://127.0.0.1:8080/chat)
	Endpoint string

	// Timeout for one exchange (default: 0, wait forever)
	Timeout time.Duration

	// MinInterval between two exchanges (default: 0, no pacing)
	MinInterval time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Endpoint: config.DefaultEndpoint,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts user messages to the chat endpoint.
//
// There is no retry: each Send makes exactly one request. The Client is safe
// for concurrent use.
//
// Example:
//
//	client := exchange.NewClient()
//	reply, err := client.Send(ctx, "hello")
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.DefaultEndpoint
	}

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.MinInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return c
}

// FromConfig creates a client from the [exchange] config section.
func FromConfig(cfg config.ExchangeConfig) *Client {
	return NewClientWithConfig(&ClientConfig{
		Endpoint:    cfg.Endpoint,
		Timeout:     cfg.Timeout,
		MinInterval: cfg.MinInterval,
	})
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// =============================================================================
// SEND
// =============================================================================

// Send posts text and returns the reply. Failures are *Error values.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &Error{Kind: KindTransport, Message: "exchange cancelled while paced", Cause: err}
		}
	}

	body, err := json.Marshal(Request{Message: text})
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: "no response from endpoint", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: "failed to read response", StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Kind: KindRemote, Message: "endpoint returned " + resp.Status, StatusCode: resp.StatusCode}
	}

	var result responseBody
	if err := json.Unmarshal(data, &result); err != nil {
		return "", &Error{Kind: KindInvalidResponse, Message: "failed to decode response", StatusCode: resp.StatusCode, Cause: err}
	}
	if result.Response == nil {
		return "", &Error{Kind: KindInvalidResponse, Message: "response field missing", StatusCode: resp.StatusCode}
	}

	return *result.Response, nil
}
