// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange provides the HTTP client for the chat endpoint.
//
// One exchange is one request:
//
//	POST <endpoint>
//	Content-Type: application/json
//
//	{"message": "hello"}
//
// answered on success by a 2xx status and {"response": "..."}.
//
// # Failure Kinds
//
//   - KindTransport: no response arrived (connection refused, timeout, cancel)
//   - KindRemote: a non-2xx status arrived
//   - KindInvalidResponse: a 2xx status arrived with an unusable body
//
// # Usage
//
//	client := exchange.FromConfig(cfg.Exchange)
//	reply, err := client.Send(ctx, "hello")
//	if errors.Is(err, exchange.ErrRemote) {
//	    ...
//	}
package exchange
