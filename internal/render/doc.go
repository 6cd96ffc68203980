// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render projects a conversation snapshot and session status into
// terminal text.
//
// Transcript is a pure function of its inputs. Assistant replies go through a
// Markup: Glamour for markdown, Plain for chroma-highlighted fenced code with
// prose left as is, and Raw for output that is not a terminal. Failure
// replies are never passed through markup.
package render
