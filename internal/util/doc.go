// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the storage, config and display
// code.
//
// AtomicWriteFile backs every file chatterm writes: the file history slot,
// saved configs and history exports. The string helpers are column-aware
// through go-runewidth so previews and status text line up with wide
// characters.
package util
