// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatterm.
//
// The whole conversation is stored as one JSON array under a fixed key in a
// durable key-value Slot, and rewritten in full after every change.
//
// # Key Types
//
//   - Slot: Durable key-value area (file, SQLite, Redis, memory)
//   - Store: Saves and restores the turn list under one key
//   - PersistenceError: A failed save, wrapping the slot's error
//
// # Usage
//
// Open the configured backend and restore history:
//
//	store, err := storage.Open(ctx, cfg.Storage)
//	turns := store.Load(ctx)
//
// Save after every change:
//
//	if err := store.Save(ctx, conv.Snapshot()); err != nil {
//	    log.Warn().Err(err).Msg("history not saved")
//	}
//
// # Stored Form
//
//	[{"text":"hello","speaker":"user"},{"text":"hi!","speaker":"assistant"}]
//
// Load treats a missing key as an empty history and discards anything it
// cannot decode. It never returns an error.
package storage
