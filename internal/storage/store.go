// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatterm.
package storage

import (
	"context"
	"encoding/json"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatterm/internal/model"
)

// DefaultKey is the slot key the history is stored under.
const DefaultKey = "chatHistory"

// =============================================================================
// HISTORY STORE
// =============================================================================

// Store saves and restores the whole conversation under one fixed key.
//
// Save overwrites the slot with the full turn list on every call. Load never
// fails: a missing key, unreadable slot or corrupt payload all yield an empty
// history, and the reason is logged.
type Store struct {
	slot Slot
	key  string
}

// NewStore creates a store over slot. An empty key selects DefaultKey.
func NewStore(slot Slot, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{slot: slot, key: key}
}

// Key returns the slot key used by the store.
func (s *Store) Key() string {
	return s.key
}

// Save serializes turns and writes them to the slot.
func (s *Store) Save(ctx context.Context, turns []model.Turn) error {
	if turns == nil {
		turns = []model.Turn{}
	}

	data, err := json.Marshal(turns)
	if err != nil {
		return &PersistenceError{Op: "save", Key: s.key, Err: pkgerrors.Wrap(err, "encode history")}
	}

	if err := s.slot.Put(ctx, s.key, data); err != nil {
		return &PersistenceError{Op: "save", Key: s.key, Err: err}
	}
	return nil
}

// Load reads the stored history. It returns an empty, non-nil slice when
// nothing usable is stored.
func (s *Store) Load(ctx context.Context) []model.Turn {
	turns, err := s.load(ctx)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("stored history discarded")
		return []model.Turn{}
	}
	return turns
}

func (s *Store) load(ctx context.Context) ([]model.Turn, error) {
	data, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, ErrSlotEmpty) {
		return []model.Turn{}, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Key: s.key, Err: err}
	}

	turns, err := DecodeHistory(data)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Key: s.key, Err: err}
	}
	return turns, nil
}

// Close closes the underlying slot.
func (s *Store) Close() error {
	return s.slot.Close()
}

// DecodeHistory parses a stored history payload. Every record must carry a
// non-blank text and a known speaker; one bad record rejects the whole payload.
func DecodeHistory(data []byte) ([]model.Turn, error) {
	var turns []model.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, pkgerrors.Wrap(err, "corrupt history")
	}
	if turns == nil {
		// "null" decodes without error
		return nil, pkgerrors.New("corrupt history: not an array")
	}
	return turns, nil
}
