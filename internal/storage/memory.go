// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatterm.
package storage

import (
	"context"
	"sync"
)

// =============================================================================
// MEMORY SLOT
// =============================================================================

// MemorySlot keeps values in process memory. Nothing survives a restart.
//
// A positive quota caps the total bytes stored across all keys; a Put that
// would exceed it fails with ErrQuotaExceeded and leaves the old value.
type MemorySlot struct {
	mu     sync.Mutex
	data   map[string][]byte
	quota  int
	closed bool
}

// NewMemorySlot creates a memory slot. quota <= 0 means unlimited.
func NewMemorySlot(quota int) *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte), quota: quota}
}

// Get implements Slot.
func (s *MemorySlot) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSlotClosed
	}
	value, ok := s.data[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put implements Slot.
func (s *MemorySlot) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSlotClosed
	}
	if s.quota > 0 && s.usedLocked()-len(s.data[key])+len(value) > s.quota {
		return ErrQuotaExceeded
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	return nil
}

// Used returns the number of bytes currently stored.
func (s *MemorySlot) Used() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usedLocked()
}

func (s *MemorySlot) usedLocked() int {
	total := 0
	for _, v := range s.data {
		total += len(v)
	}
	return total
}

// Close implements Slot.
func (s *MemorySlot) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
