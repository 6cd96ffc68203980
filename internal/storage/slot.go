// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatterm.
package storage

import (
	"context"
)

// =============================================================================
// SLOT INTERFACE
// =============================================================================

// Slot is a durable key-value area. The chat history lives under one key.
//
// Implementations must make Put atomic per key: a reader sees either the old
// value or the new one, never a partial write.
type Slot interface {
	// Get returns the value stored under key, or ErrSlotEmpty.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases any resources held by the slot.
	Close() error
}

// Backend names accepted by OpenSlot.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// =============================================================================
// ERRORS
// =============================================================================

// SlotError represents a slot-level condition.
// It implements the error interface and can be compared using errors.Is.
type SlotError struct {
	Message string
}

// Error implements the error interface.
func (e *SlotError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing slot errors.
func (e *SlotError) Is(target error) bool {
	t, ok := target.(*SlotError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// ErrSlotEmpty is returned by Get when nothing is stored under the key.
var ErrSlotEmpty = &SlotError{Message: "slot is empty"}

// ErrQuotaExceeded is returned by Put when the value does not fit the slot.
var ErrQuotaExceeded = &SlotError{Message: "storage quota exceeded"}

// ErrSlotClosed is returned by operations on a closed slot.
var ErrSlotClosed = &SlotError{Message: "slot is closed"}

// PersistenceError reports a failed save or load.
type PersistenceError struct {
	Op  string // "save" or "load"
	Key string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return "storage " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
