// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatterm.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// FILE SLOT
// =============================================================================

// FileSlot stores each key as a JSON file in a directory.
// Default directory: ~/.chatterm/
type FileSlot struct {
	// BaseDir is the directory holding one <key>.json file per key.
	BaseDir string

	mu     sync.Mutex
	closed bool
}

// NewFileSlot creates a file slot rooted at baseDir, creating it if needed.
func NewFileSlot(baseDir string) (*FileSlot, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.Wrap(err, "create storage directory")
	}
	return &FileSlot{BaseDir: baseDir}, nil
}

// DefaultDir returns ~/.chatterm.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".chatterm"), nil
}

// Get implements Slot.
func (s *FileSlot) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.filePath(key)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSlotEmpty
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// Put implements Slot.
// RELIABILITY: Atomic write with fsync prevents a torn history file on crash
func (s *FileSlot) Put(ctx context.Context, key string, value []byte) error {
	path, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return util.AtomicWriteFile(path, value, 0644)
}

// Close implements Slot.
func (s *FileSlot) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *FileSlot) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSlotClosed
	}
	return nil
}

// filePath returns the file path for a key. Keys may not name other directories.
func (s *FileSlot) filePath(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", errors.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(s.BaseDir, key+".json"), nil
}
