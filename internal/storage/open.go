// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatterm.
package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/jeranaias/chatterm/internal/config"
)

// OpenSlot creates the slot selected by cfg.Backend.
func OpenSlot(ctx context.Context, cfg config.StorageConfig) (Slot, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileSlot(dir)

	case BackendSQLite:
		return NewSQLiteSlot(cfg.SQLitePath)

	case BackendRedis:
		return NewRedisSlot(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	case BackendMemory:
		return NewMemorySlot(cfg.QuotaBytes), nil

	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Open creates the slot selected by cfg and wraps it in a Store.
func Open(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	slot, err := OpenSlot(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s storage", cfg.Backend)
	}
	return NewStore(slot, cfg.Key), nil
}
