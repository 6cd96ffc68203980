// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatterm.
package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// =============================================================================
// REDIS SLOT
// =============================================================================

// RedisSlot stores keys in a Redis server. Values are written without expiry.
type RedisSlot struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures a RedisSlot.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key, e.g. "chatterm:".
	Prefix string
}

// NewRedisSlot connects to Redis and verifies the connection with PING.
func NewRedisSlot(ctx context.Context, opts RedisOptions) (*RedisSlot, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "connect to redis at %s", opts.Addr)
	}
	return &RedisSlot{client: client, prefix: opts.Prefix}, nil
}

// Get implements Slot.
func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", key)
	}
	return value, nil
}

// Put implements Slot.
func (s *RedisSlot) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

// Close implements Slot.
func (s *RedisSlot) Close() error {
	return s.client.Close()
}
