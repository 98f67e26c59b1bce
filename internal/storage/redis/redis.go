// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package redis stores client-local state in Redis, for deployments where
// several bridge processes share one session.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/litscout/litscout/internal/storage"
)

// DefaultPrefix namespaces keys when no prefix is configured.
const DefaultPrefix = "litscout:"

// Store is a Redis-backed key/value store.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

// connectBackoff is the first delay between connection attempts; it doubles
// on each retry.
const connectBackoff = 50 * time.Millisecond

// Options configures a Store.
type Options struct {
	Addr   string
	DB     int
	Prefix string
	// ConnectRetries is how many times a failed initial ping is retried.
	ConnectRetries uint64
}

// New connects to Redis and verifies the connection, retrying the initial
// ping with exponential backoff.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, oops.Code("REDIS_ADDR_EMPTY").Errorf("redis address is required")
	}
	client := goredis.NewClient(&goredis.Options{Addr: opts.Addr, DB: opts.DB})

	backoff := retry.WithMaxRetries(opts.ConnectRetries, retry.NewExponential(connectBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("REDIS_CONNECT_FAILED").
			With("addr", opts.Addr).
			With("retries", opts.ConnectRetries).
			Wrap(err)
	}
	return NewWithClient(client, opts.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", oops.Code("REDIS_GET_FAILED").With("key", key).Wrap(err)
	}
	return v, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return oops.Code("REDIS_SET_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return oops.Code("REDIS_DEL_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return oops.Code("REDIS_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
