// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package storage provides durable key/value backends for client-local state.
//
// Every backend stores opaque string values under fixed string keys and
// follows the same contract:
//   - Get returns ErrNotFound for an absent key.
//   - Set replaces any previous value.
//   - Delete of an absent key is not an error.
//
// The in-memory backend lives here; file, sqlite and redis backends live in
// sub-packages so callers only link the drivers they use.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Backend is the contract every storage implementation satisfies.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var _ Backend = (*Memory)(nil)

// Memory is a process-local backend. It is not durable and exists for tests
// and for the "memory" backend setting.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys returns a snapshot of stored keys.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys
}

// Close is a no-op so Memory satisfies the same lifecycle as durable backends.
func (m *Memory) Close() error { return nil }
