// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package file stores client-local state in a single YAML document on disk.
package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/litscout/litscout/internal/storage"
)

// document is the on-disk layout. Keys are kept verbatim, including the
// trailing-space registration key, so YAML quoting is left to the encoder.
type document struct {
	Values map[string]string `yaml:"values"`
}

// Store is a file-backed key/value store. Every mutation rewrites the file
// through a temp file and rename so readers never observe a partial write.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a Store at path. The parent directory is created with 0700.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, oops.Code("FILE_STORE_PATH_EMPTY").Errorf("storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, oops.Code("FILE_STORE_INIT_FAILED").With("path", path).Wrap(err)
	}
	return &Store{path: path}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := doc.Values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Values[key] = value
	return s.save(doc)
}

// Delete removes key. Deleting an absent key does not touch the file.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Values[key]; !ok {
		return nil
	}
	delete(doc.Values, key)
	return s.save(doc)
}

// Close is a no-op; the file is not held open between calls.
func (s *Store) Close() error { return nil }

func (s *Store) load() (*document, error) {
	doc := &document{Values: make(map[string]string)}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, oops.Code("FILE_STORE_READ_FAILED").With("path", s.path).Wrap(err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, oops.Code("FILE_STORE_CORRUPT").With("path", s.path).Wrap(err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return doc, nil
}

func (s *Store) save(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return oops.Code("FILE_STORE_ENCODE_FAILED").Wrap(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".litscout-*.tmp")
	if err != nil {
		return oops.Code("FILE_STORE_WRITE_FAILED").With("path", s.path).Wrap(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return oops.Code("FILE_STORE_WRITE_FAILED").With("path", tmpName).Wrap(err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return oops.Code("FILE_STORE_WRITE_FAILED").With("path", tmpName).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return oops.Code("FILE_STORE_WRITE_FAILED").With("path", tmpName).Wrap(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return oops.Code("FILE_STORE_WRITE_FAILED").With("path", s.path).Wrap(err)
	}
	return nil
}
