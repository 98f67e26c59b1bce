// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"

	"github.com/litscout/litscout/internal/storage"
)

// Storage is the durable key/value area the Store persists tokens into.
// Get must return storage.ErrNotFound for an absent key.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store is the single source of truth for the current session.
type Store struct {
	current atomic.Pointer[Session]
	// persistMu orders writes to storage so the persisted pair always
	// matches one in-memory value.
	persistMu sync.Mutex
	storage   Storage
	logger    *slog.Logger
}

// NewStore creates a Store backed by storage, starting Unauthenticated.
func NewStore(storage Storage) (*Store, error) {
	return NewStoreWithLogger(storage, nil)
}

// NewStoreWithLogger creates a Store with a logger. A nil logger discards.
func NewStoreWithLogger(storage Storage, logger *slog.Logger) (*Store, error) {
	if storage == nil {
		return nil, oops.Errorf("session storage is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{storage: storage, logger: logger}, nil
}

// Get returns the current session. ok is false when Unauthenticated.
func (s *Store) Get() (sess Session, ok bool) {
	p := s.current.Load()
	if p == nil {
		return Session{}, false
	}
	return *p, true
}

// Authenticated reports whether a session is held.
func (s *Store) Authenticated() bool {
	return s.current.Load() != nil
}

// AccessToken returns the current access token, or "" when Unauthenticated.
func (s *Store) AccessToken() string {
	if p := s.current.Load(); p != nil {
		return p.AccessToken
	}
	return ""
}

// RefreshToken returns the current refresh token, or "" when Unauthenticated.
func (s *Store) RefreshToken() string {
	if p := s.current.Load(); p != nil {
		return p.RefreshToken
	}
	return ""
}

// Set replaces the current session and persists its token pair.
// The in-memory value is replaced even when persistence fails; the
// persistence error is returned so the caller can decide how loud to be.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	return s.setLocked(ctx, sess)
}

// Replace swaps in next only while the current session still equals old.
// It reports false, changing nothing, when the session was cleared or
// replaced in the meantime.
func (s *Store) Replace(ctx context.Context, old, next Session) (bool, error) {
	if err := next.Validate(); err != nil {
		return false, err
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if p := s.current.Load(); p == nil || *p != old {
		return false, nil
	}
	return true, s.setLocked(ctx, next)
}

func (s *Store) setLocked(ctx context.Context, sess Session) error {
	value := sess
	s.current.Store(&value)

	if err := s.storage.Set(ctx, KeyAccessToken, sess.AccessToken); err != nil {
		return oops.Code("SESSION_PERSIST_FAILED").With("key", KeyAccessToken).Wrap(err)
	}
	if err := s.storage.Set(ctx, KeyRefreshToken, sess.RefreshToken); err != nil {
		return oops.Code("SESSION_PERSIST_FAILED").With("key", KeyRefreshToken).Wrap(err)
	}
	s.logger.Debug("session set", "event", "session_set", "user_id", sess.UserID)
	return nil
}

// Clear resets to Unauthenticated and removes both persisted keys.
// Clearing an already empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	return s.clearLocked(ctx)
}

// ClearIf clears only while the current session still equals old.
func (s *Store) ClearIf(ctx context.Context, old Session) (bool, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if p := s.current.Load(); p == nil || *p != old {
		return false, nil
	}
	return true, s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) error {
	s.current.Store(nil)

	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
		if err := s.storage.Delete(ctx, key); err != nil {
			errs = append(errs, oops.With("key", key).Wrap(err))
		}
	}
	if len(errs) > 0 {
		return oops.Code("SESSION_CLEAR_FAILED").Wrap(errors.Join(errs...))
	}
	s.logger.Debug("session cleared", "event", "session_cleared")
	return nil
}

// Restore loads the persisted token pair into memory. It returns false
// without error when either key is absent, leaving the store
// Unauthenticated.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	access, err := s.load(ctx, KeyAccessToken)
	if err != nil {
		return false, err
	}
	refresh, err := s.load(ctx, KeyRefreshToken)
	if err != nil {
		return false, err
	}
	if access == "" || refresh == "" {
		s.current.Store(nil)
		return false, nil
	}

	sess := FromTokens(access, refresh)
	s.current.Store(&sess)
	s.logger.Debug("session restored", "event", "session_restored", "user_id", sess.UserID)
	return true, nil
}

// SaveRegistrationToken persists the token returned by registration. It does
// not authenticate the store.
func (s *Store) SaveRegistrationToken(ctx context.Context, token string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if err := s.storage.Set(ctx, KeyRegistrationToken, token); err != nil {
		return oops.Code("SESSION_PERSIST_FAILED").With("key", KeyRegistrationToken).Wrap(err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string) (string, error) {
	v, err := s.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", oops.Code("SESSION_RESTORE_FAILED").With("key", key).Wrap(err)
	}
	return v, nil
}
