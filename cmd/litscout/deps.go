// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/samber/oops"

	"github.com/litscout/litscout/internal/auth"
	"github.com/litscout/litscout/internal/config"
	"github.com/litscout/litscout/internal/events"
	"github.com/litscout/litscout/internal/logging"
	"github.com/litscout/litscout/internal/session"
	"github.com/litscout/litscout/internal/storage"
	"github.com/litscout/litscout/internal/storage/file"
	"github.com/litscout/litscout/internal/storage/redis"
	"github.com/litscout/litscout/internal/storage/sqlite"
	"github.com/litscout/litscout/internal/transport"
)

// StorageOpener opens the session storage backend named by cfg.
type StorageOpener func(ctx context.Context, cfg *config.Config) (storage.Backend, error)

// openStorage is the default StorageOpener.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, oops.Code("STORAGE_PATH_FAILED").With("backend", cfg.Storage.Backend).Wrap(err)
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendFile:
		return file.New(path)
	case config.BackendSQLite:
		return sqlite.Open(ctx, path)
	case config.BackendRedis:
		return redis.New(ctx, redis.Options{
			Addr:           cfg.Storage.Redis.Addr,
			DB:             cfg.Storage.Redis.DB,
			Prefix:         cfg.Storage.Redis.Prefix,
			ConnectRetries: cfg.Storage.Redis.ConnectRetries,
		})
	default:
		return nil, oops.Code("STORAGE_BACKEND_UNKNOWN").With("backend", cfg.Storage.Backend).
			Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	backend  storage.Backend
	store    *session.Store
	client   *transport.Client
	service  *auth.Service
	// recorder is nil unless appOptions.Record is set.
	recorder *events.Recorder
}

// appOptions are the optional collaborators of newApp.
type appOptions struct {
	// Record keeps every event in app.recorder.
	Record bool
	// Emitters receive events.
	Emitters []events.Emitter
	// Metrics records operation outcomes. Nil disables metrics.
	Metrics auth.Metrics
	// Open overrides the storage opener.
	Open StorageOpener
	// Logger overrides the logger built from cfg.
	Logger *slog.Logger
}

// newApp opens storage, restores any persisted session and builds the auth
// service. Close releases the storage backend.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer, opts appOptions) (*app, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Setup("litscout", version, cfg.Log.Format, cfg.Log.Level, logOut)
	}

	open := opts.Open
	if open == nil {
		open = openStorage
	}
	backend, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, backend: backend}

	a.store, err = session.NewStoreWithLogger(backend, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	restored, err := a.store.Restore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("session restore", "event", "session_restore", "restored", restored, "backend", cfg.Storage.Backend)

	a.client, err = transport.New(cfg.API.BaseURL,
		transport.WithTimeout(cfg.API.Timeout.Std()),
		transport.WithTokenSource(a.store),
		transport.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	emitters := opts.Emitters
	if opts.Record {
		a.recorder = &events.Recorder{}
		emitters = append([]events.Emitter{a.recorder}, emitters...)
	}
	emitter := events.Multi(emitters...)
	svcOpts := []auth.Option{auth.WithLogger(logger)}
	if opts.Metrics != nil {
		svcOpts = append(svcOpts, auth.WithMetrics(opts.Metrics))
	}
	a.service, err = auth.NewService(a.client, a.store, emitter, svcOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the storage backend.
func (a *app) Close() {
	if a.backend == nil {
		return
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("error closing session storage", "event", "storage_close_failed", "error", err)
	}
}
