// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/litscout/litscout/internal/bridge"
	"github.com/litscout/litscout/internal/config"
	"github.com/litscout/litscout/internal/events"
	"github.com/litscout/litscout/internal/logging"
	"github.com/litscout/litscout/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local bridge for the browser app",
		Long: `Serve the auth operations and the stored session to the browser app
over HTTP, stream navigation and notification events over a websocket, and
expose metrics and health probes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.Flags().String("addr", config.DefaultBridgeAddr, "bridge listen address")
	cmd.Flags().StringSlice("allowed-origins", nil, "origin glob patterns allowed to call the bridge")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")

	return cmd
}

// runServe starts the bridge and observability servers and blocks until a
// signal, a server error or ctx cancellation.
func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.Setup("litscout", version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())

	var ready atomic.Bool
	obsServer := observability.NewServerWithLogger(cfg.Metrics.Addr, ready.Load, logger)
	metrics := obsServer.Metrics()

	bus := events.NewBus(
		events.WithRoutes(cfg.Navigation.Routes()),
		events.WithDropCounter(metrics.EventsDropped),
		events.WithLogger(logger),
	)
	defer bus.Close()

	a, err := newApp(ctx, cfg, cmd.ErrOrStderr(), appOptions{
		Emitters: []events.Emitter{bus},
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	bridgeServer, err := bridge.New(bridge.Options{
		Addr:           cfg.Bridge.Addr,
		Auth:           a.service,
		Sessions:       a.store,
		Bus:            bus,
		AllowedOrigins: cfg.Bridge.AllowedOrigins,
		Metrics:        metrics,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	var obsErrCh <-chan error
	if cfg.Metrics.Addr != "" {
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
	}

	bridgeErrCh, err := bridgeServer.Start()
	if err != nil {
		stopObservability(obsServer, logger)
		return fmt.Errorf("failed to start bridge server: %w", err)
	}
	ready.Store(true)

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Bridge listening on http://%s\n", bridgeServer.Addr())
	logger.Info("bridge ready",
		"event", "serve_ready",
		"addr", bridgeServer.Addr(),
		"metrics_addr", obsServer.Addr(),
		"api_url", cfg.API.BaseURL,
		"authenticated", a.store.Authenticated(),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested", "event", "shutdown_requested")
	case serveErr = <-bridgeErrCh:
	case serveErr = <-obsErrCh:
	}
	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := bridgeServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping bridge server", "event", "shutdown_failed", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete", "event", "shutdown_complete")
	return serveErr
}

func stopObservability(s *observability.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "event", "shutdown_failed", "error", err)
	}
}
