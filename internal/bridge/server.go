// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package bridge serves the auth operations to a local browser client over
// HTTP and streams navigation and notification events over a websocket.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/litscout/litscout/internal/auth"
	"github.com/litscout/litscout/internal/events"
	"github.com/litscout/litscout/internal/session"
)

// Authenticator is the set of auth operations the bridge exposes.
type Authenticator interface {
	Precheck(ctx context.Context, op auth.Operation, input any) error
	Login(ctx context.Context, creds auth.Credentials) (auth.LoginResult, error)
	Register(ctx context.Context, reg auth.Registration) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (int, error)
	ConfirmPasswordReset(ctx context.Context, reset auth.PasswordReset) (int, error)
	FetchCurrentUser(ctx context.Context) (auth.User, error)
	Refresh(ctx context.Context) (session.Session, error)
	Logout(ctx context.Context) error
}

// SessionReader exposes the current session.
type SessionReader interface {
	Get() (session.Session, bool)
}

// Metrics records bridge traffic.
type Metrics interface {
	ObserveBridgeRequest(route string, status int)
	StreamOpened()
	StreamClosed()
}

type noopMetrics struct{}

func (noopMetrics) ObserveBridgeRequest(string, int) {}
func (noopMetrics) StreamOpened()                    {}
func (noopMetrics) StreamClosed()                    {}

// Options configures a Server. Auth, Sessions and Bus are required.
type Options struct {
	Addr           string
	Auth           Authenticator
	Sessions       SessionReader
	Bus            *events.Bus
	AllowedOrigins []string
	Metrics        Metrics
	Logger         *slog.Logger
}

// Server is the local bridge HTTP server.
type Server struct {
	addr     string
	auth     Authenticator
	sessions SessionReader
	bus      *events.Bus
	origins  *OriginMatcher
	upgrader websocket.Upgrader
	metrics  Metrics
	logger   *slog.Logger

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool

	streamMu sync.Mutex
	closed   bool
	done     chan struct{}
	streams  sync.WaitGroup
}

// New validates opts and builds a Server.
func New(opts Options) (*Server, error) {
	if opts.Auth == nil {
		return nil, oops.Errorf("authenticator is required")
	}
	if opts.Sessions == nil {
		return nil, oops.Errorf("session reader is required")
	}
	if opts.Bus == nil {
		return nil, oops.Errorf("event bus is required")
	}
	origins, err := NewOriginMatcher(opts.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:     opts.Addr,
		auth:     opts.Auth,
		sessions: opts.Sessions,
		bus:      opts.Bus,
		origins:  origins,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		done:     make(chan struct{}),
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.CheckOrigin,
	}
	return s, nil
}

// Handler returns the router with all bridge routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		s.observe,
		s.cors,
	)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)
	r.Put("/auth/forgetPassword", s.handleForgetPassword)
	r.Put("/auth/resetPassword", s.handleResetPassword)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/logout", s.handleLogout)
	r.Get("/user/userDetail", s.handleUserDetail)
	r.Get("/session", s.handleSession)
	r.Get("/events", s.handleEvents)
	return r
}

// Start begins serving. The returned channel receives a serve error, if any,
// and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("bridge server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("BRIDGE_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("bridge server error", "event", "serve_failed", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("bridge server started", "event", "server_started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop closes open event streams and shuts the server down. Stopping a
// stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.closeStreams()
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_bridge_server").Wrap(err)
		}
	}

	s.logger.Info("bridge server stopped", "event", "server_stopped")
	return nil
}

// closeStreams ends every websocket stream and waits for their goroutines.
// Streams opened afterwards are refused.
func (s *Server) closeStreams() {
	s.streamMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.streamMu.Unlock()
	s.streams.Wait()
}

// trackStream registers a stream goroutine, or reports false once the
// server is stopping.
func (s *Server) trackStream() bool {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()
	if s.closed {
		return false
	}
	s.streams.Add(1)
	return true
}

// Addr returns the listening address, or "" when not started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// observe logs each request once and counts it by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveBridgeRequest(route, status)

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "bridge request",
			"event", "bridge_request",
			"method", r.Method,
			"route", route,
			"status", status,
			"dur", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
