// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package bridge

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litscout/litscout/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	streamBuffer   = 64
)

// handleEvents upgrades to a websocket and forwards every bus event as a
// JSON text message until the client goes away or the server stops.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !s.trackStream() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.streams.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "event stream upgrade failed", "event", "upgrade_failed", "error", err.Error())
		return
	}

	stream, cancel := s.bus.Subscribe(streamBuffer)
	s.metrics.StreamOpened()
	s.logger.InfoContext(r.Context(), "event stream opened", "event", "stream_opened", "remote", r.RemoteAddr)

	readDone := make(chan struct{})
	go s.readPump(conn, readDone)

	reason := s.writePump(conn, stream, readDone)

	cancel()
	_ = conn.Close() //nolint:errcheck // already closing
	<-readDone
	s.metrics.StreamClosed()
	s.logger.InfoContext(r.Context(), "event stream closed", "event", "stream_closed", "reason", reason)
}

// readPump discards client messages and keeps the read deadline fresh on
// pongs. It returns when the connection fails or is closed.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // surfaced by ReadMessage
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, stream <-chan events.Event, readDone <-chan struct{}) string {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-stream:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by the write
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck // best effort
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "bus closed"))
				return "bus_closed"
			}
			if err := conn.WriteJSON(ev); err != nil {
				return "write_failed"
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by the write
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return "ping_failed"
			}
		case <-readDone:
			return "client_gone"
		case <-s.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by the write
			_ = conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck // best effort
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"))
			return "server_stopping"
		}
	}
}
