// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package events

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Writer renders events as plain lines, for terminal use.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	routes Routes
}

// NewWriter creates a Writer that prints to w.
func NewWriter(w io.Writer, routes Routes) *Writer {
	return &Writer{w: w, routes: routes}
}

// Navigate prints the destination and its URL.
func (w *Writer) Navigate(_ context.Context, dest Destination) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.w, "-> %s (%s)\n", dest, w.routes.URL(dest)) //nolint:errcheck // best-effort display
}

// Notify prints the category and message.
func (w *Writer) Notify(_ context.Context, n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.w, "[%s] %s\n", n.Category, n.Message) //nolint:errcheck // best-effort display
}
