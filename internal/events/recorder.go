// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package events

import (
	"context"
	"sync"
)

// Recorder keeps every event in memory. It backs one-shot CLI commands that
// need to inspect what an operation emitted, and tests.
type Recorder struct {
	mu            sync.Mutex
	navigations   []Destination
	notifications []Notification
}

// Navigate records dest.
func (r *Recorder) Navigate(_ context.Context, dest Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, dest)
}

// Notify records n.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// Navigations returns a copy of the recorded destinations.
func (r *Recorder) Navigations() []Destination {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Destination(nil), r.navigations...)
}

// Notifications returns a copy of the recorded notifications.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = nil
	r.notifications = nil
}
