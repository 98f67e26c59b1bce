// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package events carries the side effects of auth operations to whoever
// renders them: navigation requests and user notifications.
package events

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Destination names a view the client should move to.
type Destination string

// Destinations requested by auth operations.
const (
	MainView    Destination = "mainView"
	LoginView   Destination = "loginView"
	LandingView Destination = "landingView"
)

// Category classifies a notification for display.
type Category string

// Notification categories.
const (
	CategorySuccess Category = "success"
	CategoryInfo    Category = "info"
	CategoryError   Category = "error"
)

// Notification is a user-facing message.
type Notification struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// Type identifies the kind of event.
type Type string

// Event types.
const (
	TypeNavigate Type = "navigate"
	TypeNotify   Type = "notify"
)

// Event is the envelope published on a Bus.
type Event struct {
	ID           ulid.ULID     `json:"id"`
	Type         Type          `json:"type"`
	Timestamp    time.Time     `json:"timestamp"`
	Destination  Destination   `json:"destination,omitempty"`
	URL          string        `json:"url,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// Emitter receives the side effects of auth operations. Implementations must
// not block the caller for long.
type Emitter interface {
	Navigate(ctx context.Context, dest Destination)
	Notify(ctx context.Context, n Notification)
}

// Routes resolves destinations to concrete locations.
type Routes map[Destination]string

// URL returns the location for dest, or the destination name when unmapped.
func (r Routes) URL(dest Destination) string {
	if u, ok := r[dest]; ok && u != "" {
		return u
	}
	return string(dest)
}

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewID returns a monotonic ULID.
func NewID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// Multi fans every call out to each emitter in order. Nil entries are skipped.
func Multi(emitters ...Emitter) Emitter {
	out := make(multi, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type multi []Emitter

func (m multi) Navigate(ctx context.Context, dest Destination) {
	for _, e := range m {
		e.Navigate(ctx, dest)
	}
}

func (m multi) Notify(ctx context.Context, n Notification) {
	for _, e := range m {
		e.Notify(ctx, n)
	}
}

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Navigate(context.Context, Destination) {}
func (discard) Notify(context.Context, Notification)  {}
