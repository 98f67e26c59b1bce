// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// DropCounter counts events dropped because a subscriber was full.
type DropCounter interface {
	Inc()
}

// Bus distributes events to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	closed  bool
	routes  Routes
	dropped DropCounter
	logger  *slog.Logger
	now     func() time.Time
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithRoutes sets the destination URLs attached to navigation events.
func WithRoutes(r Routes) BusOption {
	return func(b *Bus) { b.routes = r }
}

// WithDropCounter records dropped deliveries.
func WithDropCounter(c DropCounter) BusOption {
	return func(b *Bus) { b.dropped = c }
}

// WithLogger sets the logger used for drop warnings.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[chan Event]struct{}),
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber with the given buffer size (DefaultBuffer
// when <= 0). The returned cancel func unsubscribes and closes the channel; it
// is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(ch) })
	}
}

func (b *Bus) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Navigate publishes a navigation event.
func (b *Bus) Navigate(_ context.Context, dest Destination) {
	b.Publish(Event{Type: TypeNavigate, Destination: dest, URL: b.routes.URL(dest)})
}

// Notify publishes a notification event.
func (b *Bus) Notify(_ context.Context, n Notification) {
	b.Publish(Event{Type: TypeNotify, Notification: &n})
}

// Publish stamps ev with an ID and timestamp when unset and delivers it to
// every subscriber that has room.
func (b *Bus) Publish(ev Event) {
	if ev.ID.IsZero() {
		ev.ID = NewID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = b.now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			if b.dropped != nil {
				b.dropped.Inc()
			}
			b.logger.Warn("event dropped: subscriber buffer full",
				"event", "event_dropped",
				"event_id", ev.ID.String(),
				"event_type", string(ev.Type),
			)
		}
	}
}

// Close unsubscribes everyone. Later subscriptions receive a closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
