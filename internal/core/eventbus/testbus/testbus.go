// Package testbus provides test utilities for the event bus.
// It wraps a real EventBus with event recording and assertion helpers.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/cadence/internal/core/eventbus"
)

// RecordedEvent holds a captured event name and payload.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus wraps a real EventBus with event recording for tests.
type Bus struct {
	*eventbus.EventBus

	mu     sync.Mutex
	events []RecordedEvent
}

// New creates a running test bus that records every event type. The bus is
// stopped when the test completes.
func New(t *testing.T) *Bus {
	t.Helper()

	bus := eventbus.New(64)
	ctx, cancel := context.WithCancel(context.Background())

	tb := &Bus{EventBus: bus}

	bus.SubscribeIdentityChanged(func(p eventbus.IdentityChangedPayload) {
		tb.record(eventbus.EventIdentityChanged, p)
	})
	bus.SubscribeItemChanged(func(p eventbus.ItemChangedPayload) {
		tb.record(eventbus.EventItemChanged, p)
	})
	bus.SubscribeItemDeleted(func(p eventbus.ItemDeletedPayload) {
		tb.record(eventbus.EventItemDeleted, p)
	})
	bus.SubscribeMutationFailed(func(p eventbus.MutationFailedPayload) {
		tb.record(eventbus.EventMutationFailed, p)
	})
	bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
		tb.record(eventbus.EventNotificationPublished, p)
	})
	bus.SubscribeProgressLoaded(func(p eventbus.ProgressLoadedPayload) {
		tb.record(eventbus.EventProgressLoaded, p)
	})
	bus.SubscribeProgressReset(func(p eventbus.ProgressResetPayload) {
		tb.record(eventbus.EventProgressReset, p)
	})
	bus.SubscribeRegionDeleted(func(p eventbus.RegionDeletedPayload) {
		tb.record(eventbus.EventRegionDeleted, p)
	})
	bus.SubscribeReminderFired(func(p eventbus.ReminderFiredPayload) {
		tb.record(eventbus.EventReminderFired, p)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Start(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return tb
}

func (tb *Bus) record(event eventbus.Event, payload any) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = append(tb.events, RecordedEvent{Event: event, Payload: payload})
}

// Events returns a copy of all recorded events.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	out := make([]RecordedEvent, len(tb.events))
	copy(out, tb.events)
	return out
}

// Of returns the recorded payloads for one event type, oldest first.
func (tb *Bus) Of(event eventbus.Event) []any {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	var out []any
	for _, e := range tb.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

// Reset clears all recorded events.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = nil
}

// WaitFor blocks until an event of the given type is recorded or the timeout
// expires.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.After(timeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if len(tb.Of(event)) > 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-ticker.C:
		}
	}
}

// AssertPublished asserts that an event of the given type was recorded.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, 500*time.Millisecond) {
		t.Errorf("expected event %q to be published, but it was not", event)
	}
}

// AssertNotPublished asserts that an event of the given type was NOT recorded
// within the given wait period.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	time.Sleep(wait)
	if len(tb.Of(event)) > 0 {
		t.Errorf("expected event %q to NOT be published, but it was", event)
	}
}
