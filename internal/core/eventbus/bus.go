package eventbus

import (
	"context"
	"sync"
)

// Event names a published event type.
type Event string

type envelope struct {
	event   Event
	payload any
}

// EventBus is a buffered, single-dispatcher publish/subscribe bus. Publish
// never blocks: when the buffer is full the event is dropped and the OnDrop
// hooks fire. Subscribers run on the dispatcher goroutine started by Start.
type EventBus struct {
	ch chan envelope

	mu   sync.RWMutex
	subs map[Event][]func(any)

	hookMu      sync.RWMutex
	onPublish   []func(Event, any)
	onDrop      []func(Event, any)
	onSubscribe []func(Event)
	onPanic     []func(Event, any, any)
}

// New returns a bus with the given buffer size.
func New(buffer int) *EventBus {
	if buffer <= 0 {
		buffer = 64
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled, then drains whatever is
// still buffered before returning.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-bus.ch:
					bus.dispatch(env)
				default:
					return
				}
			}
		}
	}
}

// OnPublish registers a hook that fires after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(Event, any)) {
	bus.hookMu.Lock()
	defer bus.hookMu.Unlock()
	bus.onPublish = append(bus.onPublish, fn)
}

// OnDrop registers a hook that fires when an event is dropped because the
// buffer is full.
func (bus *EventBus) OnDrop(fn func(Event, any)) {
	bus.hookMu.Lock()
	defer bus.hookMu.Unlock()
	bus.onDrop = append(bus.onDrop, fn)
}

// OnSubscribe registers a hook that fires after a subscriber is added.
func (bus *EventBus) OnSubscribe(fn func(Event)) {
	bus.hookMu.Lock()
	defer bus.hookMu.Unlock()
	bus.onSubscribe = append(bus.onSubscribe, fn)
}

// OnPanic registers a hook that fires when a subscriber panics.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) {
	bus.hookMu.Lock()
	defer bus.hookMu.Unlock()
	bus.onPanic = append(bus.onPanic, fn)
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()

	bus.hookMu.RLock()
	hooks := append([]func(Event){}, bus.onSubscribe...)
	bus.hookMu.RUnlock()
	for _, h := range hooks {
		h(event)
	}
}

func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.fire(bus.publishHooks(), event, payload)
	default:
		bus.fire(bus.dropHooks(), event, payload)
	}
}

func (bus *EventBus) publishHooks() []func(Event, any) {
	bus.hookMu.RLock()
	defer bus.hookMu.RUnlock()
	return append([]func(Event, any){}, bus.onPublish...)
}

func (bus *EventBus) dropHooks() []func(Event, any) {
	bus.hookMu.RLock()
	defer bus.hookMu.RUnlock()
	return append([]func(Event, any){}, bus.onDrop...)
}

func (bus *EventBus) fire(hooks []func(Event, any), event Event, payload any) {
	for _, h := range hooks {
		h(event, payload)
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := append([]func(any){}, bus.subs[env.event]...)
	bus.mu.RUnlock()

	for _, fn := range subs {
		bus.call(env, fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.hookMu.RLock()
			hooks := append([]func(Event, any, any){}, bus.onPanic...)
			bus.hookMu.RUnlock()
			for _, h := range hooks {
				func() {
					defer func() { _ = recover() }()
					h(env.event, env.payload, r)
				}()
			}
		}
	}()
	fn(env.payload)
}
