package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Nop discards every notification.
var Nop Notifier = NotifierFunc(func(context.Context, Notification) error { return nil })

// Multi fans a notification out to every notifier and joins their errors.
func Multi(ns ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, n Notification) error {
		var errs []error
		for _, x := range ns {
			if err := x.Notify(ctx, n); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	return nil
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// StoreNotifier records notifications into a Store and logs them.
type StoreNotifier struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewStoreNotifier returns a notifier backed by store.
func NewStoreNotifier(store Store, log zerolog.Logger) *StoreNotifier {
	return &StoreNotifier{store: store, log: log, now: time.Now}
}

func (s *StoreNotifier) Notify(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}

	ev := s.log.Info()
	if n.Level == LevelError {
		ev = s.log.Warn()
	}
	ev.Str("level", string(n.Level)).Msg(n.Message)

	_, err := s.store.Save(ctx, n)
	return err
}
