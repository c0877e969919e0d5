// Package cadence is the sync engine: every progress mutation is applied to
// the in-memory store optimistically, persisted through the active adapter,
// and rolled back in full when the save fails.
package cadence

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/colonyops/cadence/internal/core/catalog"
	"github.com/colonyops/cadence/internal/core/eventbus"
	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/core/logging"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/colonyops/cadence/pkg/kv"
	"github.com/rs/zerolog"
)

// Options tunes the engine.
type Options struct {
	Ladder schedule.Ladder
	// MinPending keeps the loading marker up at least this long.
	MinPending time.Duration
	// SafetyTimeout clears a loading marker whose save has not returned. It
	// does not roll anything back.
	SafetyTimeout time.Duration
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		Ladder:        schedule.DefaultLadder,
		MinPending:    300 * time.Millisecond,
		SafetyTimeout: 5 * time.Second,
	}
}

// Deps are the collaborators injected into the engine. Catalog and Selector
// are required; the rest have usable defaults.
type Deps struct {
	Catalog   *catalog.Catalog
	Selector  persist.Selector
	Identity  identity.Identity
	Store     *progress.Store
	Notifier  notify.Notifier
	Confirmer Confirmer
	Clock     schedule.Clock
	Bus       *eventbus.EventBus
	Log       zerolog.Logger
}

// UIState is per-item session state that is never persisted.
type UIState struct {
	Loading     bool
	NoteVisible bool
}

// Selector is the active view selection a bulk delete may change.
type Selector struct {
	Filter catalog.Filter
	Topic  string
}

// Engine owns the session's item store and routes every mutation through
// the snapshot, apply, persist, commit-or-rollback protocol.
type Engine struct {
	cat       *catalog.Catalog
	store     *progress.Store
	selector  persist.Selector
	notifier  notify.Notifier
	confirmer Confirmer
	clock     schedule.Clock
	bus       *eventbus.EventBus
	log       zerolog.Logger
	opts      Options

	ui *kv.Store[string, UIState]

	mu      sync.RWMutex
	ident   identity.Identity
	adapter persist.Adapter
	view    Selector
}

// NewEngine selects the adapter for deps.Identity and returns an engine with
// an empty store. Call Load before use.
func NewEngine(deps Deps, opts Options) (*Engine, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("new engine: catalog is required")
	}
	if deps.Selector == nil {
		return nil, fmt.Errorf("new engine: adapter selector is required")
	}
	if len(opts.Ladder) == 0 {
		opts.Ladder = schedule.DefaultLadder
	}
	if deps.Identity.Mode == "" {
		deps.Identity = identity.Local()
	}

	adapter, err := deps.Selector.Select(deps.Identity)
	if err != nil {
		return nil, fmt.Errorf("new engine: select adapter for %s: %w", deps.Identity, err)
	}

	e := &Engine{
		cat:       deps.Catalog,
		store:     deps.Store,
		selector:  deps.Selector,
		notifier:  deps.Notifier,
		confirmer: deps.Confirmer,
		clock:     deps.Clock,
		bus:       deps.Bus,
		log:       logging.ComponentOf(deps.Log, "engine"),
		opts:      opts,
		ui:        kv.New[string, UIState](),
		ident:     deps.Identity,
		adapter:   adapter,
		view:      Selector{Filter: catalog.FilterAll},
	}
	if e.store == nil {
		e.store = progress.NewStore()
	}
	if e.notifier == nil {
		e.notifier = notify.Nop
	}
	if e.confirmer == nil {
		e.confirmer = AlwaysConfirm
	}
	if e.clock == nil {
		e.clock = schedule.SystemClock
	}
	return e, nil
}

// Store exposes the item store for read access.
func (e *Engine) Store() *progress.Store { return e.store }

// Catalog returns the reference catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Ladder returns the review ladder in use.
func (e *Engine) Ladder() schedule.Ladder { return e.opts.Ladder }

// Today is the current date according to the engine clock.
func (e *Engine) Today() schedule.Date { return schedule.Today(e.clock) }

// Identity returns the active identity.
func (e *Engine) Identity() identity.Identity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ident
}

// Adapter returns the active persistence adapter.
func (e *Engine) Adapter() persist.Adapter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.adapter
}

// Selector returns the active view selection.
func (e *Engine) Selector() Selector {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// SetSelector replaces the active view selection.
func (e *Engine) SetSelector(sel Selector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = sel
}

// Load replaces the store with the adapter's document, repairs items that
// break the status/schedule invariant and materializes missing catalog items.
func (e *Engine) Load(ctx context.Context) error {
	adapter := e.Adapter()
	created, err := e.loadFrom(ctx, adapter)
	if err != nil {
		return err
	}
	e.publishLoaded(adapter, created)
	return nil
}

// SwitchIdentity selects the adapter for id and reloads from it. When the
// load fails the previous identity and store are kept.
func (e *Engine) SwitchIdentity(ctx context.Context, id identity.Identity) error {
	adapter, err := e.selector.Select(id)
	if err != nil {
		return fmt.Errorf("switch identity to %s: %w", id, err)
	}

	created, err := e.loadFrom(ctx, adapter)
	if err != nil {
		return fmt.Errorf("switch identity to %s: %w", id, err)
	}

	e.mu.Lock()
	e.ident = id
	e.adapter = adapter
	e.view = Selector{Filter: catalog.FilterAll}
	e.mu.Unlock()
	e.ui.Clear()

	e.log.Info().Str("identity", id.String()).Str("adapter", adapter.Name()).Msg("identity switched")
	e.publishLoaded(adapter, created)
	if e.bus != nil {
		e.bus.PublishIdentityChanged(eventbus.IdentityChangedPayload{Identity: id})
	}
	return nil
}

func (e *Engine) loadFrom(ctx context.Context, adapter persist.Adapter) (int, error) {
	data, err := adapter.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load via %s: %w", adapter.Name(), err)
	}

	if repaired := data.Normalize(e.opts.Ladder, e.Today()); len(repaired) > 0 {
		e.log.Warn().Strs("ids", repaired).Msg("repaired stored items with inconsistent schedule")
	}

	e.store.Replace(data)
	created := catalog.Materialize(e.cat, e.store)
	e.log.Debug().
		Str("adapter", adapter.Name()).
		Int("items", e.store.Len()).
		Int("materialized", created).
		Msg("progress loaded")
	return created, nil
}

func (e *Engine) publishLoaded(adapter persist.Adapter, created int) {
	if e.bus == nil {
		return
	}
	e.bus.PublishProgressLoaded(eventbus.ProgressLoadedPayload{
		Adapter: adapter.Name(),
		Items:   e.store.Len(),
		Created: created,
	})
}

// View projects the catalog and store. A zero opts.Today is filled from the
// engine clock.
func (e *Engine) View(opts catalog.ViewOptions) catalog.View {
	if opts.Today.IsZero() {
		opts.Today = e.Today()
	}
	return catalog.BuildView(e.cat, e.store, opts)
}

// ActiveView projects the store through the active selector.
func (e *Engine) ActiveView() catalog.View {
	sel := e.Selector()
	return e.View(catalog.ViewOptions{Filter: sel.Filter, Topic: sel.Topic})
}

// Stats counts unique, solved and due items across the whole view.
func (e *Engine) Stats() catalog.Stats {
	today := e.Today()
	return e.View(catalog.ViewOptions{Today: today}).Stats(today)
}

// Item returns one item.
func (e *Engine) Item(id string) (progress.Item, error) {
	it, ok := e.store.Get(id)
	if !ok {
		return progress.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	return it, nil
}

// DueItems lists solved items due on or before today, most overdue first,
// ties broken by id.
func (e *Engine) DueItems(today schedule.Date) []progress.Item {
	var due []progress.Item
	for _, it := range e.store.All() {
		if it.IsDue(today) {
			due = append(due, it)
		}
	}
	slices.SortStableFunc(due, func(a, b progress.Item) int {
		return a.NextReviewDate.Compare(*b.NextReviewDate)
	})
	return due
}

// UIState returns the session state of id.
func (e *Engine) UIState(id string) UIState {
	s, _ := e.ui.Get(id)
	return s
}

// ToggleNote flips note visibility for id and returns the new value.
func (e *Engine) ToggleNote(id string) (bool, error) {
	if !e.store.Has(id) {
		return false, fmt.Errorf("toggle note %q: %w", id, ErrNotFound)
	}
	s := e.ui.Update(id, func(s UIState) (UIState, bool) {
		s.NoteVisible = !s.NoteVisible
		return s, s != UIState{}
	})
	return s.NoteVisible, nil
}

func (e *Engine) setLoading(ids []string, loading bool) {
	for _, id := range ids {
		e.ui.Update(id, func(s UIState) (UIState, bool) {
			s.Loading = loading
			return s, s != UIState{}
		})
	}
}
