package cadence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/cadence/internal/core/eventbus"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
)

// mutation is one optimistic change. apply runs inside Store.Apply so every
// id it touches is journaled; view, when set, maps the active selector to
// its optimistic value.
type mutation struct {
	action string
	apply  func(tx *progress.Tx, today schedule.Date) error
	view   func(Selector) Selector
}

// mutate runs the protocol: snapshot and apply under the store lock, mark
// the touched ids loading, save, then keep the change or revert the journal
// and the selector.
func (e *Engine) mutate(ctx context.Context, m mutation) (*progress.Journal, error) {
	today := e.Today()
	prevView := e.Selector()

	journal, err := e.store.Apply(func(tx *progress.Tx) error {
		return m.apply(tx, today)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.action, err)
	}
	if m.view != nil {
		e.SetSelector(m.view(prevView))
	}

	ids := journal.IDs()
	e.setLoading(ids, true)

	var safety *time.Timer
	if e.opts.SafetyTimeout > 0 {
		safety = time.AfterFunc(e.opts.SafetyTimeout, func() {
			e.log.Warn().
				Str("action", m.action).
				Strs("ids", ids).
				Dur("timeout", e.opts.SafetyTimeout).
				Msg("save still pending, clearing loading marker")
			e.setLoading(ids, false)
		})
	}

	start := time.Now()
	adapter := e.Adapter()
	saveErr := adapter.Save(ctx, e.store.Export())

	if safety != nil {
		safety.Stop()
	}
	if rem := e.opts.MinPending - time.Since(start); rem > 0 {
		time.Sleep(rem)
	}

	if saveErr != nil {
		e.store.Revert(journal)
		if m.view != nil {
			e.SetSelector(prevView)
		}
		e.setLoading(ids, false)
		e.fail(ctx, m.action, ids, saveErr)
		return nil, fmt.Errorf("%s: save via %s: %w", m.action, adapter.Name(), saveErr)
	}

	e.setLoading(ids, false)
	e.log.Debug().Str("action", m.action).Strs("ids", ids).Msg("mutation saved")
	return journal, nil
}

func (e *Engine) fail(ctx context.Context, action string, ids []string, err error) {
	e.log.Error().Err(err).Str("action", action).Strs("ids", ids).Msg("save failed, changes rolled back")

	e.toast(ctx, notify.LevelError, failureMessage(err))
	if e.bus != nil {
		e.bus.PublishMutationFailed(eventbus.MutationFailedPayload{
			Action: action,
			IDs:    ids,
			Err:    err,
		})
	}
}

func failureMessage(err error) string {
	if errors.Is(err, persist.ErrAuthFailed) {
		return "Your session has expired. Sign in again to keep saving progress."
	}
	msg := err.Error()
	var perr *persist.Error
	if errors.As(err, &perr) && perr.Message != "" {
		msg = perr.Message
	}
	return "Could not save progress: " + msg
}

// toast delivers a notification even when ctx is already cancelled.
func (e *Engine) toast(ctx context.Context, level notify.Level, msg string) {
	err := e.notifier.Notify(context.WithoutCancel(ctx), notify.Notification{
		Level:     level,
		Message:   msg,
		CreatedAt: e.clock.Now(),
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("notification delivery failed")
	}
}
