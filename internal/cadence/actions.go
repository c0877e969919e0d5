package cadence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/colonyops/cadence/internal/core/catalog"
	"github.com/colonyops/cadence/internal/core/eventbus"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/colonyops/cadence/internal/core/validate"
	"github.com/colonyops/cadence/pkg/randid"
	"github.com/hay-kot/criterio"
)

// Solve marks id solved and schedules its first review.
func (e *Engine) Solve(ctx context.Context, id string) (progress.Item, error) {
	return e.run(ctx, id, solveCmd{})
}

// Review advances a solved item one rung up the ladder. Reviewing before the
// due date is allowed; reviewing an unsolved item returns ErrNotSolved.
func (e *Engine) Review(ctx context.Context, id string) (progress.Item, error) {
	return e.run(ctx, id, reviewCmd{})
}

// Reset returns id to unsolved.
func (e *Engine) Reset(ctx context.Context, id string) (progress.Item, error) {
	return e.run(ctx, id, resetCmd{})
}

// EditNote replaces the note on id.
func (e *Engine) EditNote(ctx context.Context, id, note string) (progress.Item, error) {
	if err := validate.NoteField("note", note); err != nil {
		return progress.Item{}, err
	}
	return e.run(ctx, id, noteCmd{note: note})
}

func (e *Engine) run(ctx context.Context, id string, cmd command) (progress.Item, error) {
	var out progress.Item
	_, err := e.mutate(ctx, mutation{
		action: cmd.verb(),
		apply: func(tx *progress.Tx, today schedule.Date) error {
			it, err := tx.Update(id, func(it *progress.Item) error {
				return cmd.apply(it, e.opts.Ladder, today)
			})
			if err != nil {
				return fmt.Errorf("%q: %w", id, err)
			}
			out = it
			return nil
		},
	})
	if err != nil {
		return progress.Item{}, err
	}

	e.toast(ctx, notify.LevelSuccess, cmd.success(out))
	e.publishChanged(cmd.verb(), out)
	return out, nil
}

// CustomItem is the input for AddCustomItem.
type CustomItem struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Validate checks every field and returns criterio field errors.
func (c CustomItem) Validate() error {
	return criterio.ValidateStruct(
		validate.NameField("name", c.Name),
		validate.URLField("url", c.URL),
		validate.LabelField("topic", c.Topic),
		validate.LabelField("pattern", c.Pattern),
		validate.NoteField("note", c.Note),
	)
}

const maxIDAttempts = 8

// AddCustomItem stores a new user-defined problem under a fresh
// custom-<millis>-<rand> id. Empty labels fall into the synthetic custom
// topic and pattern when the view is built.
func (e *Engine) AddCustomItem(ctx context.Context, in CustomItem) (progress.Item, error) {
	if err := in.Validate(); err != nil {
		return progress.Item{}, err
	}

	var out progress.Item
	_, err := e.mutate(ctx, mutation{
		action: "add",
		apply: func(tx *progress.Tx, _ schedule.Date) error {
			id, err := e.newCustomID(tx)
			if err != nil {
				return err
			}
			it := progress.New(id,
				strings.TrimSpace(in.Name),
				strings.TrimSpace(in.URL),
				strings.TrimSpace(in.Topic),
				strings.TrimSpace(in.Pattern),
			)
			it.Note = in.Note
			if err := tx.Put(it); err != nil {
				return err
			}
			out = it
			return nil
		},
	})
	if err != nil {
		return progress.Item{}, err
	}

	e.toast(ctx, notify.LevelSuccess, fmt.Sprintf("Added %s", out.Name))
	e.publishChanged("add", out)
	return out, nil
}

func (e *Engine) newCustomID(tx *progress.Tx) (string, error) {
	for range maxIDAttempts {
		id := progress.CustomPrefix + strconv.FormatInt(e.clock.Now().UnixMilli(), 10) + "-" + randid.Generate(4)
		if !tx.Has(id) && !tx.IsDeleted(id) && !e.cat.Has(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique id after %d attempts", maxIDAttempts)
}

// Delete removes and tombstones id. A failed save restores the item and
// clears the tombstone in one step.
func (e *Engine) Delete(ctx context.Context, id string) error {
	var removed progress.Item
	_, err := e.mutate(ctx, mutation{
		action: "delete",
		apply: func(tx *progress.Tx, _ schedule.Date) error {
			it, err := tx.Remove(id)
			if err != nil {
				return fmt.Errorf("%q: %w", id, err)
			}
			removed = it
			return nil
		},
	})
	if err != nil {
		return err
	}

	e.toast(ctx, notify.LevelSuccess, fmt.Sprintf("Deleted %s", removed.Name))
	if e.bus != nil {
		e.bus.PublishItemDeleted(eventbus.ItemDeletedPayload{ID: id})
	}
	return nil
}

// DeleteCategory tombstones every item in topic: the catalog problems placed
// under it and the stored items labelled with it. When the active selector
// points at topic it falls back to all topics; a failed save restores the
// whole region and the selector together.
func (e *Engine) DeleteCategory(ctx context.Context, topic string) ([]string, error) {
	region := e.region(topic, "")
	return e.deleteRegion(ctx, topic, "", region,
		fmt.Sprintf("Delete %d problems in %q?", len(region), topic))
}

// DeletePattern is DeleteCategory narrowed to one pattern of a topic.
func (e *Engine) DeletePattern(ctx context.Context, topic, pattern string) ([]string, error) {
	region := e.region(topic, pattern)
	return e.deleteRegion(ctx, topic, pattern, region,
		fmt.Sprintf("Delete %d problems in %q / %q?", len(region), topic, pattern))
}

// region lists the ids currently present in the topic (and pattern, when
// set). Catalog placement and stored labels both count.
func (e *Engine) region(topic, pattern string) []string {
	var catalogIDs []string
	if pattern == "" {
		catalogIDs = e.cat.TopicIDs(topic)
	} else {
		catalogIDs = e.cat.PatternIDs(topic, pattern)
	}

	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, id := range catalogIDs {
		if e.store.Has(id) {
			add(id)
		}
	}
	for _, it := range e.store.All() {
		if catalog.TopicOf(it) == topic && (pattern == "" || catalog.PatternOf(it) == pattern) {
			add(it.ID)
		}
	}
	return ids
}

func (e *Engine) deleteRegion(ctx context.Context, topic, pattern string, region []string, prompt string) ([]string, error) {
	action := "delete topic"
	if pattern != "" {
		action = "delete pattern"
	}
	if len(region) == 0 {
		return nil, fmt.Errorf("%s %q: %w", action, topic, ErrEmptyRegion)
	}

	ok, err := e.confirmer.Confirm(ctx, strings.ToUpper(action[:1])+action[1:], prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: confirm: %w", action, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", action, ErrCancelled)
	}

	var removed []string
	_, err = e.mutate(ctx, mutation{
		action: action,
		apply: func(tx *progress.Tx, _ schedule.Date) error {
			removed = removed[:0]
			for _, id := range region {
				if !tx.Has(id) {
					continue
				}
				if _, err := tx.Remove(id); err != nil {
					return fmt.Errorf("%q: %w", id, err)
				}
				removed = append(removed, id)
			}
			return nil
		},
		view: func(sel Selector) Selector {
			if pattern == "" && sel.Topic == topic {
				sel.Topic = ""
			}
			return sel
		},
	})
	if err != nil {
		return nil, err
	}

	if e.bus != nil {
		e.bus.PublishRegionDeleted(eventbus.RegionDeletedPayload{
			Topic:   topic,
			Pattern: pattern,
			IDs:     removed,
		})
	}
	return removed, nil
}

// ResetAll drops every item and tombstone, including custom problems, and
// rebuilds the catalog defaults.
func (e *Engine) ResetAll(ctx context.Context) error {
	ok, err := e.confirmer.Confirm(ctx, "Reset all progress",
		fmt.Sprintf("Reset progress for all %d problems? Custom problems and deletions are discarded.", e.store.Len()))
	if err != nil {
		return fmt.Errorf("reset all: confirm: %w", err)
	}
	if !ok {
		return fmt.Errorf("reset all: %w", ErrCancelled)
	}

	_, err = e.mutate(ctx, mutation{
		action: "reset all",
		apply: func(tx *progress.Tx, _ schedule.Date) error {
			for _, it := range tx.Items() {
				tx.Drop(it.ID)
			}
			tx.ClearTombstones()
			catalog.MaterializeTx(e.cat, tx)
			return nil
		},
		view: func(Selector) Selector {
			return Selector{Filter: catalog.FilterAll}
		},
	})
	if err != nil {
		return err
	}

	if e.bus != nil {
		e.bus.PublishProgressReset(eventbus.ProgressResetPayload{Items: e.store.Len()})
	}
	return nil
}

func (e *Engine) publishChanged(action string, it progress.Item) {
	if e.bus == nil {
		return
	}
	e.bus.PublishItemChanged(eventbus.ItemChangedPayload{Action: action, Item: it})
}

