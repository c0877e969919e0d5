// Package progress defines the tracked-item model and the in-memory item
// store with its tombstone set.
package progress

import (
	"errors"
	"strings"

	"github.com/colonyops/cadence/internal/core/schedule"
)

var (
	// ErrNotFound is returned when an item id is not in the store.
	ErrNotFound = errors.New("item not found")
	// ErrExists is returned when creating an item whose id is already taken.
	ErrExists = errors.New("item already exists")
	// ErrDeleted is returned when writing an id that has been tombstoned.
	ErrDeleted = errors.New("item has been deleted")
)

// CustomPrefix marks ids generated for user-created problems.
const CustomPrefix = "custom-"

// Status is the solve state of an item.
type Status string

const (
	StatusUnsolved Status = "unsolved"
	StatusSolved   Status = "solved"
)

// Item is the persisted progress state of one problem.
type Item struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	URL            string         `json:"url"`
	Topic          string         `json:"topic"`
	Pattern        string         `json:"pattern"`
	Status         Status         `json:"status"`
	ReviewInterval int            `json:"reviewInterval"`
	NextReviewDate *schedule.Date `json:"nextReviewDate"`
	Note           string         `json:"note,omitempty"`
}

// New returns an unsolved, unscheduled item.
func New(id, name, url, topic, pattern string) Item {
	return Item{
		ID:      id,
		Name:    name,
		URL:     url,
		Topic:   topic,
		Pattern: pattern,
		Status:  StatusUnsolved,
	}
}

// IsCustom reports whether the id was generated for a user-created problem.
func IsCustom(id string) bool {
	return strings.HasPrefix(id, CustomPrefix)
}

// Clone returns a deep copy of it.
func (it Item) Clone() Item {
	if it.NextReviewDate != nil {
		d := *it.NextReviewDate
		it.NextReviewDate = &d
	}
	return it
}

// IsSolved reports whether the item has been solved at least once since the
// last reset.
func (it Item) IsSolved() bool { return it.Status == StatusSolved }

// IsDue reports whether a solved item's review date is on or before today.
func (it Item) IsDue(today schedule.Date) bool {
	return it.IsSolved() && it.NextReviewDate != nil && !it.NextReviewDate.After(today)
}

// Solve marks the item solved and schedules the first review.
func (it *Item) Solve(ladder schedule.Ladder, today schedule.Date) {
	next := ladder.Next(today, 0)
	it.Status = StatusSolved
	it.ReviewInterval = 0
	it.NextReviewDate = &next
}

// Review advances the item one rung (saturating at the last) and reschedules
// from today.
func (it *Item) Review(ladder schedule.Ladder, today schedule.Date) {
	it.ReviewInterval = ladder.Clamp(it.ReviewInterval + 1)
	next := ladder.Next(today, it.ReviewInterval)
	it.NextReviewDate = &next
}

// Reset returns the item to unsolved with no schedule.
func (it *Item) Reset() {
	it.Status = StatusUnsolved
	it.ReviewInterval = 0
	it.NextReviewDate = nil
}

// Normalize repairs an item that violates the status/schedule invariant and
// reports whether anything changed. Unsolved items lose their schedule; solved
// items without a date are rescheduled from today at their interval.
func (it *Item) Normalize(ladder schedule.Ladder, today schedule.Date) bool {
	changed := false

	if it.Status != StatusSolved && it.Status != StatusUnsolved {
		it.Status = StatusUnsolved
		changed = true
	}

	switch it.Status {
	case StatusUnsolved:
		if it.ReviewInterval != 0 || it.NextReviewDate != nil {
			it.Reset()
			changed = true
		}
	case StatusSolved:
		if clamped := ladder.Clamp(it.ReviewInterval); clamped != it.ReviewInterval {
			it.ReviewInterval = clamped
			changed = true
		}
		if it.NextReviewDate == nil || it.NextReviewDate.IsZero() {
			next := ladder.Next(today, it.ReviewInterval)
			it.NextReviewDate = &next
			changed = true
		}
	}

	return changed
}
