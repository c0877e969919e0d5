package cadence

import (
	"errors"

	"github.com/colonyops/cadence/internal/core/progress"
)

var (
	// ErrNotFound is returned for ids the store does not hold.
	ErrNotFound = progress.ErrNotFound
	// ErrNotSolved rejects a review of an item that was never solved.
	ErrNotSolved = errors.New("item is not solved")
	// ErrCancelled is returned when the Confirmer declines a bulk operation.
	ErrCancelled = errors.New("cancelled")
	// ErrEmptyRegion is returned when a bulk delete matches nothing.
	ErrEmptyRegion = errors.New("nothing to delete")
)
