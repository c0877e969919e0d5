package cadence

import (
	"fmt"

	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
)

// command is a single-item transition. The engine snapshots the item, runs
// apply on a copy inside Store.Apply and reverts the journal if the save
// fails, so commands never implement their own undo.
type command interface {
	verb() string
	apply(it *progress.Item, ladder schedule.Ladder, today schedule.Date) error
	success(it progress.Item) string
}

type solveCmd struct{}

func (solveCmd) verb() string { return "solve" }

func (solveCmd) apply(it *progress.Item, ladder schedule.Ladder, today schedule.Date) error {
	it.Solve(ladder, today)
	return nil
}

func (solveCmd) success(it progress.Item) string {
	return fmt.Sprintf("Solved %s, next review %s", it.Name, it.NextReviewDate)
}

type reviewCmd struct{}

func (reviewCmd) verb() string { return "review" }

func (reviewCmd) apply(it *progress.Item, ladder schedule.Ladder, today schedule.Date) error {
	if !it.IsSolved() {
		return ErrNotSolved
	}
	it.Review(ladder, today)
	return nil
}

func (reviewCmd) success(it progress.Item) string {
	return fmt.Sprintf("Reviewed %s, next review %s", it.Name, it.NextReviewDate)
}

type resetCmd struct{}

func (resetCmd) verb() string { return "reset" }

func (resetCmd) apply(it *progress.Item, _ schedule.Ladder, _ schedule.Date) error {
	it.Reset()
	return nil
}

func (resetCmd) success(it progress.Item) string {
	return fmt.Sprintf("Reset %s", it.Name)
}

type noteCmd struct {
	note string
}

func (noteCmd) verb() string { return "note" }

func (c noteCmd) apply(it *progress.Item, _ schedule.Ladder, _ schedule.Date) error {
	it.Note = c.note
	return nil
}

func (noteCmd) success(it progress.Item) string {
	return fmt.Sprintf("Saved note for %s", it.Name)
}
