package commands

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/colonyops/cadence/internal/cadence"
	"golang.org/x/term"
)

// ErrNeedsConfirmation is returned when a destructive command runs without a
// terminal and without --yes.
var ErrNeedsConfirmation = errors.New("confirmation required: rerun with --yes")

// TerminalConfirmer asks on the terminal before bulk deletes and resets.
type TerminalConfirmer struct {
	Yes bool
	In  *os.File
}

var _ cadence.Confirmer = (*TerminalConfirmer)(nil)

func (c *TerminalConfirmer) Confirm(ctx context.Context, title, message string) (bool, error) {
	if c.Yes {
		return true, nil
	}
	if c.In == nil || !term.IsTerminal(int(c.In.Fd())) {
		return false, ErrNeedsConfirmation
	}

	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(message).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}
