package commands

import (
	"context"
	"strings"

	"github.com/colonyops/cadence/internal/cadence"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type ProgressCmd struct {
	flags *Flags

	jsonOutput bool
}

// NewProgressCmd creates the solve, review, reset and note commands.
func NewProgressCmd(flags *Flags) *ProgressCmd {
	return &ProgressCmd{flags: flags}
}

// Register adds the single-item mutation commands to the application.
func (cmd *ProgressCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := &cli.BoolFlag{
		Name:        "json",
		Usage:       "print the updated problem as JSON",
		Destination: &cmd.jsonOutput,
	}

	single := func(name, usage, description string, fn func(*cadence.Engine, context.Context, string) (progress.Item, error)) *cli.Command {
		return &cli.Command{
			Name:          name,
			Usage:         usage,
			UsageText:     "cadence " + name + " <id>",
			Description:   description,
			Flags:         []cli.Flag{jsonFlag},
			ShellComplete: ItemIDCompleter(cmd.flags),
			Action: func(ctx context.Context, c *cli.Command) error {
				id, err := requireArg(c, "id")
				if err != nil {
					return err
				}
				a, err := cmd.flags.App(ctx)
				if err != nil {
					return err
				}
				it, err := fn(a.Engine, ctx, id)
				if err != nil {
					return err
				}
				return cmd.print(c, it)
			},
		}
	}

	app.Commands = append(app.Commands,
		single("solve", "Mark a problem solved and schedule its first review",
			"Solving (or re-solving) restarts the review ladder at its first step.",
			(*cadence.Engine).Solve),
		single("review", "Record a review and move to the next interval",
			"Only solved problems can be reviewed. Reviews may happen before the due date.",
			(*cadence.Engine).Review),
		single("reset", "Mark a problem unsolved and clear its schedule", "",
			(*cadence.Engine).Reset),
		&cli.Command{
			Name:          "note",
			Usage:         "Replace the note on a problem",
			UsageText:     "cadence note <id> <text...>",
			Description:   "Notes are markdown and are rendered by 'cadence show'. An empty text clears the note.",
			Flags:         []cli.Flag{jsonFlag},
			ShellComplete: ItemIDCompleter(cmd.flags),
			Action:        cmd.runNote,
		},
	)

	return app
}

func (cmd *ProgressCmd) runNote(ctx context.Context, c *cli.Command) error {
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	note := strings.Join(c.Args().Tail(), " ")

	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	it, err := a.Engine.EditNote(ctx, id, note)
	if err != nil {
		return err
	}
	return cmd.print(c, it)
}

func (cmd *ProgressCmd) print(c *cli.Command, it progress.Item) error {
	if !cmd.jsonOutput {
		return nil
	}
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, it)
}
