package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/colonyops/cadence/internal/cadence"
	"github.com/colonyops/cadence/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type ItemsCmd struct {
	flags *Flags

	// add flags
	item   cadence.CustomItem
	reader iojson.FileReader[cadence.CustomItem]
}

// NewItemsCmd creates the add, delete and reset-all commands.
func NewItemsCmd(flags *Flags) *ItemsCmd {
	return &ItemsCmd{flags: flags}
}

// Register adds the item management commands to the application.
func (cmd *ItemsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "add",
			Usage:     "Add a custom problem",
			UsageText: "cadence add --name <name> [--url <url>] [--topic <topic>] [--pattern <pattern>]\n   cadence add -f problem.json",
			Description: `Adds a problem that is not in the catalog. Without --topic and --pattern it
is filed under "Custom / General".

With -f (or piped stdin and no --name) the problem is read as JSON:
  {"name": "...", "url": "...", "topic": "...", "pattern": "...", "note": "..."}`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Usage: "problem name", Destination: &cmd.item.Name},
				&cli.StringFlag{Name: "url", Usage: "problem link", Destination: &cmd.item.URL},
				&cli.StringFlag{Name: "topic", Usage: "topic label", Destination: &cmd.item.Topic},
				&cli.StringFlag{Name: "pattern", Usage: "pattern label", Destination: &cmd.item.Pattern},
				&cli.StringFlag{Name: "note", Usage: "initial note (markdown)", Destination: &cmd.item.Note},
				cmd.reader.Flag(),
			},
			Action: cmd.runAdd,
		},
		&cli.Command{
			Name:          "delete",
			Aliases:       []string{"rm"},
			Usage:         "Delete a problem",
			UsageText:     "cadence delete <id>",
			Description:   "Deleted catalog problems stay hidden until 'cadence reset-all'.",
			ShellComplete: ItemIDCompleter(cmd.flags),
			Action:        cmd.runDelete,
		},
		&cli.Command{
			Name:          "delete-topic",
			Usage:         "Delete every problem in a topic",
			UsageText:     "cadence delete-topic <topic>",
			ShellComplete: TopicCompleter(cmd.flags),
			Action:        cmd.runDeleteTopic,
		},
		&cli.Command{
			Name:          "delete-pattern",
			Usage:         "Delete every problem in one pattern of a topic",
			UsageText:     "cadence delete-pattern <topic> <pattern>",
			ShellComplete: TopicCompleter(cmd.flags),
			Action:        cmd.runDeletePattern,
		},
		&cli.Command{
			Name:        "reset-all",
			Usage:       "Reset all progress",
			Description: "Discards solved state, notes, custom problems and deletions, then restores the catalog.",
			Action:      cmd.runResetAll,
		},
	)

	return app
}

func (cmd *ItemsCmd) runAdd(ctx context.Context, c *cli.Command) error {
	in := cmd.item
	if in.Name == "" {
		var err error
		in, err = cmd.reader.Read()
		if err != nil {
			return fmt.Errorf("read problem: %w", err)
		}
	}

	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	it, err := a.Engine.AddCustomItem(ctx, in)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.Root().Writer, it.ID)
	return nil
}

func (cmd *ItemsCmd) runDelete(ctx context.Context, c *cli.Command) error {
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}
	return a.Engine.Delete(ctx, id)
}

func (cmd *ItemsCmd) runDeleteTopic(ctx context.Context, c *cli.Command) error {
	topic, err := requireArg(c, "topic")
	if err != nil {
		return err
	}
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}
	_, err = a.Engine.DeleteCategory(ctx, topic)
	return quietCancel(c, err)
}

func (cmd *ItemsCmd) runDeletePattern(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return errors.New("usage: cadence delete-pattern <topic> <pattern>")
	}
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}
	_, err = a.Engine.DeletePattern(ctx, c.Args().Get(0), c.Args().Get(1))
	return quietCancel(c, err)
}

func (cmd *ItemsCmd) runResetAll(ctx context.Context, c *cli.Command) error {
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}
	return quietCancel(c, a.Engine.ResetAll(ctx))
}

// quietCancel turns a declined confirmation into a note instead of a failure.
func quietCancel(c *cli.Command, err error) error {
	if errors.Is(err, cadence.ErrCancelled) {
		NewPrinter(c.Root().ErrWriter).Infof("Cancelled")
		return nil
	}
	return err
}
