package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/styles"
	"github.com/colonyops/cadence/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type NotificationsCmd struct {
	flags *Flags

	limit      int
	clear      bool
	jsonOutput bool
}

// NewNotificationsCmd creates the notifications command.
func NewNotificationsCmd(flags *Flags) *NotificationsCmd {
	return &NotificationsCmd{flags: flags}
}

// Register adds the notifications command to the application.
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "notifications",
		Usage: "Show recent notifications",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "number of notifications to show",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "clear",
				Usage:       "delete the notification history",
				Destination: &cmd.clear,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *NotificationsCmd) run(ctx context.Context, c *cli.Command) error {
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	if cmd.clear {
		return a.Notifications.Clear(ctx)
	}

	items, err := a.Notifications.List(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		if items == nil {
			items = []notify.Notification{}
		}
		return iojson.WriteWith(out, c.Root().ErrWriter, items)
	}

	if len(items) == 0 {
		NewPrinter(c.Root().ErrWriter).Infof("No notifications")
		return nil
	}
	for _, n := range items {
		_, _ = fmt.Fprintf(out, "%s  %s  %s\n",
			styles.MutedStyle.Render(n.CreatedAt.Local().Format("2006-01-02 15:04")),
			styles.LevelStyle(n.Level).Render(fmt.Sprintf("%-7s", n.Level)),
			n.Message)
	}
	return nil
}
