package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/colonyops/cadence/internal/cadence"
	"github.com/colonyops/cadence/internal/core/logging"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/colonyops/cadence/internal/reminder"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type RemindCmd struct {
	flags *Flags

	watch bool
	cron  string
}

// NewRemindCmd creates the remind command.
func NewRemindCmd(flags *Flags) *RemindCmd {
	return &RemindCmd{flags: flags}
}

// Register adds the remind command to the application.
func (cmd *RemindCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "remind",
		Usage:     "Report problems due for review",
		UsageText: "cadence remind [--watch] [--cron '0 9 * * *']",
		Description: `Checks the review queue once and records a notification.

With --watch it keeps running and checks on the reminder.cron schedule,
reloading progress before every check.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "watch",
				Aliases:     []string{"w"},
				Usage:       "keep running and check on a schedule",
				Destination: &cmd.watch,
			},
			&cli.StringFlag{
				Name:        "cron",
				Usage:       "cron schedule for --watch (defaults to reminder.cron)",
				Destination: &cmd.cron,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RemindCmd) run(ctx context.Context, c *cli.Command) error {
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := reminder.New(&reloadingSource{ctx: ctx, engine: a.Engine}, a.Bus, log.Logger)
	out := c.Root().Writer

	if !cmd.watch {
		printDigest(out, r.Check())
		return nil
	}

	expr := cmd.cron
	if expr == "" {
		expr = cmd.flags.Config.Reminder.Cron
	}
	if err := r.Start(expr); err != nil {
		return err
	}
	defer r.Stop()

	NewPrinter(c.Root().ErrWriter).Infof("Watching for due reviews (%s)", expr)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-r.Digests():
			printDigest(out, d)
		}
	}
}

func printDigest(w io.Writer, d reminder.Digest) {
	if len(d.Items) == 0 {
		_, _ = fmt.Fprintf(w, "%s: nothing due\n", d.Date)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: %d due\n", d.Date, len(d.Items))
	for _, it := range d.Items {
		_, _ = fmt.Fprintf(w, "  %s  %s (due %s)\n", it.ID, it.Name, it.NextReviewDate)
	}
}

// reloadingSource refreshes the engine from its backend before each check so
// a long-running watcher sees progress saved by other invocations.
type reloadingSource struct {
	ctx    context.Context
	engine *cadence.Engine
}

func (s *reloadingSource) Today() schedule.Date { return s.engine.Today() }

func (s *reloadingSource) DueItems(today schedule.Date) []progress.Item {
	if err := s.engine.Load(s.ctx); err != nil {
		logger := logging.Component("remind")
		logger.Warn().Err(err).Msg("reload before reminder failed; using cached progress")
	}
	return s.engine.DueItems(today)
}
