package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/colonyops/cadence/internal/cadence"
	"github.com/colonyops/cadence/internal/core/catalog"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/styles"
	"github.com/colonyops/cadence/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type ListCmd struct {
	flags *Flags

	// flags
	status     string
	topic      string
	jsonOutput bool
}

// NewListCmd creates the list, stats, due and show commands.
func NewListCmd(flags *Flags) *ListCmd {
	return &ListCmd{flags: flags}
}

// Register adds the read-only commands to the application.
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON",
		Destination: &cmd.jsonOutput,
	}

	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "list",
			Aliases:   []string{"ls"},
			Usage:     "List problems grouped by topic and pattern",
			UsageText: "cadence list [--status all|solved|unsolved|due] [--topic <glob>] [--json]",
			Description: `Shows the catalog merged with your progress. Deleted problems are hidden
and custom problems appear under their own topic and pattern.

--topic accepts an exact topic name or a glob such as "Array*".`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "status",
					Aliases:     []string{"s"},
					Usage:       "filter by status (all, solved, unsolved, due)",
					Value:       string(catalog.FilterAll),
					Destination: &cmd.status,
				},
				&cli.StringFlag{
					Name:        "topic",
					Aliases:     []string{"t"},
					Usage:       "topic name or glob",
					Destination: &cmd.topic,
				},
				jsonFlag,
			},
			Action: cmd.runList,
		},
		&cli.Command{
			Name:   "stats",
			Usage:  "Show solved and due counts",
			Flags:  []cli.Flag{jsonFlag},
			Action: cmd.runStats,
		},
		&cli.Command{
			Name:   "due",
			Usage:  "List problems due for review, most overdue first",
			Flags:  []cli.Flag{jsonFlag},
			Action: cmd.runDue,
		},
		&cli.Command{
			Name:          "show",
			Usage:         "Show one problem with its note",
			UsageText:     "cadence show <id>",
			Flags:         []cli.Flag{jsonFlag},
			ShellComplete: ItemIDCompleter(cmd.flags),
			Action:        cmd.runShow,
		},
	)

	return app
}

func (cmd *ListCmd) runList(ctx context.Context, c *cli.Command) error {
	filter, err := catalog.ParseFilter(cmd.status)
	if err != nil {
		return err
	}
	if err := catalog.ValidateTopicSelector(cmd.topic); err != nil {
		return err
	}

	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	e := a.Engine
	e.SetSelector(cadence.Selector{Filter: filter, Topic: cmd.topic})
	view := e.ActiveView()
	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, view)
	}

	if len(view.Topics) == 0 {
		NewPrinter(c.Root().ErrWriter).Infof("No problems match")
		return nil
	}

	today := e.Today()
	for _, t := range view.Topics {
		st := t.Stats(today)
		_, _ = fmt.Fprintf(out, "%s %s\n",
			styles.TopicStyle.Foreground(styles.ColorForString(t.Name)).Render(t.Name),
			styles.MutedStyle.Render(fmt.Sprintf("%d/%d solved", st.Solved, st.Unique)))

		for _, p := range t.Patterns {
			_, _ = fmt.Fprintf(out, "  %s\n", styles.PatternStyle.Render(p.Name))

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, it := range p.Items {
				_, _ = fmt.Fprintf(w, "    %s\t%s\t%s\t%s\n",
					styles.StatusBadge(it, it.IsDue(today)),
					it.Name,
					styles.IDStyle.Render(it.ID),
					nextReview(it))
			}
			_ = w.Flush()
		}
	}
	return nil
}

func (cmd *ListCmd) runStats(ctx context.Context, c *cli.Command) error {
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	e := a.Engine
	today := e.Today()
	view := e.View(catalog.ViewOptions{Filter: catalog.FilterAll, Today: today})
	out := c.Root().Writer

	if cmd.jsonOutput {
		type topicStats struct {
			Topic string `json:"topic"`
			catalog.Stats
		}
		res := struct {
			Identity string        `json:"identity"`
			Total    catalog.Stats `json:"total"`
			Topics   []topicStats  `json:"topics"`
		}{Identity: e.Identity().String(), Total: view.Stats(today)}
		for _, t := range view.Topics {
			res.Topics = append(res.Topics, topicStats{Topic: t.Name, Stats: t.Stats(today)})
		}
		return iojson.WriteWith(out, c.Root().ErrWriter, res)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TOPIC\tSOLVED\tTOTAL\tDUE")
	for _, t := range view.Topics {
		st := t.Stats(today)
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", t.Name, st.Solved, st.Unique, st.Due)
	}
	total := view.Stats(today)
	_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", styles.HeaderStyle.Render("Total"), total.Solved, total.Unique, total.Due)
	_ = w.Flush()

	_, _ = fmt.Fprintln(out, styles.MutedStyle.Render("progress: "+e.Identity().String()))
	return nil
}

func (cmd *ListCmd) runDue(ctx context.Context, c *cli.Command) error {
	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	today := a.Engine.Today()
	items := a.Engine.DueItems(today)
	out := c.Root().Writer

	if cmd.jsonOutput {
		if items == nil {
			items = []progress.Item{}
		}
		return iojson.WriteWith(out, c.Root().ErrWriter, items)
	}

	if len(items) == 0 {
		NewPrinter(c.Root().ErrWriter).Successf("Nothing due today")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTOPIC\tDUE\tOVERDUE")
	for _, it := range items {
		overdue := it.NextReviewDate.DaysUntil(today)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dd\n", it.ID, it.Name, it.Topic, it.NextReviewDate, overdue)
	}
	return w.Flush()
}

func (cmd *ListCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}

	a, err := cmd.flags.App(ctx)
	if err != nil {
		return err
	}

	it, err := a.Engine.Item(id)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, it)
	}

	today := a.Engine.Today()
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", styles.HeaderStyle.Render(it.Name), styles.StatusBadge(it, it.IsDue(today)))
	fmt.Fprintf(&b, "%s / %s\n", it.Topic, it.Pattern)
	if it.URL != "" {
		fmt.Fprintf(&b, "%s\n", it.URL)
	}
	fmt.Fprintf(&b, "next review: %s", nextReview(it))
	_, _ = fmt.Fprintln(out, styles.BoxStyle.Render(b.String()))

	if it.Note != "" {
		rendered, err := styles.RenderMarkdown(it.Note, 80)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, rendered)
	}
	return nil
}

func nextReview(it progress.Item) string {
	if it.NextReviewDate == nil {
		return "-"
	}
	return it.NextReviewDate.String()
}

func requireArg(c *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(c.Args().First())
	if v == "" {
		return "", fmt.Errorf("missing <%s> argument", name)
	}
	return v, nil
}
