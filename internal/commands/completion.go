package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/colonyops/cadence/internal/core/catalog"
	"github.com/urfave/cli/v3"
)

// ItemIDCompleter returns a ShellCompleteFunc that suggests problem ids as
// positional completions. Set this as the ShellComplete field on any
// cli.Command that accepts an item id.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func ItemIDCompleter(flags *Flags) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		a, err := flags.App(ctx)
		if err != nil {
			return
		}

		ids := make([]string, 0, a.Engine.Store().Len())
		for _, it := range a.Engine.Store().All() {
			ids = append(ids, it.ID)
		}
		slices.Sort(ids)

		w := cmd.Root().Writer
		for _, id := range ids {
			_, _ = fmt.Fprintln(w, id)
		}
	}
}

// TopicCompleter suggests topic names from the merged view.
func TopicCompleter(flags *Flags) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		a, err := flags.App(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, t := range a.Engine.View(catalog.ViewOptions{Filter: catalog.FilterAll}).Topics {
			_, _ = fmt.Fprintln(w, t.Name)
		}
	}
}
