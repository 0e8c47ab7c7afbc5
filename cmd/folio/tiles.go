package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/memohai/folio/internal/tiles"
)

// newTilesCommand prints every tile next to what the public feed shows now.
func newTilesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tiles",
		Short: "List tiles and whether the public gallery shows them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			conn, queries, err := openStore(ctx, log, cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			svc := tiles.NewService(log, conn, queries)
			all, err := svc.List(ctx)
			if err != nil {
				return err
			}
			now := time.Now()
			public, err := svc.ListPublic(ctx, now)
			if err != nil {
				return err
			}
			live := make(map[int64]bool, len(public))
			for _, t := range public {
				live[t.ID] = true
			}

			rows := make([][]string, 0, len(all))
			for _, t := range all {
				publishAt := "-"
				if t.PublishAt != nil {
					publishAt = t.PublishAt.UTC().Format(time.RFC3339)
				}
				rows = append(rows, []string{
					strconv.FormatInt(t.ID, 10),
					strconv.FormatInt(t.OrderIndex, 10),
					t.Slug,
					strconv.FormatBool(t.Visible),
					publishAt,
					strconv.FormatBool(live[t.ID]),
				})
			}
			tbl := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "ORDER", "SLUG", "VISIBLE", "PUBLISH AT", "PUBLIC").
				Rows(rows...)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tbl.String())
			fmt.Fprintf(out, "%d tiles, %d public at %s\n", len(all), len(public), now.UTC().Format(time.RFC3339))
			return nil
		},
	}
}
