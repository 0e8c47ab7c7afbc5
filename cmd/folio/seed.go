package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memohai/folio/internal/tiles"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the demo tiles, skipping slugs that already exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			conn, queries, err := openStore(cmd.Context(), log, cfg, true)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			n, err := tiles.NewService(log, conn, queries).SeedDemo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d demo tiles\n", n, len(tiles.DemoTiles))
			return nil
		},
	}
}
