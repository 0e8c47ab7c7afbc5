package main

import (
	"github.com/spf13/cobra"

	dbembed "github.com/memohai/folio/db"
	"github.com/memohai/folio/internal/db"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|version|force N",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"up", "down", "version", "force"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			conn, _, err := openStore(cmd.Context(), log, cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()
			return db.RunMigrate(log, conn, dbembed.Migrations(), args[0], args[1:])
		},
	}
}
