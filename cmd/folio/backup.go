package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/memohai/folio/cmd/folio/modules"
)

func newBackupCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the database and uploads once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			conn, _, err := openStore(ctx, log, cfg, true)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			svc, err := modules.NewBackupService(ctx, log, conn, cfg)
			if err != nil {
				return err
			}
			res, err := svc.Run(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
