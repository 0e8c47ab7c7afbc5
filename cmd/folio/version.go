package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memohai/folio/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version.GetInfo())
			if info.BuildTime != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built  %s\n", info.BuildTime)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "go     %s\n", info.GoVersion)
			return nil
		},
	}
}
