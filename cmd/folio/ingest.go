package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/memohai/folio/internal/boot"
	"github.com/memohai/folio/internal/imageproc"
)

func newIngestCommand(opts *rootOptions) *cobra.Command {
	var storageDir string
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Run the image pipeline on a file and print the artifact",
		Long: "Runs the upload pipeline against the configured [media] settings without " +
			"touching the database. Output files are written to the storage directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			pipeline := boot.PipelineConfig(cfg.Media)
			if storageDir != "" {
				pipeline.StorageDir = storageDir
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			start := time.Now()
			art, err := imageproc.Ingest(cmd.Context(), data, filepath.Base(args[0]), pipeline)
			if err != nil {
				return fmt.Errorf("ingest %s (%s): %w", args[0], imageproc.KindOf(err), err)
			}
			log.Debug("ingested", slog.String("hash", art.Hash), slog.Duration("took", time.Since(start)))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(art)
		},
	}
	cmd.Flags().StringVar(&storageDir, "out", "", "Write artifacts here instead of media.storage_dir")
	return cmd
}
