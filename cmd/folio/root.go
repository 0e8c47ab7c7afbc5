package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	dbembed "github.com/memohai/folio/db"
	"github.com/memohai/folio/internal/boot"
	"github.com/memohai/folio/internal/config"
	"github.com/memohai/folio/internal/db"
	dbsqlc "github.com/memohai/folio/internal/db/sqlc"
	"github.com/memohai/folio/internal/logger"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	defaultConfig := os.Getenv("CONFIG_PATH")
	if strings.TrimSpace(defaultConfig) == "" {
		defaultConfig = config.DefaultConfigPath
	}

	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "Portfolio and link hub server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "Path to config.toml")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newBackupCommand(opts),
		newSeedCommand(opts),
		newTilesCommand(opts),
		newUserCommand(opts),
		newIngestCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// load reads the config file, applies env overrides and initialises logging.
func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	boot.ApplyEnv(&cfg)
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, logger.L, nil
}

// openStore opens the database, bringing the schema up to date when migrate
// is true. The caller closes the connection.
func openStore(ctx context.Context, log *slog.Logger, cfg config.Config, migrate bool) (*sql.DB, *dbsqlc.Queries, error) {
	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if migrate {
		if err := db.RunMigrate(log, conn, dbembed.Migrations(), "up", nil); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
	}
	return conn, dbsqlc.New(conn), nil
}
