// Package modules groups the fx providers that assemble `folio serve`.
package modules

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	dbembed "github.com/memohai/folio/db"
	"github.com/memohai/folio/internal/auth"
	"github.com/memohai/folio/internal/boot"
	"github.com/memohai/folio/internal/config"
	"github.com/memohai/folio/internal/db"
	dbsqlc "github.com/memohai/folio/internal/db/sqlc"
	"github.com/memohai/folio/internal/logger"
)

// ConfigPath is the TOML file the app loads; empty uses the default.
type ConfigPath string

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		boot.ProvideRuntimeConfig,
		provideDBConn,
		provideDBQueries,
		provideSessionManager,
	),
)

// ---------------------------------------------------------------------------
// infrastructure providers
// ---------------------------------------------------------------------------

func provideConfig(path ConfigPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	boot.ApplyEnv(&cfg)
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

// provideDBConn opens the database and applies pending migrations so a
// fresh install serves without a separate migrate step.
func provideDBConn(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*sql.DB, error) {
	conn, err := db.Open(context.Background(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.RunMigrate(log, conn, dbembed.Migrations(), "up", nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return conn.Close()
		},
	})
	return conn, nil
}

func provideDBQueries(conn *sql.DB) *dbsqlc.Queries {
	return dbsqlc.New(conn)
}

func provideSessionManager(rc *boot.RuntimeConfig) (*auth.Manager, error) {
	return auth.NewManager(auth.Options{
		Secret:       rc.SessionSecret,
		TTL:          rc.SessionTTL,
		RefreshAfter: rc.RefreshAfter,
		CookieName:   rc.CookieName,
		CookieSecure: rc.CookieSecure,
	})
}
