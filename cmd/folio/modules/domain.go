package modules

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/memohai/folio/internal/accounts"
	"github.com/memohai/folio/internal/activity"
	"github.com/memohai/folio/internal/backup"
	"github.com/memohai/folio/internal/boot"
	"github.com/memohai/folio/internal/config"
	dbsqlc "github.com/memohai/folio/internal/db/sqlc"
	"github.com/memohai/folio/internal/imageproc"
	"github.com/memohai/folio/internal/media"
	"github.com/memohai/folio/internal/schedule"
	"github.com/memohai/folio/internal/settings"
	"github.com/memohai/folio/internal/tiles"
)

const (
	// backupJobTimeout bounds one scheduled backup run.
	backupJobTimeout = 30 * time.Minute
	// staleTempAge is how old an unrenamed upload write must be before
	// startup removes it.
	staleTempAge = time.Hour
)

var DomainModule = fx.Module(
	"domain",
	fx.Provide(
		accounts.NewService,
		activity.NewService,
		settings.NewService,
		tiles.NewService,
		provideMediaService,
		provideBackupService,
		provideScheduler,
	),
	fx.Invoke(sweepUploads, startScheduler),
)

func provideMediaService(log *slog.Logger, conn *sql.DB, queries *dbsqlc.Queries, rc *boot.RuntimeConfig) *media.Service {
	return media.NewService(log, conn, queries, rc.Pipeline)
}

func sweepUploads(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			removed, err := imageproc.SweepTemp(rc.Pipeline.StorageDir, time.Now().Add(-staleTempAge))
			if err != nil {
				log.Warn("sweep stale uploads failed", slog.Any("error", err))
			}
			if len(removed) > 0 {
				log.Info("removed stale upload writes", slog.Int("count", len(removed)))
			}
			return nil
		},
	})
}

func provideBackupService(log *slog.Logger, conn *sql.DB, cfg config.Config) (*backup.Service, error) {
	return NewBackupService(context.Background(), log, conn, cfg)
}

// NewBackupService builds the backup service from config, with an S3
// uploader when a bucket is configured.
func NewBackupService(ctx context.Context, log *slog.Logger, conn *sql.DB, cfg config.Config) (*backup.Service, error) {
	var uploader backup.Uploader
	if strings.TrimSpace(cfg.Backup.S3.Bucket) != "" {
		s3, err := backup.NewS3Uploader(ctx, cfg.Backup.S3)
		if err != nil {
			return nil, fmt.Errorf("backup s3: %w", err)
		}
		uploader = s3
	}
	return backup.NewService(log, conn, backup.Options{
		Dir:        cfg.Backup.Dir,
		KeepDays:   cfg.Backup.KeepDays,
		UploadsDir: cfg.Media.StorageDir,
		Prefix:     cfg.Backup.S3.Prefix,
	}, uploader), nil
}

func provideScheduler(log *slog.Logger) *schedule.Service {
	return schedule.NewService(log, backupJobTimeout)
}

func startScheduler(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, scheduler *schedule.Service, backups *backup.Service) error {
	spec := strings.TrimSpace(cfg.Backup.Schedule)
	if spec == "" {
		return nil
	}
	err := scheduler.Add("backup", spec, func(ctx context.Context) error {
		res, err := backups.Run(ctx)
		if err != nil {
			return err
		}
		log.Info("scheduled backup complete",
			slog.String("database", res.Database),
			slog.Int("pruned", len(res.Pruned)),
			slog.Int("remote", len(res.Remote)),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("backup schedule: %w", err)
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			scheduler.Start()
			if next, ok := scheduler.Next("backup"); ok {
				log.Info("backup scheduled", slog.Time("next", next))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
	return nil
}
