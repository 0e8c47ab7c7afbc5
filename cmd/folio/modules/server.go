package modules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.uber.org/fx"

	"github.com/memohai/folio/internal/accounts"
	"github.com/memohai/folio/internal/activity"
	"github.com/memohai/folio/internal/auth"
	"github.com/memohai/folio/internal/boot"
	"github.com/memohai/folio/internal/config"
	"github.com/memohai/folio/internal/handlers"
	"github.com/memohai/folio/internal/media"
	"github.com/memohai/folio/internal/ratelimit"
	"github.com/memohai/folio/internal/server"
	"github.com/memohai/folio/internal/version"
)

var ServerModule = fx.Module(
	"server",
	fx.Provide(
		provideServerHandler(provideHealthHandler),
		provideServerHandler(provideAuthHandler),
		provideServerHandler(handlers.NewTilesHandler),
		provideServerHandler(provideMediaHandler),
		provideServerHandler(handlers.NewSettingsHandler),
		provideServerHandler(handlers.NewPublicHandler),
		provideServerHandler(handlers.NewActivityHandler),
		provideServerHandler(handlers.NewSwaggerHandler),
		provideServer,
	),
	fx.Invoke(startServer),
)

// ---------------------------------------------------------------------------
// server
// ---------------------------------------------------------------------------

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideHealthHandler(log *slog.Logger, conn *sql.DB, rc *boot.RuntimeConfig) *handlers.HealthHandler {
	return handlers.NewHealthHandler(log, conn, rc.Pipeline.StorageDir)
}

func provideAuthHandler(log *slog.Logger, accountService *accounts.Service, activityService *activity.Service, sessions *auth.Manager, rc *boot.RuntimeConfig) *handlers.AuthHandler {
	limiter := ratelimit.New(rc.LoginLimit.N, rc.LoginLimit.Window)
	return handlers.NewAuthHandler(log, accountService, activityService, sessions, limiter, rc.LoginDelay)
}

func provideMediaHandler(log *slog.Logger, mediaService *media.Service, activityService *activity.Service, rc *boot.RuntimeConfig) *handlers.MediaHandler {
	limiter := ratelimit.New(rc.UploadLimit.N, rc.UploadLimit.Window)
	return handlers.NewMediaHandler(log, mediaService, activityService, limiter, handlers.MediaOptions{
		MaxUploadBytes: rc.MaxUploadBytes,
		AllowedTypes:   rc.AllowedTypes,
	})
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	Config         config.Config
	Sessions       *auth.Manager
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, server.Options{
		Addr:           params.RuntimeConfig.ServerAddr,
		CSPReportOnly:  params.Config.Security.CSPReportOnly,
		CSPReportURI:   params.Config.Security.CSPReportURI,
		TrustedProxies: params.Config.Server.TrustedProxies,
	}, params.Sessions, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config, accountService *accounts.Service) {
	fmt.Printf("Starting folio %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := accountService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
				return err
			}
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
