// Package boot provides runtime configuration and dependency wiring for the server.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/memohai/folio/internal/config"
	"github.com/memohai/folio/internal/imageproc"
)

// RuntimeConfig holds parsed runtime settings (session, server address, storage paths).
// Values may be overridden by environment variables (e.g. HTTP_ADDR, FOLIO_SESSION_SECRET).
type RuntimeConfig struct {
	SessionSecret  string
	SessionTTL     time.Duration
	RefreshAfter   time.Duration
	CookieName     string
	CookieSecure   bool
	LoginDelay     time.Duration
	ServerAddr     string
	DBPath         string
	Pipeline       imageproc.Config
	MaxUploadBytes int64
	AllowedTypes   []string
	LoginLimit     Limit
	UploadLimit    Limit
}

// Limit is a request budget per window.
type Limit struct {
	N      int
	Window time.Duration
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	ApplyEnv(&cfg)

	if strings.TrimSpace(cfg.Auth.SessionSecret) == "" {
		return nil, errors.New("session secret is required")
	}

	durations := map[string]string{
		"session ttl":   cfg.Auth.SessionTTL,
		"refresh after": cfg.Auth.RefreshAfter,
		"login delay":   cfg.Auth.LoginDelay,
		"login window":  cfg.RateLimit.LoginWindow,
		"upload window": cfg.RateLimit.UploadWindow,
	}
	parsed := make(map[string]time.Duration, len(durations))
	for name, raw := range durations {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		parsed[name] = d
	}

	pipeline := PipelineConfig(cfg.Media)
	if err := pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid media config: %w", err)
	}

	return &RuntimeConfig{
		SessionSecret:  cfg.Auth.SessionSecret,
		SessionTTL:     parsed["session ttl"],
		RefreshAfter:   parsed["refresh after"],
		CookieName:     cfg.Auth.CookieName,
		CookieSecure:   cfg.Auth.CookieSecure,
		LoginDelay:     parsed["login delay"],
		ServerAddr:     cfg.Server.Addr,
		DBPath:         cfg.Database.Path,
		Pipeline:       pipeline,
		MaxUploadBytes: int64(cfg.Media.MaxUploadMB) << 20,
		AllowedTypes:   cfg.Media.AllowedTypes,
		LoginLimit:     Limit{N: cfg.RateLimit.LoginAttempts, Window: parsed["login window"]},
		UploadLimit:    Limit{N: cfg.RateLimit.Uploads, Window: parsed["upload window"]},
	}, nil
}

// ApplyEnv overlays environment overrides onto cfg.
func ApplyEnv(cfg *config.Config) {
	if value := os.Getenv("HTTP_ADDR"); value != "" {
		cfg.Server.Addr = value
	}
	if value := os.Getenv("FOLIO_SESSION_SECRET"); value != "" {
		cfg.Auth.SessionSecret = value
	}
	if value := os.Getenv("FOLIO_DB_PATH"); value != "" {
		cfg.Database.Path = value
	}
	if value := os.Getenv("FOLIO_UPLOAD_DIR"); value != "" {
		cfg.Media.StorageDir = value
	}
}

// PipelineConfig maps the [media] section onto the image pipeline.
func PipelineConfig(m config.MediaConfig) imageproc.Config {
	return imageproc.Config{
		Quality:        m.Quality,
		AspectRatio:    m.AspectRatio,
		VariantWidths:  append([]int(nil), m.Widths...),
		MaxDimension:   m.MaxDimension,
		MaxPixels:      m.MaxPixels,
		StorageDir:     m.StorageDir,
		VariantWorkers: m.VariantWorkers,
	}
}
