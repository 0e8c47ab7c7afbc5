// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":8080"
	DefaultDBPath          = "data/site.db"
	DefaultBusyTimeoutMS   = 5000
	DefaultSessionTTL      = "24h"
	DefaultRefreshAfter    = "30m"
	DefaultCookieName      = "folio_session"
	DefaultLoginDelay      = "1s"
	DefaultStorageDir      = "uploads"
	DefaultQuality         = 75
	DefaultAspectRatio     = 0.75
	DefaultMaxDimension    = 10000
	DefaultMaxPixels       = 25_000_000
	DefaultMaxUploadMB     = 10
	DefaultLoginAttempts   = 5
	DefaultLoginWindow     = "15m"
	DefaultUploads         = 20
	DefaultUploadWindow    = "1h"
	DefaultBackupDir       = "backups"
	DefaultBackupKeepDays  = 14
	DefaultPlaceholderPass = "change-your-password-here"
)

// DefaultVariantWidths are the responsive widths, largest first.
var DefaultVariantWidths = []int{1920, 1440, 1080, 768, 480}

// DefaultAllowedTypes is the upload allow-list checked before the pipeline runs.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Admin     AdminConfig     `toml:"admin"`
	Auth      AuthConfig      `toml:"auth"`
	Database  DatabaseConfig  `toml:"database"`
	Media     MediaConfig     `toml:"media"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Security  SecurityConfig  `toml:"security"`
	Backup    BackupConfig    `toml:"backup"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address and the reverse proxies
// whose X-Forwarded-For header is trusted.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	TrustedProxies []string `toml:"trusted_proxies"`
}

// AdminConfig holds the account seeded when the users table is empty.
type AdminConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

// AuthConfig holds the session signing secret and cookie behaviour.
type AuthConfig struct {
	SessionSecret string `toml:"session_secret"`
	SessionTTL    string `toml:"session_ttl"`
	RefreshAfter  string `toml:"refresh_after"`
	CookieName    string `toml:"cookie_name"`
	CookieSecure  bool   `toml:"cookie_secure"`
	LoginDelay    string `toml:"login_delay"`
}

// DatabaseConfig holds the SQLite file location.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// MediaConfig holds upload limits and image pipeline parameters.
type MediaConfig struct {
	StorageDir     string   `toml:"storage_dir"`
	Quality        int      `toml:"quality"`
	AspectRatio    float64  `toml:"aspect_ratio"`
	Widths         []int    `toml:"widths"`
	MaxDimension   int      `toml:"max_dimension"`
	MaxPixels      int64    `toml:"max_pixels"`
	MaxUploadMB    int      `toml:"max_upload_mb"`
	VariantWorkers int      `toml:"variant_workers"`
	AllowedTypes   []string `toml:"allowed_types"`
}

// RateLimitConfig holds per-key request budgets.
type RateLimitConfig struct {
	LoginAttempts int    `toml:"login_attempts"`
	LoginWindow   string `toml:"login_window"`
	Uploads       int    `toml:"uploads"`
	UploadWindow  string `toml:"upload_window"`
}

// SecurityConfig controls the response security headers.
type SecurityConfig struct {
	CSPReportOnly bool   `toml:"csp_report_only"`
	CSPReportURI  string `toml:"csp_report_uri"`
}

// BackupConfig holds local snapshot settings and the optional offsite copy.
type BackupConfig struct {
	Dir      string   `toml:"dir"`
	KeepDays int      `toml:"keep_days"`
	Schedule string   `toml:"schedule"`
	S3       S3Config `toml:"s3"`
}

// S3Config points at an S3-compatible bucket. Empty Bucket disables uploads.
type S3Config struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	Prefix          string `toml:"prefix"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Email:    "admin@example.com",
			Password: DefaultPlaceholderPass,
		},
		Auth: AuthConfig{
			SessionTTL:   DefaultSessionTTL,
			RefreshAfter: DefaultRefreshAfter,
			CookieName:   DefaultCookieName,
			LoginDelay:   DefaultLoginDelay,
		},
		Database: DatabaseConfig{
			Path:          DefaultDBPath,
			BusyTimeoutMS: DefaultBusyTimeoutMS,
		},
		Media: MediaConfig{
			StorageDir:   DefaultStorageDir,
			Quality:      DefaultQuality,
			AspectRatio:  DefaultAspectRatio,
			Widths:       append([]int(nil), DefaultVariantWidths...),
			MaxDimension: DefaultMaxDimension,
			MaxPixels:    DefaultMaxPixels,
			MaxUploadMB:  DefaultMaxUploadMB,
			AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: DefaultLoginAttempts,
			LoginWindow:   DefaultLoginWindow,
			Uploads:       DefaultUploads,
			UploadWindow:  DefaultUploadWindow,
		},
		Backup: BackupConfig{
			Dir:      DefaultBackupDir,
			KeepDays: DefaultBackupKeepDays,
		},
	}
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
