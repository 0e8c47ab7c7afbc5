// Package backup snapshots the database and the uploads directory, prunes
// old snapshots and optionally copies them to an S3-compatible bucket.
package backup

import (
	"archive/tar"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// TimestampLayout names snapshot files, e.g. database_2024-05-01_120000.db.
const TimestampLayout = "2006-01-02_150405"

const (
	databasePrefix = "database_"
	uploadsPrefix  = "uploads_"
)

// Uploader copies a finished snapshot offsite.
type Uploader interface {
	Upload(ctx context.Context, key, path string) error
}

// Options locate the snapshot inputs and outputs.
type Options struct {
	Dir        string
	KeepDays   int
	UploadsDir string
	Prefix     string
}

// Result lists the files written and removed by one run.
type Result struct {
	Database string   `json:"database"`
	Uploads  string   `json:"uploads,omitempty"`
	Pruned   []string `json:"pruned,omitempty"`
	Remote   []string `json:"remote,omitempty"`
}

type Service struct {
	conn     *sql.DB
	opts     Options
	uploader Uploader
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a backup service. uploader may be nil.
func NewService(log *slog.Logger, conn *sql.DB, opts Options, uploader Uploader) *Service {
	return &Service{
		conn:     conn,
		opts:     opts,
		uploader: uploader,
		logger:   log.With(slog.String("service", "backup")),
		now:      time.Now,
	}
}

// Run writes a consistent database copy and an uploads archive, prunes
// snapshots older than KeepDays and uploads the new files when configured.
func (s *Service) Run(ctx context.Context) (Result, error) {
	if strings.TrimSpace(s.opts.Dir) == "" {
		return Result{}, errors.New("backup dir is required")
	}
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create backup dir: %w", err)
	}
	now := s.now()
	ts := now.Format(TimestampLayout)

	var res Result
	res.Database = filepath.Join(s.opts.Dir, databasePrefix+ts+".db")
	if _, err := s.conn.ExecContext(ctx, "VACUUM INTO "+quote(res.Database)); err != nil {
		return Result{}, fmt.Errorf("snapshot database: %w", err)
	}

	if info, err := os.Stat(s.opts.UploadsDir); err == nil && info.IsDir() {
		res.Uploads = filepath.Join(s.opts.Dir, uploadsPrefix+ts+".tar.gz")
		if err := archiveDir(s.opts.UploadsDir, res.Uploads); err != nil {
			return res, fmt.Errorf("archive uploads: %w", err)
		}
	}

	pruned, err := prune(s.opts.Dir, s.opts.KeepDays, now)
	res.Pruned = pruned
	if err != nil {
		s.logger.Warn("prune backups failed", slog.Any("error", err))
	}

	if s.uploader != nil {
		for _, p := range []string{res.Database, res.Uploads} {
			if p == "" {
				continue
			}
			key := s.opts.Prefix + filepath.Base(p)
			if err := s.uploader.Upload(ctx, key, p); err != nil {
				return res, fmt.Errorf("upload %s: %w", key, err)
			}
			res.Remote = append(res.Remote, key)
		}
	}

	s.logger.Info("backup complete",
		slog.String("database", res.Database),
		slog.String("uploads", res.Uploads),
		slog.Int("pruned", len(res.Pruned)),
		slog.Int("remote", len(res.Remote)),
	)
	return res, nil
}

// isPartialWrite matches the ".{name}.*.tmp" files image ingestion renames
// into place. They are skipped so an in-flight or orphaned write never
// lands in, or breaks, the archive.
func isPartialWrite(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}

// archiveDir writes src as a gzip tarball whose entries are rooted at the
// base name of src.
func archiveDir(src, dst string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	gz, err := gzip.NewWriterLevel(tmp, gzip.DefaultCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gz)
	root := filepath.Base(filepath.Clean(src))

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != src && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() && (!d.Type().IsRegular() || isPartialWrite(d.Name())) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(root, rel))
		if d.IsDir() {
			hdr.Name += "/"
			return tw.WriteHeader(hdr)
		}
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		defer f.Close()
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		return err
	})
	if walkErr != nil {
		return walkErr
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// prune removes snapshot files last modified more than keepDays before now.
// keepDays <= 0 keeps everything.
func prune(dir string, keepDays int, now time.Time) ([]string, error) {
	if keepDays <= 0 {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	cutoff := now.Add(-time.Duration(keepDays) * 24 * time.Hour)
	var removed []string
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !isSnapshot(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, name)
	}
	return removed, errors.Join(errs...)
}

func isSnapshot(name string) bool {
	return (strings.HasPrefix(name, databasePrefix) && strings.HasSuffix(name, ".db")) ||
		(strings.HasPrefix(name, uploadsPrefix) && strings.HasSuffix(name, ".tar.gz"))
}

// quote renders s as an SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
