package imageproc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const tempSuffix = ".tmp"

// fileSet writes the artifacts of one ingestion and remembers which final
// paths it created so they can be rolled back as a unit.
type fileSet struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	created []string
}

func newFileSet(dir string, log *slog.Logger) (*fileSet, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newError(KindStorage, "mkdir", err)
	}
	return &fileSet{dir: dir, logger: log}, nil
}

// write encodes into a temp file beside path and renames it into place, so
// readers never observe a partial file. Encoder failures are KindEncode,
// filesystem failures KindStorage.
func (s *fileSet) write(op, path string, encode func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*"+tempSuffix)
	if err != nil {
		return newError(KindStorage, op, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := encode(bw); err != nil {
		return newError(KindEncode, op, err)
	}
	if err := bw.Flush(); err != nil {
		return newError(KindStorage, op, err)
	}
	if err := tmp.Close(); err != nil {
		return newError(KindStorage, op, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return newError(KindStorage, op, err)
	}

	// A path that already exists belongs to an earlier ingestion of the same
	// bytes; it is overwritten with identical content but never rolled back.
	_, statErr := os.Lstat(path)
	existed := statErr == nil

	if err := os.Rename(tmpName, path); err != nil {
		return newError(KindStorage, op, err)
	}
	if !existed {
		s.mu.Lock()
		s.created = append(s.created, path)
		s.mu.Unlock()
	}
	return nil
}

// rollback removes every path this set created. Failures are logged and
// never replace the error that triggered the rollback.
func (s *fileSet) rollback() {
	s.mu.Lock()
	paths := s.created
	s.created = nil
	s.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("rollback remove failed",
				slog.String("kind", string(KindStorage)),
				slog.String("path", p),
				slog.Any("error", err),
			)
		}
	}
}

// RemoveArtifact deletes the primary and WebP files of an artifact and every
// sibling named {base}_*.* where base is the primary file name without its
// extension. Missing files are not an error.
func RemoveArtifact(primaryPath, webpPath string) error {
	var errs []error
	for _, p := range []string{primaryPath, webpPath} {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if strings.TrimSpace(primaryPath) != "" {
		dir := filepath.Dir(primaryPath)
		base := strings.TrimSuffix(filepath.Base(primaryPath), filepath.Ext(primaryPath))
		matches, err := filepath.Glob(filepath.Join(dir, base+"_*.*"))
		if err != nil {
			errs = append(errs, fmt.Errorf("glob variants: %w", err))
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// IsTempName reports whether name is an in-flight write left beside its
// final path.
func IsTempName(name string) bool {
	return len(name) > len(tempSuffix)+1 && strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempSuffix)
}

// SweepTemp removes in-flight write files in dir last modified before cutoff
// and returns their paths. A missing dir is not an error.
func SweepTemp(dir string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, newError(KindStorage, "sweep", err)
	}
	var (
		removed []string
		errs    []error
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsTempName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, path)
	}
	if len(errs) > 0 {
		return removed, newError(KindStorage, "sweep", errors.Join(errs...))
	}
	return removed, nil
}
