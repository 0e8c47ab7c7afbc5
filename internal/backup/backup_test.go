package backup

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/folio/internal/config"
	"github.com/memohai/folio/internal/db"
	"github.com/memohai/folio/internal/db/dbtest"
)

type recordingUploader struct {
	keys []string
	err  error
}

func (u *recordingUploader) Upload(_ context.Context, key, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	u.keys = append(u.keys, key)
	return u.err
}

var testNow = time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)

func newTestService(t *testing.T, uploader Uploader) (*Service, string, string) {
	t.Helper()
	conn, _ := dbtest.Open(t)
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	require.NoError(t, os.MkdirAll(filepath.Join(uploads, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "abc.jpg"), []byte("jpeg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "nested", "abc.webp"), []byte("webp"), 0o644))

	dir := filepath.Join(root, "backups")
	svc := NewService(dbtest.Logger(), conn, Options{Dir: dir, KeepDays: 14, UploadsDir: uploads, Prefix: "site/"}, uploader)
	svc.now = func() time.Time { return testNow }
	return svc, dir, uploads
}

func TestRunWritesSnapshots(t *testing.T) {
	up := &recordingUploader{}
	svc, dir, _ := newTestService(t, up)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "database_2024-05-01_123045.db"), res.Database)
	assert.Equal(t, filepath.Join(dir, "uploads_2024-05-01_123045.tar.gz"), res.Uploads)
	assert.Equal(t, []string{"site/database_2024-05-01_123045.db", "site/uploads_2024-05-01_123045.tar.gz"}, up.keys)
	assert.Equal(t, up.keys, res.Remote)

	snapshot, err := db.Open(context.Background(), config.DatabaseConfig{Path: res.Database, BusyTimeoutMS: 1000})
	require.NoError(t, err)
	defer snapshot.Close()
	var n int
	require.NoError(t, snapshot.QueryRow("SELECT COUNT(*) FROM settings").Scan(&n))
	assert.Positive(t, n)

	assert.Equal(t, []string{"uploads/", "uploads/abc.jpg", "uploads/nested/", "uploads/nested/abc.webp"}, tarEntries(t, res.Uploads))
}

func TestArchiveSkipsPartialWrites(t *testing.T) {
	svc, _, uploads := newTestService(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(uploads, ".abc.jpg.123456.tmp"), []byte("half"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, ".keep"), []byte("x"), 0o644))

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/", "uploads/.keep", "uploads/abc.jpg", "uploads/nested/", "uploads/nested/abc.webp"}, tarEntries(t, res.Uploads))
}

func TestRunSkipsMissingUploads(t *testing.T) {
	svc, _, uploads := newTestService(t, nil)
	require.NoError(t, os.RemoveAll(uploads))

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Uploads)
	assert.FileExists(t, res.Database)
}

func TestRunReportsUploadFailure(t *testing.T) {
	svc, _, _ := newTestService(t, &recordingUploader{err: errors.New("bucket gone")})
	res, err := svc.Run(context.Background())
	assert.Error(t, err)
	assert.FileExists(t, res.Database)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	old := testNow.Add(-15 * 24 * time.Hour)
	files := map[string]time.Time{
		"database_old.db":      old,
		"uploads_old.tar.gz":   old,
		"database_recent.db":   testNow.Add(-time.Hour),
		"notes.txt":            old,
		"database_partial.tmp": old,
	}
	for name, mtime := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(p, mtime, mtime))
	}

	removed, err := prune(dir, 14, testNow)
	require.NoError(t, err)
	sort.Strings(removed)
	assert.Equal(t, []string{"database_old.db", "uploads_old.tar.gz"}, removed)

	removed, err = prune(dir, 0, testNow)
	require.NoError(t, err)
	assert.Empty(t, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'it''s.db'`, quote("it's.db"))
}

func tarEntries(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)
	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	sort.Strings(names)
	return names
}
