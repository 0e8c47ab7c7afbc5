// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	dbembed "github.com/memohai/folio/db"
	"github.com/memohai/folio/internal/config"
	"github.com/memohai/folio/internal/db"
	"github.com/memohai/folio/internal/db/sqlc"
)

// Open returns a fresh in-memory database with every migration applied.
// It is closed when the test ends.
func Open(t testing.TB) (*sql.DB, *sqlc.Queries) {
	t.Helper()
	conn, err := db.Open(context.Background(), config.DatabaseConfig{Path: db.MemoryPath})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := db.RunMigrate(log, conn, dbembed.Migrations(), "up", nil); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn, sqlc.New(conn)
}

// Logger discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
