package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/memohai/folio/internal/config"
	"github.com/memohai/folio/internal/db"
	"github.com/memohai/folio/internal/db/dbtest"
	"github.com/memohai/folio/internal/db/sqlc"
)

func TestDSN(t *testing.T) {
	got := db.DSN(config.DatabaseConfig{Path: db.MemoryPath})
	want := "file::memory:?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29"
	if got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	_, q := dbtest.Open(t)
	ctx := context.Background()
	params := sqlc.CreateUserParams{Email: "a@example.com", PasswordHash: "x", Role: "admin"}
	if _, err := q.CreateUser(ctx, params); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := q.CreateUser(ctx, params)
	if !db.IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation(%v) = false, want true", err)
	}
	if db.IsUniqueViolation(errors.New("other")) {
		t.Error("plain error reported as unique violation")
	}
	if db.IsUniqueViolation(nil) {
		t.Error("nil reported as unique violation")
	}
}

func TestIsNotFound(t *testing.T) {
	_, q := dbtest.Open(t)
	_, err := q.GetUserByID(context.Background(), 42)
	if !db.IsNotFound(err) {
		t.Fatalf("IsNotFound(%v) = false", err)
	}
}

func TestTimeHelpers(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	if got := db.TimeFromUnix(db.Unix(now)); !got.Equal(now) {
		t.Errorf("round trip = %v, want %v", got, now)
	}
	if db.TimePtr(sql.NullInt64{}) != nil {
		t.Error("TimePtr of NULL should be nil")
	}
	if got := db.NullTime(&now); !got.Valid || got.Int64 != now.Unix() {
		t.Errorf("NullTime = %+v", got)
	}
	if db.NullTime(nil).Valid {
		t.Error("NullTime(nil) should be NULL")
	}
}

func TestIDHelpers(t *testing.T) {
	zero := int64(0)
	seven := int64(7)
	tests := []struct {
		name string
		in   *int64
		want sql.NullInt64
	}{
		{"nil", nil, sql.NullInt64{}},
		{"zero", &zero, sql.NullInt64{}},
		{"set", &seven, sql.NullInt64{Int64: 7, Valid: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := db.NullID(tt.in); got != tt.want {
				t.Errorf("NullID() = %+v, want %+v", got, tt.want)
			}
		})
	}
	if p := db.IDPtr(sql.NullInt64{Int64: 3, Valid: true}); p == nil || *p != 3 {
		t.Errorf("IDPtr = %v", p)
	}
}
