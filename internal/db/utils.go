package db

import (
	"database/sql"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// IsNotFound reports whether err is sql.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Unix converts t to the integer seconds stored in timestamp columns.
func Unix(t time.Time) int64 {
	return t.UTC().Unix()
}

// TimeFromUnix converts a stored timestamp back to UTC time.
func TimeFromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// TimePtr converts a nullable timestamp column, returning nil when unset.
func TimePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := TimeFromUnix(value.Int64)
	return &t
}

// NullTime converts an optional time into a nullable timestamp column.
func NullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: Unix(*t), Valid: true}
}

// NullID converts an optional row id into a nullable foreign key.
func NullID(id *int64) sql.NullInt64 {
	if id == nil || *id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// IDPtr converts a nullable foreign key back to an optional id.
func IDPtr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
