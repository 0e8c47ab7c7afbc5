// Package settings stores site-wide key/value settings.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/memohai/folio/internal/db"
	"github.com/memohai/folio/internal/db/sqlc"
)

var (
	// ErrInvalidKey is returned for keys outside [a-z0-9_]{1,64}.
	ErrInvalidKey = errors.New("invalid setting key")
	// ErrValueTooLong is returned when a value exceeds MaxValueLength.
	ErrValueTooLong = errors.New("setting value too long")
	// ErrNoSettings is returned by Update with an empty map.
	ErrNoSettings = errors.New("no settings to update")
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

type Service struct {
	conn     *sql.DB
	queries  *sqlc.Queries
	logger   *slog.Logger
	sanitize *bluemonday.Policy
	now      func() time.Time
}

func NewService(log *slog.Logger, conn *sql.DB, queries *sqlc.Queries) *Service {
	return &Service{
		conn:     conn,
		queries:  queries,
		logger:   log.With(slog.String("service", "settings")),
		sanitize: bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

// All returns every stored setting.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.queries.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Update upserts values in a single transaction. Markup is stripped from
// values; either every key is written or none is.
func (s *Service) Update(ctx context.Context, values map[string]string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, ErrNoSettings
	}
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if !keyPattern.MatchString(k) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, k)
		}
		if utf8.RuneCountInString(v) > MaxValueLength {
			return nil, fmt.Errorf("%w: %s", ErrValueTooLong, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	now := db.Unix(s.now())
	for _, k := range keys {
		value := strings.TrimSpace(s.sanitize.Sanitize(values[k]))
		if err := qtx.UpsertSetting(ctx, sqlc.UpsertSettingParams{Key: k, Value: value, UpdatedAt: now}); err != nil {
			return nil, fmt.Errorf("upsert %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.logger.Info("settings updated", slog.Int("count", len(keys)))
	return s.All(ctx)
}
