// Package activity records an audit trail of admin actions.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/memohai/folio/internal/db"
	"github.com/memohai/folio/internal/db/sqlc"
)

// Actions written to the log.
const (
	ActionLogin   = "login"
	ActionLogout  = "logout"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionReorder = "reorder"
	ActionUpload  = "upload"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// Entry is one audit record.
type Entry struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "activity")),
		now:     time.Now,
	}
}

// Record stores e. It never fails the caller; write errors are logged.
func (s *Service) Record(ctx context.Context, e Entry) {
	err := s.queries.CreateActivity(ctx, sqlc.CreateActivityParams{
		UserID:     db.NullID(e.UserID),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   db.NullID(e.EntityID),
		Details:    e.Details,
		CreatedAt:  db.Unix(s.now()),
	})
	if err != nil {
		s.logger.Warn("record activity failed",
			slog.String("action", e.Action),
			slog.String("entity_type", e.EntityType),
			slog.Any("error", err),
		)
	}
}

// List returns the newest entries first.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.queries.ListActivity(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{
			ID:         r.ID,
			UserID:     db.IDPtr(r.UserID),
			UserEmail:  r.UserEmail.String,
			Action:     r.Action,
			EntityType: r.EntityType,
			EntityID:   db.IDPtr(r.EntityID),
			Details:    r.Details,
			CreatedAt:  db.TimeFromUnix(r.CreatedAt),
		})
	}
	return out, nil
}

// ID is a convenience for building Entry pointers.
func ID(v int64) *int64 { return &v }
