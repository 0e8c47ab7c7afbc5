// Package tiles manages the portfolio entries shown on the public gallery.
package tiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/memohai/folio/internal/db"
	"github.com/memohai/folio/internal/db/sqlc"
	"github.com/memohai/folio/internal/media"
)

var (
	ErrTileNotFound = errors.New("tile not found")
	ErrSlugTaken    = errors.New("slug already in use")
	ErrNoFields     = errors.New("no fields to update")
	ErrUnknownMedia = errors.New("background media not found")
	// ErrInvalidTile wraps a message naming the offending field. The message
	// is safe to show to clients.
	ErrInvalidTile = errors.New("invalid tile")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// publishLayouts are accepted for publish_at, most specific first.
var publishLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"}

type Service struct {
	conn     *sql.DB
	queries  *sqlc.Queries
	logger   *slog.Logger
	validate *validator.Validate
	sanitize *bluemonday.Policy
	now      func() time.Time
}

func NewService(log *slog.Logger, conn *sql.DB, queries *sqlc.Queries) *Service {
	return &Service{
		conn:     conn,
		queries:  queries,
		logger:   log.With(slog.String("service", "tiles")),
		validate: newValidator(),
		sanitize: bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// List returns every tile in display order with its background media.
func (s *Service) List(ctx context.Context) ([]Tile, error) {
	rows, err := s.queries.ListTiles(ctx)
	if err != nil {
		return nil, err
	}
	mediaRows, err := s.queries.ListMedia(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]sqlc.Medium, len(mediaRows))
	for _, m := range mediaRows {
		byID[m.ID] = m
	}

	out := make([]Tile, 0, len(rows))
	for _, row := range rows {
		t := toTile(row)
		if row.BgMediaID.Valid {
			if m, ok := byID[row.BgMediaID.Int64]; ok {
				t.Media = briefFromMedium(m)
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// ListPublic returns the tiles visible at now: visible and either
// unscheduled or published at or before now.
func (s *Service) ListPublic(ctx context.Context, now time.Time) ([]PublicTile, error) {
	rows, err := s.queries.ListPublicTiles(ctx, sql.NullInt64{Int64: db.Unix(now), Valid: true})
	if err != nil {
		return nil, err
	}
	out := make([]PublicTile, 0, len(rows))
	for _, row := range rows {
		t := PublicTile{
			ID:        row.ID,
			Slug:      row.Slug,
			Title:     row.Title,
			Blurb:     row.Blurb,
			CTALabel:  row.CtaLabel,
			TargetURL: row.TargetUrl,
			AccentHex: row.AccentHex,
		}
		if row.BgMediaID.Valid && row.MediaPathWebp.Valid {
			id := row.BgMediaID.Int64
			t.Media = &MediaBrief{
				PathOriginal: media.URL(id),
				PathWebP:     media.WebPURL(id),
				Width:        row.MediaWidth.Int64,
				Height:       row.MediaHeight.Int64,
				Sizes:        media.Sizes(id, media.DecodeVariants(row.MediaSizesJson.String)),
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// Get returns one tile with its background media.
func (s *Service) Get(ctx context.Context, id int64) (Tile, error) {
	row, err := s.queries.GetTile(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Tile{}, ErrTileNotFound
		}
		return Tile{}, err
	}
	return s.withMedia(ctx, s.queries, toTile(row))
}

// Create inserts a tile at the end of the display order.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Tile, error) {
	req.Slug = s.clean(req.Slug, MaxSlugLength)
	req.Title = s.clean(req.Title, MaxTitleLength)
	req.Blurb = s.clean(req.Blurb, MaxBlurbLength)
	req.CTALabel = s.clean(req.CTALabel, MaxCTALength)
	if req.CTALabel == "" {
		req.CTALabel = DefaultCTALabel
	}
	req.TargetURL = strings.TrimSpace(req.TargetURL)
	req.AccentHex = strings.TrimSpace(req.AccentHex)
	if err := s.check(req); err != nil {
		return Tile{}, err
	}
	publishAt, err := parsePublishAt(req.PublishAt)
	if err != nil {
		return Tile{}, err
	}
	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return Tile{}, err
	}
	defer func() { _ = tx.Rollback() }()
	qtx := s.queries.WithTx(tx)

	if err := checkMedia(ctx, qtx, req.BgMediaID); err != nil {
		return Tile{}, err
	}
	maxOrder, err := qtx.MaxTileOrder(ctx)
	if err != nil {
		return Tile{}, err
	}
	now := db.Unix(s.now())
	row, err := qtx.CreateTile(ctx, sqlc.CreateTileParams{
		Slug:       req.Slug,
		Title:      req.Title,
		Blurb:      req.Blurb,
		CtaLabel:   req.CTALabel,
		TargetUrl:  req.TargetURL,
		BgMediaID:  db.NullID(req.BgMediaID),
		AccentHex:  req.AccentHex,
		OrderIndex: maxOrder + 1,
		Visible:    boolInt(visible),
		PublishAt:  db.NullTime(publishAt),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Tile{}, ErrSlugTaken
		}
		return Tile{}, fmt.Errorf("create tile: %w", err)
	}
	t, err := s.withMedia(ctx, qtx, toTile(row))
	if err != nil {
		return Tile{}, err
	}
	if err := tx.Commit(); err != nil {
		return Tile{}, err
	}
	s.logger.Info("tile created", slog.Int64("id", t.ID), slog.String("slug", t.Slug))
	return t, nil
}

// Update applies the non-nil fields of req. The merged tile must satisfy
// the same rules as a new one.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Tile, error) {
	if req.empty() {
		return Tile{}, ErrNoFields
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return Tile{}, err
	}
	defer func() { _ = tx.Rollback() }()
	qtx := s.queries.WithTx(tx)

	row, err := qtx.GetTile(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Tile{}, ErrTileNotFound
		}
		return Tile{}, err
	}

	merged := CreateRequest{
		Slug:      row.Slug,
		Title:     row.Title,
		Blurb:     row.Blurb,
		CTALabel:  row.CtaLabel,
		TargetURL: row.TargetUrl,
		BgMediaID: db.IDPtr(row.BgMediaID),
		AccentHex: row.AccentHex,
	}
	if req.Slug != nil {
		merged.Slug = s.clean(*req.Slug, MaxSlugLength)
	}
	if req.Title != nil {
		merged.Title = s.clean(*req.Title, MaxTitleLength)
	}
	if req.Blurb != nil {
		merged.Blurb = s.clean(*req.Blurb, MaxBlurbLength)
	}
	if req.CTALabel != nil {
		merged.CTALabel = s.clean(*req.CTALabel, MaxCTALength)
		if merged.CTALabel == "" {
			merged.CTALabel = DefaultCTALabel
		}
	}
	if req.TargetURL != nil {
		merged.TargetURL = strings.TrimSpace(*req.TargetURL)
	}
	if req.AccentHex != nil {
		merged.AccentHex = strings.TrimSpace(*req.AccentHex)
	}
	if req.BgMediaID != nil {
		merged.BgMediaID = nil
		if *req.BgMediaID > 0 {
			merged.BgMediaID = req.BgMediaID
		}
	}
	if err := s.check(merged); err != nil {
		return Tile{}, err
	}

	publishAt := db.TimePtr(row.PublishAt)
	if req.PublishAt != nil {
		if publishAt, err = parsePublishAt(*req.PublishAt); err != nil {
			return Tile{}, err
		}
	}
	visible := row.Visible
	if req.Visible != nil {
		visible = boolInt(*req.Visible)
	}
	order := row.OrderIndex
	if req.OrderIndex != nil {
		order = *req.OrderIndex
	}
	if req.BgMediaID != nil {
		if err := checkMedia(ctx, qtx, merged.BgMediaID); err != nil {
			return Tile{}, err
		}
	}

	updated, err := qtx.UpdateTile(ctx, sqlc.UpdateTileParams{
		Slug:       merged.Slug,
		Title:      merged.Title,
		Blurb:      merged.Blurb,
		CtaLabel:   merged.CTALabel,
		TargetUrl:  merged.TargetURL,
		BgMediaID:  db.NullID(merged.BgMediaID),
		AccentHex:  merged.AccentHex,
		OrderIndex: order,
		Visible:    visible,
		PublishAt:  db.NullTime(publishAt),
		UpdatedAt:  db.Unix(s.now()),
		ID:         id,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Tile{}, ErrSlugTaken
		}
		return Tile{}, fmt.Errorf("update tile: %w", err)
	}
	t, err := s.withMedia(ctx, qtx, toTile(updated))
	if err != nil {
		return Tile{}, err
	}
	if err := tx.Commit(); err != nil {
		return Tile{}, err
	}
	return t, nil
}

// Delete removes a tile. Its background media is left in place.
func (s *Service) Delete(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteTile(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTileNotFound
	}
	return nil
}

// Reorder sets each tile's order_index to its position in ids, in one
// transaction. Non-positive ids are skipped but still consume a position.
// It returns the number of tiles updated.
func (s *Service) Reorder(ctx context.Context, ids []int64) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	qtx := s.queries.WithTx(tx)

	now := db.Unix(s.now())
	updated := 0
	for pos, id := range ids {
		if id <= 0 {
			continue
		}
		n, err := qtx.UpdateTileOrder(ctx, sqlc.UpdateTileOrderParams{OrderIndex: int64(pos), UpdatedAt: now, ID: id})
		if err != nil {
			return 0, fmt.Errorf("reorder tile %d: %w", id, err)
		}
		updated += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *Service) clean(v string, limit int) string {
	v = strings.TrimSpace(s.sanitize.Sanitize(v))
	if r := []rune(v); len(r) > limit {
		v = strings.TrimSpace(string(r[:limit]))
	}
	return v
}

func (s *Service) check(req CreateRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTile, describe(verrs[0]))
	}
	return fmt.Errorf("%w: %v", ErrInvalidTile, err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "slug":
		return "slug may only use lowercase letters, numbers and hyphens"
	case "http_url":
		return fe.Field() + " must be an absolute http(s) URL"
	case "hexcolor", "len":
		return fe.Field() + " must be a #RRGGBB colour"
	default:
		return fe.Field() + " is invalid"
	}
}

func (s *Service) withMedia(ctx context.Context, q *sqlc.Queries, t Tile) (Tile, error) {
	if t.BgMediaID == nil {
		return t, nil
	}
	m, err := q.GetMedia(ctx, *t.BgMediaID)
	if err != nil {
		if db.IsNotFound(err) {
			return t, nil
		}
		return Tile{}, err
	}
	t.Media = briefFromMedium(m)
	return t, nil
}

func checkMedia(ctx context.Context, q *sqlc.Queries, id *int64) error {
	if id == nil || *id <= 0 {
		return nil
	}
	if _, err := q.GetMedia(ctx, *id); err != nil {
		if db.IsNotFound(err) {
			return ErrUnknownMedia
		}
		return err
	}
	return nil
}

func parsePublishAt(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range publishLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: publish_at must be an RFC 3339 time", ErrInvalidTile)
}

func briefFromMedium(m sqlc.Medium) *MediaBrief {
	return &MediaBrief{
		PathOriginal: media.URL(m.ID),
		PathWebP:     media.WebPURL(m.ID),
		Width:        m.Width,
		Height:       m.Height,
		Sizes:        media.Sizes(m.ID, media.DecodeVariants(m.SizesJson)),
	}
}

func toTile(row sqlc.Tile) Tile {
	return Tile{
		ID:         row.ID,
		Slug:       row.Slug,
		Title:      row.Title,
		Blurb:      row.Blurb,
		CTALabel:   row.CtaLabel,
		TargetURL:  row.TargetUrl,
		BgMediaID:  db.IDPtr(row.BgMediaID),
		AccentHex:  row.AccentHex,
		OrderIndex: row.OrderIndex,
		Visible:    row.Visible != 0,
		PublishAt:  db.TimePtr(row.PublishAt),
		CreatedAt:  db.TimeFromUnix(row.CreatedAt),
		UpdatedAt:  db.TimeFromUnix(row.UpdatedAt),
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
