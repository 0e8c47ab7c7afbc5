// Package media persists pipeline artifacts and serves or deletes them by id.
package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/memohai/folio/internal/db"
	"github.com/memohai/folio/internal/db/sqlc"
	"github.com/memohai/folio/internal/imageproc"
	"github.com/memohai/folio/internal/logger"
	"github.com/memohai/folio/internal/storage"
)

var (
	// ErrMediaNotFound is returned for unknown ids or missing files.
	ErrMediaNotFound = errors.New("media not found")
	// ErrMediaInUse is returned when deleting media referenced by a tile.
	ErrMediaInUse = errors.New("media is in use")
	// ErrEmptyUpload is returned for zero-length uploads.
	ErrEmptyUpload = errors.New("empty upload")
)

const maxOriginalName = 255

type ingestFunc func(ctx context.Context, data []byte, name string, cfg imageproc.Config) (imageproc.Artifact, error)

// Service stores pipeline output in the media table.
type Service struct {
	conn    *sql.DB
	queries *sqlc.Queries
	cfg     imageproc.Config
	logger  *slog.Logger
	ingest  ingestFunc
	remove  func(primary, webp string) error
	now     func() time.Time
}

// NewService creates a media service writing under cfg.StorageDir.
func NewService(log *slog.Logger, conn *sql.DB, queries *sqlc.Queries, cfg imageproc.Config) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		conn:    conn,
		queries: queries,
		cfg:     cfg,
		logger:  log.With(slog.String("service", "media")),
		ingest:  imageproc.Ingest,
		remove:  imageproc.RemoveArtifact,
		now:     time.Now,
	}
}

// Upload runs the image pipeline and records the artifact. Pipeline errors
// are returned unchanged so callers can log imageproc.KindOf.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Media, error) {
	if len(in.Data) == 0 {
		return Media{}, ErrEmptyUpload
	}
	name := originalName(in.Filename)
	art, err := s.ingest(ctx, in.Data, name, s.cfg)
	if err != nil {
		return Media{}, err
	}

	sizes, err := json.Marshal(art.Variants)
	if err != nil {
		return Media{}, fmt.Errorf("encode sizes: %w", err)
	}
	var uploadedBy *int64
	if in.UserID > 0 {
		uploadedBy = &in.UserID
	}
	row, err := s.queries.CreateMedia(ctx, sqlc.CreateMediaParams{
		OriginalName: name,
		Hash:         art.Hash,
		Format:       string(art.Format),
		PathOriginal: art.PrimaryPath,
		PathWebp:     art.WebPPath,
		Width:        int64(art.Width),
		Height:       int64(art.Height),
		SizeBytes:    int64(len(in.Data)),
		SizesJson:    string(sizes),
		UploadedBy:   db.NullID(uploadedBy),
		CreatedAt:    db.Unix(s.now()),
	})
	if err != nil {
		s.releaseFiles(ctx, art.Hash, art.PrimaryPath, art.WebPPath)
		return Media{}, fmt.Errorf("store media: %w", err)
	}

	logger.FromContext(ctx).Info("media uploaded",
		slog.Int64("id", row.ID),
		slog.String("hash", art.Hash),
		slog.String("format", string(art.Format)),
		slog.Int("variants", len(art.Variants)),
	)
	return toMedia(row), nil
}

// List returns every media record, newest first.
func (s *Service) List(ctx context.Context) ([]Media, error) {
	rows, err := s.queries.ListMedia(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Media, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMedia(row))
	}
	return out, nil
}

// Get returns a media record by id.
func (s *Service) Get(ctx context.Context, id int64) (Media, error) {
	row, err := s.queries.GetMedia(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Media{}, ErrMediaNotFound
		}
		return Media{}, err
	}
	return toMedia(row), nil
}

// Resolve picks the file to serve. A width matching a stored variant serves
// that variant; format "webp" or an unknown width serves the full WebP; the
// primary rendition is the default. The returned content type is sniffed
// from the file.
func (s *Service) Resolve(ctx context.Context, id int64, format string, width int) (string, string, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return "", "", err
	}

	path := m.PathOriginal
	switch {
	case width > 0:
		path = m.PathWebP
		for _, v := range m.Variants {
			if v.Width == width {
				path = v.Path
				break
			}
		}
	case strings.EqualFold(format, "webp"):
		path = m.PathWebP
	}

	abs, err := storage.Contain(s.cfg.StorageDir, path)
	if err != nil {
		s.logger.Warn("refusing to serve path", slog.Int64("id", id), slog.Any("error", err))
		return "", "", ErrMediaNotFound
	}
	mt, err := mimetype.DetectFile(abs)
	if err != nil {
		return "", "", ErrMediaNotFound
	}
	return abs, mt.String(), nil
}

// Delete removes a media record. Files are removed only when no other
// record shares the same content hash.
func (s *Service) Delete(ctx context.Context, id int64) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	qtx := s.queries.WithTx(tx)

	row, err := qtx.GetMedia(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return ErrMediaNotFound
		}
		return err
	}
	inUse, err := qtx.CountTilesUsingMedia(ctx, sql.NullInt64{Int64: id, Valid: true})
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrMediaInUse
	}
	if _, err := qtx.DeleteMedia(ctx, id); err != nil {
		return err
	}
	shared, err := qtx.CountMediaByHash(ctx, row.Hash)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if shared == 0 {
		s.removeFiles(row.PathOriginal, row.PathWebp)
	}
	s.logger.Info("media deleted", slog.Int64("id", id), slog.Bool("files_removed", shared == 0))
	return nil
}

// releaseFiles removes the artifact of a failed insert unless another
// record already owns the same hash.
func (s *Service) releaseFiles(ctx context.Context, hash, primary, webp string) {
	n, err := s.queries.CountMediaByHash(ctx, hash)
	if err != nil {
		s.logger.Warn("keeping files after failed insert", slog.String("hash", hash), slog.Any("error", err))
		return
	}
	if n == 0 {
		s.removeFiles(primary, webp)
	}
}

func (s *Service) removeFiles(primary, webp string) {
	if _, err := storage.Contain(s.cfg.StorageDir, primary); err != nil {
		s.logger.Warn("refusing to delete path", slog.String("path", primary), slog.Any("error", err))
		return
	}
	if err := s.remove(primary, webp); err != nil {
		s.logger.Warn("remove media files failed", slog.String("path", primary), slog.Any("error", err))
	}
}

func toMedia(row sqlc.Medium) Media {
	m := Media{
		ID:           row.ID,
		OriginalName: row.OriginalName,
		Hash:         row.Hash,
		Format:       row.Format,
		Width:        row.Width,
		Height:       row.Height,
		SizeBytes:    row.SizeBytes,
		URL:          URL(row.ID),
		WebPURL:      WebPURL(row.ID),
		UploadedBy:   db.IDPtr(row.UploadedBy),
		CreatedAt:    db.TimeFromUnix(row.CreatedAt),
		PathOriginal: row.PathOriginal,
		PathWebP:     row.PathWebp,
		Variants:     DecodeVariants(row.SizesJson),
	}
	m.Sizes = Sizes(row.ID, m.Variants)
	return m
}

// DecodeVariants parses a stored sizes_json column. Malformed values yield
// no variants.
func DecodeVariants(raw string) []imageproc.Variant {
	var out []imageproc.Variant
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// Sizes maps stored variants to their serve URLs.
func Sizes(id int64, variants []imageproc.Variant) []Size {
	out := make([]Size, 0, len(variants))
	for _, v := range variants {
		out = append(out, Size{Width: v.Width, Height: v.Height, URL: VariantURL(id, v.Width)})
	}
	return out
}

func originalName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" {
		name = ""
	}
	if utf8.RuneCountInString(name) > maxOriginalName {
		name = string([]rune(name)[:maxOriginalName])
	}
	return name
}
