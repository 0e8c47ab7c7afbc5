package tiles

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/memohai/folio/internal/media"
)

// DefaultCTALabel is used when a tile is created without a label.
const DefaultCTALabel = "Visit"

// Field limits applied after markup is stripped.
const (
	MaxSlugLength  = 50
	MaxTitleLength = 100
	MaxBlurbLength = 500
	MaxCTALength   = 50
)

// Tile is one portfolio entry as seen by the admin API.
type Tile struct {
	ID         int64       `json:"id"`
	Slug       string      `json:"slug"`
	Title      string      `json:"title"`
	Blurb      string      `json:"blurb"`
	CTALabel   string      `json:"cta_label"`
	TargetURL  string      `json:"target_url"`
	BgMediaID  *int64      `json:"bg_media_id"`
	AccentHex  string      `json:"accent_hex"`
	OrderIndex int64       `json:"order_index"`
	Visible    bool        `json:"visible"`
	PublishAt  *time.Time  `json:"publish_at"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Media      *MediaBrief `json:"media,omitempty"`
}

// MediaBrief is the background image attached to a tile response.
type MediaBrief struct {
	PathOriginal string       `json:"path_original"`
	PathWebP     string       `json:"path_webp"`
	Width        int64        `json:"width"`
	Height       int64        `json:"height"`
	Sizes        []media.Size `json:"sizes"`
}

// PublicTile is the gallery feed entry.
type PublicTile struct {
	ID        int64       `json:"id"`
	Slug      string      `json:"slug"`
	Title     string      `json:"title"`
	Blurb     string      `json:"blurb"`
	CTALabel  string      `json:"cta_label"`
	TargetURL string      `json:"target_url"`
	AccentHex string      `json:"accent_hex"`
	Media     *MediaBrief `json:"media"`
}

// PublicResponse is the body of GET /api/public/tiles.
type PublicResponse struct {
	Tiles []PublicTile `json:"tiles"`
}

// ListResponse is the body of GET /api/tiles.
type ListResponse struct {
	Tiles []Tile `json:"tiles"`
}

// CreateRequest is the body of POST /api/tiles. PublishAt accepts RFC 3339
// or the datetime-local form 2006-01-02T15:04; empty means immediately.
type CreateRequest struct {
	Slug      string `json:"slug" validate:"required,max=50,slug"`
	Title     string `json:"title" validate:"required,max=100"`
	Blurb     string `json:"blurb" validate:"max=500"`
	CTALabel  string `json:"cta_label" validate:"max=50"`
	TargetURL string `json:"target_url" validate:"required,http_url"`
	BgMediaID *int64 `json:"bg_media_id"`
	AccentHex string `json:"accent_hex" validate:"omitempty,hexcolor,len=7"`
	Visible   *bool  `json:"visible"`
	PublishAt string `json:"publish_at"`
}

// UpdateRequest is the body of PUT /api/tiles/:id. Nil fields are left
// unchanged. BgMediaID 0 detaches the image and PublishAt "" clears the date.
// The merged result is validated with the CreateRequest rules.
type UpdateRequest struct {
	Slug       *string `json:"slug"`
	Title      *string `json:"title"`
	Blurb      *string `json:"blurb"`
	CTALabel   *string `json:"cta_label"`
	TargetURL  *string `json:"target_url"`
	BgMediaID  *int64  `json:"bg_media_id"`
	AccentHex  *string `json:"accent_hex"`
	OrderIndex *int64  `json:"order_index"`
	Visible    *bool   `json:"visible"`
	PublishAt  *string `json:"publish_at"`
}

func (r UpdateRequest) empty() bool {
	return r.Slug == nil && r.Title == nil && r.Blurb == nil && r.CTALabel == nil &&
		r.TargetURL == nil && r.BgMediaID == nil && r.AccentHex == nil &&
		r.OrderIndex == nil && r.Visible == nil && r.PublishAt == nil
}

// ReorderRequest is the body of PATCH /api/tiles/reorder. Position is the
// index in IDs. Entries may be numbers or numeric strings; anything else is
// skipped.
type ReorderRequest struct {
	IDs []any `json:"ids"`
}

// ParseIDs converts raw JSON ids, mapping unusable entries to 0 so positions
// are preserved.
func (r ReorderRequest) ParseIDs() []int64 {
	out := make([]int64, len(r.IDs))
	for i, raw := range r.IDs {
		switch v := raw.(type) {
		case float64:
			if v == math.Trunc(v) && v > 0 && v <= math.MaxInt64 {
				out[i] = int64(v)
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				out[i] = n
			}
		}
	}
	return out
}
