package media

import (
	"fmt"
	"time"

	"github.com/memohai/folio/internal/imageproc"
)

// Media is a stored upload. File paths stay server side; clients address
// renditions through the serve URLs.
type Media struct {
	ID           int64     `json:"id"`
	OriginalName string    `json:"original_name"`
	Hash         string    `json:"hash"`
	Format       string    `json:"format"`
	Width        int64     `json:"width"`
	Height       int64     `json:"height"`
	SizeBytes    int64     `json:"size_bytes"`
	URL          string    `json:"url"`
	WebPURL      string    `json:"url_webp"`
	Sizes        []Size    `json:"sizes"`
	UploadedBy   *int64    `json:"uploaded_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	PathOriginal string              `json:"-"`
	PathWebP     string              `json:"-"`
	Variants     []imageproc.Variant `json:"-"`
}

// Size is a responsive rendition as exposed to clients.
type Size struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// UploadInput carries one upload into the pipeline.
type UploadInput struct {
	UserID   int64
	Filename string
	Data     []byte
}

// UploadResponse is the body of POST /api/media.
type UploadResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Media   Media  `json:"media"`
}

// ListResponse is the body of GET /api/media.
type ListResponse struct {
	Media []Media `json:"media"`
}

// URL is the serve endpoint of the primary rendition.
func URL(id int64) string {
	return fmt.Sprintf("/api/media/serve/%d", id)
}

// WebPURL is the serve endpoint of the full-size WebP rendition.
func WebPURL(id int64) string {
	return URL(id) + "?format=webp"
}

// VariantURL is the serve endpoint of the WebP variant of width w.
func VariantURL(id int64, w int) string {
	return fmt.Sprintf("%s?w=%d", URL(id), w)
}
