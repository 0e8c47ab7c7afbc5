// Package imageproc turns an untrusted image upload into content-addressed
// artifacts. The source is centre-cropped to a canonical aspect ratio and
// re-encoded once in its primary format plus a set of WebP renditions.
package imageproc

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults mirror the values the hub ships with.
const (
	DefaultQuality       = 75
	DefaultAspectRatio   = 0.75
	DefaultMaxDimension  = 10000
	DefaultMaxPixels     = 25_000_000
	DefaultStorageDir    = "uploads"
	DefaultVariantWorker = 0
)

// DefaultVariantWidths is the candidate list for responsive variants, largest first.
var DefaultVariantWidths = []int{1920, 1440, 1080, 768, 480}

// Config controls a single ingestion. It is passed by value to Ingest.
type Config struct {
	// Quality is the lossy quality (0-100) for JPEG and WebP output.
	Quality int
	// AspectRatio is the width/height ratio of the cropped output.
	AspectRatio float64
	// VariantWidths are candidate widths, largest first.
	VariantWidths []int
	// MaxDimension bounds either side of the decoded source.
	MaxDimension int
	// MaxPixels bounds width*height of the decoded source.
	MaxPixels int64
	// StorageDir receives every artifact file.
	StorageDir string
	// VariantWorkers > 1 encodes variants concurrently with that many workers.
	VariantWorkers int
}

// DefaultConfig returns a config populated with the shipped defaults.
func DefaultConfig() Config {
	widths := make([]int, len(DefaultVariantWidths))
	copy(widths, DefaultVariantWidths)
	return Config{
		Quality:        DefaultQuality,
		AspectRatio:    DefaultAspectRatio,
		VariantWidths:  widths,
		MaxDimension:   DefaultMaxDimension,
		MaxPixels:      DefaultMaxPixels,
		StorageDir:     DefaultStorageDir,
		VariantWorkers: DefaultVariantWorker,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Quality < 0 || c.Quality > 100 {
		return fmt.Errorf("quality must be within 0-100, got %d", c.Quality)
	}
	if !(c.AspectRatio > 0) {
		return fmt.Errorf("aspect ratio must be positive, got %v", c.AspectRatio)
	}
	if c.MaxDimension <= 0 {
		return errors.New("max dimension must be positive")
	}
	if c.MaxPixels <= 0 {
		return errors.New("max pixels must be positive")
	}
	if strings.TrimSpace(c.StorageDir) == "" {
		return errors.New("storage dir is required")
	}
	for i, w := range c.VariantWidths {
		if w <= 0 {
			return fmt.Errorf("variant width must be positive, got %d", w)
		}
		if i > 0 && w >= c.VariantWidths[i-1] {
			return fmt.Errorf("variant widths must be strictly descending: %d follows %d", w, c.VariantWidths[i-1])
		}
	}
	return nil
}
