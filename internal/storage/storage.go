// Package storage holds the local filesystem helpers shared by the media,
// health and backup code.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a stored path escapes its root directory.
var ErrOutsideRoot = errors.New("path outside storage root")

// Contain resolves p and verifies it lies inside root. It returns the
// absolute path.
func Contain(root, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: empty path", ErrOutsideRoot)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return absPath, nil
}

// Usage is the capacity of the filesystem holding a directory.
type Usage struct {
	Free  uint64 `json:"free"`
	Total uint64 `json:"total"`
}

// FreeGB is Free in gibibytes rounded to two decimals.
func (u Usage) FreeGB() float64 {
	gb := float64(u.Free) / (1 << 30)
	return float64(int64(gb*100+0.5)) / 100
}
