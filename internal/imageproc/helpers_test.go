package imageproc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func webpBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encodeWebP(&buf, gradient(w, h), 80))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, gradient(w, h), nil))
	return buf.Bytes()
}

// testConfig uses small widths so the suite stays fast.
func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.StorageDir = dir
	cfg.VariantWidths = []int{360, 300, 240, 180, 120, 60}
	return cfg
}

func newTestPipeline(cfg Config) *pipeline {
	return &pipeline{
		cfg:    cfg,
		enc:    defaultEncoders(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// failWebPAtWidth makes the WebP encoder fail for images of the given width.
func failWebPAtWidth(p *pipeline, width int) {
	next := p.enc.webp
	p.enc.webp = func(w io.Writer, img image.Image, q int) error {
		if img.Bounds().Dx() == width {
			return errors.New("injected encoder failure")
		}
		return next(w, img, q)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
