package imageproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/memohai/folio/internal/logger"
)

// Artifact describes the files produced by one successful ingestion.
// Width and Height are the cropped dimensions.
type Artifact struct {
	Hash        string    `json:"hash"`
	Format      Format    `json:"format"`
	PrimaryPath string    `json:"path_original"`
	WebPPath    string    `json:"path_webp"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Variants    []Variant `json:"sizes"`
}

// Variant is one responsive WebP rendition.
type Variant struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Path   string `json:"path"`
}

// Ingest validates data by content, crops it to cfg.AspectRatio and writes
// {hash}.{ext}, {hash}.webp and {hash}_{w}w.webp under cfg.StorageDir.
// claimedFilename is used for logging only. Every failure is an *Error and
// leaves no file created by this call behind.
func Ingest(ctx context.Context, data []byte, claimedFilename string, cfg Config) (Artifact, error) {
	p := &pipeline{
		cfg:    cfg,
		enc:    defaultEncoders(),
		logger: logger.FromContext(ctx).With(slog.String("component", "imageproc")),
	}
	return p.run(ctx, data, claimedFilename)
}

type pipeline struct {
	cfg    Config
	enc    encoders
	logger *slog.Logger
}

func (p *pipeline) run(ctx context.Context, data []byte, claimedFilename string) (_ Artifact, err error) {
	if err := p.cfg.Validate(); err != nil {
		return Artifact{}, newError(KindInvalidConfig, "config", err)
	}

	format, mime, err := Sniff(data)
	if err != nil {
		return Artifact{}, err
	}
	if ext := strings.ToLower(filepath.Ext(claimedFilename)); ext != "" && !extMatches(format, ext) {
		p.logger.Debug("claimed extension differs from content",
			slog.String("claimed", ext),
			slog.String("sniffed", mime),
		)
	}

	cropped, err := p.decodeAndCrop(format, data)
	if err != nil {
		return Artifact{}, err
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, newError(KindCanceled, "crop", err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	files, err := newFileSet(p.cfg.StorageDir, p.logger)
	if err != nil {
		return Artifact{}, err
	}
	defer func() {
		if err != nil {
			files.rollback()
		}
	}()

	bounds := cropped.Bounds()
	art := Artifact{
		Hash:        hash,
		Format:      format,
		PrimaryPath: filepath.Join(p.cfg.StorageDir, hash+format.PrimaryExt()),
		WebPPath:    filepath.Join(p.cfg.StorageDir, hash+".webp"),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}

	primary := p.enc.primary(format)
	if err := files.write("primary", art.PrimaryPath, func(w io.Writer) error {
		return primary(w, cropped, p.cfg.Quality)
	}); err != nil {
		return Artifact{}, err
	}
	if err := files.write("webp", art.WebPPath, func(w io.Writer) error {
		return p.enc.webp(w, cropped, p.cfg.Quality)
	}); err != nil {
		return Artifact{}, err
	}

	widths := SelectVariantWidths(p.cfg.VariantWidths, art.Width)
	art.Variants, err = p.variants(ctx, files, cropped, hash, widths)
	if err != nil {
		return Artifact{}, err
	}

	p.logger.Debug("image ingested",
		slog.String("hash", hash),
		slog.String("format", string(format)),
		slog.Int("width", art.Width),
		slog.Int("height", art.Height),
		slog.Int("variants", len(art.Variants)),
	)
	return art, nil
}

// decodeAndCrop returns only the cropped buffer; the full-size source is
// unreachable once it returns.
func (p *pipeline) decodeAndCrop(format Format, data []byte) (*image.NRGBA, error) {
	hdr, err := probe(format, data)
	if err != nil {
		return nil, newError(KindDecode, "probe", err)
	}
	if err := p.checkLimits(hdr.Width, hdr.Height); err != nil {
		return nil, err
	}

	src, err := decode(data)
	if err != nil {
		return nil, newError(KindDecode, "decode", err)
	}
	b := src.Bounds()
	if err := p.checkLimits(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	crop := ComputeCrop(b.Dx(), b.Dy(), p.cfg.AspectRatio)
	return imaging.Crop(src, crop.Rect(b.Min)), nil
}

// checkLimits enforces both ceilings independently.
func (p *pipeline) checkLimits(width, height int) error {
	if width <= 0 || height <= 0 {
		return errorf(KindDecode, "limits", "empty image %dx%d", width, height)
	}
	if width > p.cfg.MaxDimension || height > p.cfg.MaxDimension {
		return errorf(KindDimensionTooLarge, "limits", "%dx%d exceeds %d px", width, height, p.cfg.MaxDimension)
	}
	if int64(width)*int64(height) > p.cfg.MaxPixels {
		return errorf(KindResolutionTooHigh, "limits", "%dx%d exceeds %d pixels", width, height, p.cfg.MaxPixels)
	}
	return nil
}

func (p *pipeline) variants(ctx context.Context, files *fileSet, src *image.NRGBA, hash string, widths []int) ([]Variant, error) {
	out := make([]Variant, len(widths))
	full := src.Bounds()

	encodeOne := func(i int) error {
		w := widths[i]
		h := VariantHeight(full.Dx(), full.Dy(), w)
		path := filepath.Join(p.cfg.StorageDir, fmt.Sprintf("%s_%dw.webp", hash, w))
		resized := resample(src, w, h)
		if err := files.write("variant "+strconv.Itoa(w), path, func(wr io.Writer) error {
			return p.enc.webp(wr, resized, p.cfg.Quality)
		}); err != nil {
			return err
		}
		out[i] = Variant{Width: w, Height: h, Path: path}
		return nil
	}

	if p.cfg.VariantWorkers <= 1 {
		for i := range widths {
			if err := ctx.Err(); err != nil {
				return nil, newError(KindCanceled, "variants", err)
			}
			if err := encodeOne(i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.VariantWorkers)
	for i := range widths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return newError(KindCanceled, "variants", err)
			}
			return encodeOne(i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func extMatches(f Format, ext string) bool {
	switch ext {
	case ".jpg", ".jpeg":
		return f == FormatJPEG
	case ".png":
		return f == FormatPNG
	case ".webp":
		return f == FormatWebP
	}
	return false
}
