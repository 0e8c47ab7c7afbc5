package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	xwebp "golang.org/x/image/webp"
)

// Format is a sniffed source encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

var mimeFormats = map[string]Format{
	"image/jpeg": FormatJPEG,
	"image/png":  FormatPNG,
	"image/webp": FormatWebP,
}

// MIME returns the canonical media type of the format.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// PrimaryExt is the extension of the primary artifact for a source format.
// WebP sources get a JPEG primary because the .webp name is taken by the
// modern artifact.
func (f Format) PrimaryExt() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// Sniff classifies data by its content alone. The returned MIME type is the
// detected one even when it is not allowed, for logging.
func Sniff(data []byte) (Format, string, error) {
	detected := mimetype.Detect(data)
	mime := detected.String()
	for m := detected; m != nil; m = m.Parent() {
		if f, ok := mimeFormats[m.String()]; ok {
			return f, m.String(), nil
		}
	}
	return "", mime, errorf(KindUnsupportedType, "sniff", "detected %s", mime)
}

// probe reads only the image header for its dimensions.
func probe(f Format, data []byte) (image.Config, error) {
	r := bytes.NewReader(data)
	switch f {
	case FormatJPEG:
		return jpeg.DecodeConfig(r)
	case FormatPNG:
		return png.DecodeConfig(r)
	case FormatWebP:
		return xwebp.DecodeConfig(r)
	default:
		return image.Config{}, fmt.Errorf("no decoder for %q", f)
	}
}
