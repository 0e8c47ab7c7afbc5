package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// encodeFunc writes img to w at the given quality (ignored by lossless formats).
type encodeFunc func(w io.Writer, img image.Image, quality int) error

type encoders struct {
	jpeg encodeFunc
	png  encodeFunc
	webp encodeFunc
}

func defaultEncoders() encoders {
	return encoders{
		jpeg: encodeJPEG,
		png:  encodePNG,
		webp: encodeWebP,
	}
}

// primary picks the encoder for the {hash}.{ext} artifact.
func (e encoders) primary(f Format) encodeFunc {
	if f == FormatPNG {
		return e.png
	}
	return e.jpeg
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

func encodePNG(w io.Writer, img image.Image, _ int) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}

func encodeWebP(w io.Writer, img image.Image, quality int) error {
	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
	if err != nil {
		return fmt.Errorf("webp options: %w", err)
	}
	return webp.Encode(w, img, opts)
}

// decode fully decodes data, honouring EXIF orientation. Decoder panics on
// hostile input are returned as errors.
func decode(data []byte) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func resample(src image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(src, width, height, imaging.Lanczos)
}
