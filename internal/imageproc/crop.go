package imageproc

import (
	"image"
	"math"
)

// CropSpec is a crop rectangle in source pixel coordinates.
// It always lies inside the source and has positive extents.
type CropSpec struct {
	OffsetX int
	OffsetY int
	Width   int
	Height  int
}

// Rect returns the crop as an image.Rectangle relative to origin.
func (c CropSpec) Rect(origin image.Point) image.Rectangle {
	p := origin.Add(image.Pt(c.OffsetX, c.OffsetY))
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(c.Width, c.Height))}
}

// ComputeCrop returns the centred crop of a width x height source that has
// the given width/height ratio. Extents and offsets are floored.
func ComputeCrop(width, height int, ratio float64) CropSpec {
	if float64(width)/float64(height) > ratio {
		w := clamp(int(math.Floor(float64(height)*ratio)), 1, width)
		return CropSpec{
			OffsetX: (width - w) / 2,
			Width:   w,
			Height:  height,
		}
	}
	h := clamp(int(math.Floor(float64(width)/ratio)), 1, height)
	return CropSpec{
		OffsetY: (height - h) / 2,
		Width:   width,
		Height:  h,
	}
}

// VariantHeight scales height by width/fullWidth, floored, never below 1.
func VariantHeight(fullWidth, fullHeight, width int) int {
	h := int(int64(fullHeight) * int64(width) / int64(fullWidth))
	if h < 1 {
		return 1
	}
	return h
}

// SelectVariantWidths keeps the candidates strictly narrower than fullWidth,
// preserving their order.
func SelectVariantWidths(candidates []int, fullWidth int) []int {
	out := make([]int, 0, len(candidates))
	for _, w := range candidates {
		if w < fullWidth {
			out = append(out, w)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
