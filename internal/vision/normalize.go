// Package vision turns raw captured frames into the canonical image and
// tensor forms the OCR engine consumes.
package vision

import (
	"image"

	apperr "github.com/shinyhunt/encounterd/internal/errors"
	"github.com/shinyhunt/encounterd/internal/screen"
)

// Region of interest where encounter badges render: skip the left and
// top UI chrome and everything below the upper half of the screen.
const (
	cropOffsetX    = 150
	cropOffsetY    = 50
	cropHeightTrim = 150
)

// brightnessShift darkens the frame to improve OCR contrast against the
// encounter UI's pale badge background.
const brightnessShift = -50

// CropRect returns the UI region of interest for a capture of the given
// dimensions, clamped to the frame bounds.
func CropRect(w, h int) image.Rectangle {
	r := image.Rect(cropOffsetX, cropOffsetY, cropOffsetX+w, cropOffsetY+h/2-cropHeightTrim)
	return r.Intersect(image.Rect(0, 0, w, h))
}

// Normalize converts one raw frame into the grayscale, brightness-adjusted
// region the OCR engine reads. Rows are copied stride-aware: padding bytes
// past Width*4 are never touched.
func Normalize(f *screen.Frame) (*image.RGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, apperr.Newf(apperr.Layout, "empty frame %dx%d", f.Width, f.Height)
	}
	if f.Stride < f.Width*4 || len(f.Pix) < f.Stride*f.Height {
		return nil, apperr.Newf(apperr.Layout,
			"frame buffer %d bytes does not cover %dx%d at stride %d",
			len(f.Pix), f.Width, f.Height, f.Stride)
	}

	crop := CropRect(f.Width, f.Height)
	if crop.Empty() {
		return nil, apperr.Newf(apperr.Layout, "capture %dx%d smaller than region of interest", f.Width, f.Height)
	}

	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	for y := 0; y < crop.Dy(); y++ {
		src := f.Pix[(y+crop.Min.Y)*f.Stride+crop.Min.X*4:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < crop.Dx(); x++ {
			g := brighten(luma(src[x*4], src[x*4+1], src[x*4+2]), brightnessShift)
			dst[x*4] = g
			dst[x*4+1] = g
			dst[x*4+2] = g
			dst[x*4+3] = 255
		}
	}
	return out, nil
}

// luma converts one pixel to grayscale using BT.709 weights.
func luma(r, g, b uint8) uint8 {
	return uint8((2126*uint32(r) + 7152*uint32(g) + 722*uint32(b)) / 10000)
}

func brighten(v uint8, delta int) uint8 {
	n := int(v) + delta
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
