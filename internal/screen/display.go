package screen

import (
	"image"

	"github.com/kbinani/screenshot"

	apperr "github.com/shinyhunt/encounterd/internal/errors"
)

// displaySession captures one display through the platform capture APIs
// (CoreGraphics, GDI, or X11 depending on build target). The library
// normalizes pixel byte order to RGBA; row stride comes back as captured.
type displaySession struct {
	bounds image.Rectangle
}

// Acquire opens a capture session on the primary display: the display
// whose bounds start at the origin, falling back to display 0. Failure
// to find any display is fatal.
func Acquire() (Session, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, apperr.New(apperr.CaptureFatal, "no active displays found")
	}

	bounds := screenshot.GetDisplayBounds(0)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		if b.Min.X == 0 && b.Min.Y == 0 {
			bounds = b
			break
		}
	}
	return &displaySession{bounds: bounds}, nil
}

func (s *displaySession) Frame() (*Frame, error) {
	img, err := screenshot.CaptureRect(s.bounds)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CaptureFatal, "capture frame")
	}
	return &Frame{
		Pix:    img.Pix,
		Stride: img.Stride,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (s *displaySession) Bounds() image.Rectangle { return s.bounds }

func (s *displaySession) Close() error { return nil }
