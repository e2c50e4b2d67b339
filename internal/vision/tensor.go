package vision

import (
	"image"

	apperr "github.com/shinyhunt/encounterd/internal/errors"
)

// Tensor is a planar channel-major (CHW) float32 image with values
// scaled to [0,1], the layout the OCR engine accepts.
type Tensor struct {
	Data     []float32
	Channels int
	Height   int
	Width    int
}

// At returns the element at (channel, y, x).
func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.Height+y)*t.Width+x]
}

// Gray renders channel 0 back into an 8-bit grayscale raster. Engines
// that consume raster input rather than tensors use this internally.
func (t *Tensor) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < t.Width; x++ {
			row[x] = uint8(t.At(0, y, x)*255 + 0.5)
		}
	}
	return img
}

// FromImage converts an interleaved RGBA image into a 3-channel CHW
// tensor scaled to [0,1]. Alpha is dropped.
func FromImage(img *image.RGBA) (*Tensor, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, apperr.Newf(apperr.Layout, "empty image %dx%d", w, h)
	}
	if img.Stride < w*4 || len(img.Pix) < (h-1)*img.Stride+w*4 {
		return nil, apperr.Newf(apperr.Layout,
			"image buffer %d bytes does not cover %dx%d at stride %d",
			len(img.Pix), w, h, img.Stride)
	}

	// Transpose HWC into a contiguous CHW buffer first, then rescale.
	// Scaling through a strided view is markedly slower than a straight
	// pass over contiguous memory.
	planar := make([]uint8, 3*h*w)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				planar[(c*h+y)*w+x] = row[x*4+c]
			}
		}
	}

	data := make([]float32, len(planar))
	for i, v := range planar {
		data[i] = float32(v) / 255
	}
	return &Tensor{Data: data, Channels: 3, Height: h, Width: w}, nil
}
