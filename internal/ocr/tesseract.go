package ocr

import (
	"bytes"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	apperr "github.com/shinyhunt/encounterd/internal/errors"
	"github.com/shinyhunt/encounterd/internal/vision"
)

// linePadding widens each recognized line region by a few pixels so
// Tesseract sees a margin around the glyphs.
const linePadding = 4

// Tesseract implements Engine on the system Tesseract runtime.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates an engine with the given language pack.
func NewTesseract(lang string) (*Tesseract, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, apperr.Wrap(err, apperr.OCR, "set language")
	}
	// Encounter badges are short isolated tokens scattered over the
	// frame; sparse segmentation finds them without assuming a block
	// layout.
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, apperr.Wrap(err, apperr.OCR, "set page segmentation mode")
	}
	return &Tesseract{client: client}, nil
}

// Close releases the Tesseract client.
func (t *Tesseract) Close() error {
	return t.client.Close()
}

// PrepareInput reverses the tensor scaling into raster form once, so the
// detection and recognition stages reuse a single encoded image.
func (t *Tesseract) PrepareInput(tn *vision.Tensor) (*Input, error) {
	img := tn.Gray()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperr.Wrap(err, apperr.OCR, "encode input image")
	}
	return &Input{img: img, png: buf.Bytes()}, nil
}

// DetectWords locates word bounding regions across the whole input.
func (t *Tesseract) DetectWords(in *Input) ([]image.Rectangle, error) {
	if err := t.client.SetImageFromBytes(in.png); err != nil {
		return nil, apperr.Wrap(err, apperr.OCR, "set detection image")
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.OCR, "detect words")
	}
	rects := make([]image.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		rects = append(rects, b.Box)
	}
	return rects, nil
}

// FindTextLines groups detected word regions into text lines.
func (t *Tesseract) FindTextLines(_ *Input, words []image.Rectangle) [][]image.Rectangle {
	return groupLines(words)
}

// RecognizeText recognizes each grouped line by cropping its region out
// of the prepared input and running recognition on the crop. Lines that
// recognize to nothing are dropped.
func (t *Tesseract) RecognizeText(in *Input, lines [][]image.Rectangle) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, rects := range lines {
		region := lineBounds(rects).Inset(-linePadding).Intersect(in.img.Bounds())
		if region.Empty() {
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, in.img.SubImage(region)); err != nil {
			return nil, apperr.Wrap(err, apperr.OCR, "encode line region")
		}
		if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
			return nil, apperr.Wrap(err, apperr.OCR, "set recognition image")
		}
		text, err := t.client.Text()
		if err != nil {
			return nil, apperr.Wrap(err, apperr.OCR, "recognize line")
		}

		words := strings.Fields(text)
		if len(words) > 0 {
			out = append(out, Line{Words: words})
		}
	}
	return out, nil
}
