// Package ocr drives optical character recognition over prepared image
// tensors in three composable stages: word-region detection, text-line
// grouping, and per-line recognition.
package ocr

import (
	"image"
	"strings"

	"github.com/shinyhunt/encounterd/internal/vision"
)

// Line is one recognized text line: its words in reading order.
type Line struct {
	Words []string
}

// Text returns the line's words joined by single spaces.
func (l Line) Text() string {
	return strings.Join(l.Words, " ")
}

// Input is a prepared recognition input derived from one tensor. It is
// valid for one frame and must not outlive it.
type Input struct {
	img *image.Gray
	png []byte
}

// Engine is the recognition capability. The stages must be invoked in
// order: PrepareInput, DetectWords, FindTextLines, RecognizeText. Any
// stage may fail; failures abort the frame and are never retried here.
type Engine interface {
	PrepareInput(t *vision.Tensor) (*Input, error)
	DetectWords(in *Input) ([]image.Rectangle, error)
	FindTextLines(in *Input, words []image.Rectangle) [][]image.Rectangle
	RecognizeText(in *Input, lines [][]image.Rectangle) ([]Line, error)
	Close() error
}

// ExtractLines runs the full three-stage pipeline over one tensor.
// Every frame is processed fully; there is no caching between frames.
func ExtractLines(e Engine, t *vision.Tensor) ([]Line, error) {
	in, err := e.PrepareInput(t)
	if err != nil {
		return nil, err
	}
	words, err := e.DetectWords(in)
	if err != nil {
		return nil, err
	}
	lines := e.FindTextLines(in, words)
	return e.RecognizeText(in, lines)
}
