package engine

import (
	"context"
	"image"

	"github.com/shinyhunt/encounterd/internal/names"
	"github.com/shinyhunt/encounterd/internal/ocr"
	"github.com/shinyhunt/encounterd/internal/screen"
	"github.com/shinyhunt/encounterd/internal/syncx"
	"github.com/shinyhunt/encounterd/internal/vision"
)

// Observer produces one observation: the filtered species names visible
// on screen right now. An empty slice means nothing recognizable.
type Observer interface {
	Observe(ctx context.Context) ([]string, error)
}

// Pipeline is the production Observer: capture, normalize, tensorize,
// recognize, filter. Each call processes one full frame end to end.
type Pipeline struct {
	session screen.Session
	engine  ocr.Engine
	fps     int
	preview *syncx.RWGuard[*image.RGBA]
}

// NewPipeline wires a capture session to a recognition engine.
func NewPipeline(session screen.Session, engine ocr.Engine, fps int) *Pipeline {
	return &Pipeline{
		session: session,
		engine:  engine,
		fps:     fps,
		preview: syncx.NewGuard[*image.RGBA](nil),
	}
}

// Observe runs the full per-frame pipeline and returns filtered names.
func (p *Pipeline) Observe(ctx context.Context) ([]string, error) {
	frame, err := screen.Grab(ctx, p.session, p.fps)
	if err != nil {
		return nil, err
	}
	img, err := vision.Normalize(frame)
	if err != nil {
		return nil, err
	}
	p.preview.Set(img)

	t, err := vision.FromImage(img)
	if err != nil {
		return nil, err
	}
	lines, err := ocr.ExtractLines(p.engine, t)
	if err != nil {
		return nil, err
	}
	return names.Extract(lines), nil
}

// Preview returns the most recently normalized frame, or nil before the
// first successful capture. The image is never mutated after Set.
func (p *Pipeline) Preview() *image.RGBA {
	return p.preview.Get()
}
