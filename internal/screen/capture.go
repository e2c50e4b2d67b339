// Package screen provides platform-agnostic capture of the primary display.
// The provider hands back canonical RGBA bytes with the platform's native
// row stride; everything past this boundary is platform-independent.
package screen

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/shinyhunt/encounterd/internal/resilience"
)

// ErrFrameNotReady reports that the provider has no fresh frame yet.
// It is a distinct, non-fatal condition: callers retry after one frame
// interval instead of treating it as a capture failure.
var ErrFrameNotReady = errors.New("screen: frame not ready")

// Bounded busy-poll budget while waiting for a frame to become ready.
// At 60 fps this spins for at most five seconds before giving up.
const maxNotReadyRetries = 300

// Frame is one raw captured frame. Pix holds RGBA bytes whose rows are
// Stride bytes apart; Stride may exceed Width*4 due to row padding.
type Frame struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
}

// Session is an exclusively owned capture handle for one display.
// It is acquired once at engine start and held for the process lifetime.
type Session interface {
	// Frame pulls the next raw frame. It may return ErrFrameNotReady;
	// any other error is fatal to the capture session.
	Frame() (*Frame, error)
	Bounds() image.Rectangle
	Close() error
}

// Grab pulls the next frame from the session, retrying ErrFrameNotReady
// on a one-frame interval with a bounded attempt budget. Any other
// failure is returned to the caller untouched.
func Grab(ctx context.Context, s Session, fps int) (*Frame, error) {
	if fps <= 0 {
		fps = 60
	}
	var f *Frame
	err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxRetries:  maxNotReadyRetries,
		Interval:    time.Second / time.Duration(fps),
		IsRetryable: func(err error) bool { return errors.Is(err, ErrFrameNotReady) },
	}, func() error {
		var err error
		f, err = s.Frame()
		return err
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}
