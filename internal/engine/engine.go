package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperr "github.com/shinyhunt/encounterd/internal/errors"
	"github.com/shinyhunt/encounterd/internal/trace"
)

// Store persists session state between cycles.
type Store interface {
	Save(*State) error
}

// Engine owns the session state and drives the detect loop. All state
// mutation happens under its lock; readers take cloned snapshots.
type Engine struct {
	mu    sync.RWMutex
	state *State

	obs     Observer
	store   Store
	history *History
	alerter *Alerter

	detectFrames int
	cycleDelay   time.Duration
}

// Options carry the loop's tunables.
type Options struct {
	DetectFrames int
	CycleDelay   time.Duration
}

// New builds an engine around an initial state. The state is owned by
// the engine from here on; callers keep no reference.
func New(st *State, obs Observer, store Store, history *History, alerter *Alerter, opts Options) *Engine {
	if opts.DetectFrames < 2 {
		opts.DetectFrames = 4
	}
	if opts.CycleDelay <= 0 {
		opts.CycleDelay = 400 * time.Millisecond
	}
	return &Engine{
		state:        st,
		obs:          obs,
		store:        store,
		history:      history,
		alerter:      alerter,
		detectFrames: opts.DetectFrames,
		cycleDelay:   opts.CycleDelay,
	}
}

// Run executes cycles until the context is cancelled or a fatal error
// surfaces. Each cycle ends with an unconditional save and a delay.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := e.Cycle(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cycleDelay):
		}
	}
}

// Cycle performs one detect iteration: sample observations (unless the
// mode is inactive), fold them into a possible transition, persist.
func (e *Engine) Cycle(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "engine_cycle")
	defer span.End()
	log := trace.Logger(ctx)

	mode := e.Mode()
	span.SetAttr("mode", mode.String())

	if mode == ModeEncounter || mode == ModeWalk {
		obs, err := e.sample(ctx, log)
		if err != nil {
			return err
		}
		e.fold(mode, obs, log)
	}

	if err := e.persist(); err != nil {
		return err
	}
	log.Debug("cycle complete", "span", span)
	return nil
}

// sample collects detectFrames-1 observations. A failed observation is
// fatal only when capture itself broke; recognition failures degrade to
// an empty observation so one bad frame cannot derail the session.
func (e *Engine) sample(ctx context.Context, log *slog.Logger) ([][]string, error) {
	n := e.detectFrames - 1
	obs := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mons, err := e.obs.Observe(ctx)
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			log.Warn("observation failed", "error", err)
			mons = nil
		}
		obs = append(obs, mons)
	}
	return obs, nil
}

// fold applies the transition rules to one cycle's observations. The
// mode is re-checked under the lock: if an external actor changed it
// mid-sample, the stale observations are discarded.
func (e *Engine) fold(sampled Mode, obs [][]string, log *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Mode != sampled {
		return
	}

	switch sampled {
	case ModeEncounter:
		if allEmpty(obs) {
			e.state.Mode = ModeWalk
			log.Info("encounter ended")
		}
	case ModeWalk:
		best := longest(obs)
		if len(best) == 0 {
			return
		}
		e.state.recordEncounter(best)
		log.Info("encounter detected",
			"mons", best,
			"encounters", e.state.Encounters)
		if e.history != nil {
			e.history.Emit(best, e.state.Encounters)
		}
		if e.alerter != nil {
			e.alerter.Check(best)
		}
	}
}

func (e *Engine) persist() error {
	e.mu.RLock()
	snap := e.state.Clone()
	e.mu.RUnlock()

	if err := e.store.Save(snap); err != nil {
		return apperr.Wrap(err, apperr.Persistence, "persist cycle state")
	}
	return nil
}

// SetMode applies an external mode transition, effective from the next
// fold. The change is persisted on the following cycle.
func (e *Engine) SetMode(m Mode) {
	e.mu.Lock()
	e.state.Mode = m
	e.mu.Unlock()
}

// Mode returns the current mode.
func (e *Engine) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Mode
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// History exposes the encounter event ring, which may be nil.
func (e *Engine) History() *History {
	return e.history
}

func allEmpty(obs [][]string) bool {
	for _, o := range obs {
		if len(o) > 0 {
			return false
		}
	}
	return true
}

// longest picks the observation with the most names, preferring the
// latest on ties. Later frames in a cycle tend to be the settled ones.
func longest(obs [][]string) []string {
	var best []string
	for _, o := range obs {
		if len(o) >= len(best) && len(o) > 0 {
			best = o
		}
	}
	return best
}

// isFatal reports whether an observation error must stop the loop.
// Recognition and layout failures are per-frame noise; a dead capture
// session or a failed save cannot be sampled around.
func isFatal(err error) bool {
	switch apperr.CodeOf(err) {
	case apperr.CaptureFatal, apperr.Persistence:
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
