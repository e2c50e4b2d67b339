package engine

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Alerter watches encounter observations for target species and logs a
// loud alert when one appears. A cooldown suppresses repeat alerts for
// the same species while the operator is presumably already reacting.
type Alerter struct {
	targets  map[string]bool
	cooldown time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time
	now      func() time.Time
	live     chan Alert
}

// Alert is one fired target-species sighting.
type Alert struct {
	Species   string    `json:"species"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAlerter builds an alerter for the given species names. Names are
// matched case-insensitively against filtered observation tokens.
func NewAlerter(targets []string, cooldown time.Duration) *Alerter {
	set := make(map[string]bool, len(targets))
	for _, t := range targets {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = true
		}
	}
	return &Alerter{
		targets:  set,
		cooldown: cooldown,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
		live:     make(chan Alert, 16),
	}
}

// Alerts returns the live alert feed. Alerts are dropped rather than
// queued when nothing is draining the channel.
func (a *Alerter) Alerts() <-chan Alert {
	return a.live
}

// Check scans an observation and returns the target species that fired
// an alert this call. Species inside their cooldown window are skipped.
func (a *Alerter) Check(mons []string) []string {
	if len(a.targets) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var fired []string
	now := a.now()
	for _, m := range mons {
		if !a.targets[m] {
			continue
		}
		if last, ok := a.lastSeen[m]; ok && now.Sub(last) < a.cooldown {
			continue
		}
		a.lastSeen[m] = now
		fired = append(fired, m)
		slog.Warn("target species encountered", "species", m)
		select {
		case a.live <- Alert{Species: m, Timestamp: now}:
		default:
		}
	}
	return fired
}
