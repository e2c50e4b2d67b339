// Package engine runs the encounter detection loop: it samples frames,
// folds noisy per-frame observations into mode transitions, and keeps
// the durable session tally.
package engine

import (
	"encoding/json"
	"fmt"
)

// Mode is the logical phase of the tracked session.
type Mode int

const (
	ModeInit Mode = iota
	ModeEncounter
	ModeWalk
	ModePause
)

var modeNames = [...]string{"Init", "Encounter", "Walk", "Pause"}

// String returns the wire discriminant, which is also the JSON encoding.
func (m Mode) String() string {
	if m < ModeInit || m > ModePause {
		return "Unknown"
	}
	return modeNames[m]
}

// Label returns the operator-facing status line. It differs from the
// wire discriminant only where the UI needs a hint.
func (m Mode) Label() string {
	if m == ModeInit {
		return "Init, Press S to start."
	}
	return m.String()
}

// ParseMode maps a wire discriminant back to its Mode.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return ModeInit, fmt.Errorf("unknown mode %q", s)
}

// MarshalJSON encodes the mode as its discriminant string.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a discriminant string; unknown names are errors.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// State is the durable session tally. Exactly one logical writer
// mutates it per cycle; the persisted form is the JSON object in the
// state file.
type State struct {
	Encounters    uint64            `json:"encounters"`
	LastEncounter []string          `json:"last_encounter"`
	Mode          Mode              `json:"mode"`
	MonStats      map[string]uint64 `json:"mon_stats"`
}

// NewState returns the fresh-session default.
func NewState() *State {
	return &State{
		LastEncounter: []string{},
		Mode:          ModeInit,
		MonStats:      map[string]uint64{},
	}
}

// Clone returns a deep copy for read-only snapshots.
func (s *State) Clone() *State {
	c := &State{
		Encounters:    s.Encounters,
		LastEncounter: append([]string{}, s.LastEncounter...),
		Mode:          s.Mode,
		MonStats:      make(map[string]uint64, len(s.MonStats)),
	}
	for k, v := range s.MonStats {
		c.MonStats[k] = v
	}
	return c
}

// recordEncounter folds one chosen observation into the tally.
// Duplicate names each count: two identical tokens in one observation
// add two encounters and two occurrences.
func (s *State) recordEncounter(mons []string) {
	s.Encounters += uint64(len(mons))
	s.LastEncounter = append([]string{}, mons...)
	s.Mode = ModeEncounter
	for _, m := range mons {
		s.MonStats[m]++
	}
}
