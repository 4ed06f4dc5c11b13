package analysis

import (
	"errors"
	"fmt"

	"bitgraph/internal/bitrate"
	"bitgraph/internal/media/ffprobe"
)

// State names a step in the lifecycle of one analysed file.
type State string

const (
	StateNotSelected  State = "not_selected"
	StatePendingProbe State = "pending_probe"
	StateProbeFailed  State = "probe_failed"
	StateReady        State = "ready"
	StateRendered     State = "rendered"
)

// ErrInvalidTransition is returned when an operation is not allowed from the
// session's current state.
var ErrInvalidTransition = errors.New("invalid analysis transition")

// Status is a snapshot of a session. Which fields are populated depends on
// State: Path from PendingProbe onwards, Err in ProbeFailed, Data in Ready
// and Rendered, Bars and Stats in Rendered.
type Status struct {
	State State
	Path  string
	Err   error
	Data  *ffprobe.ProbeData
	Bars  []bitrate.Bar
	Stats bitrate.Stats
	Width float64
}

var allowedFrom = map[string][]State{
	"probe":  {StatePendingProbe},
	"render": {StateReady, StateRendered},
}

func checkTransition(op string, from State) error {
	for _, state := range allowedFrom[op] {
		if state == from {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, from)
}
