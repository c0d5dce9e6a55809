package scan

import "time"

// DefaultFoundHold is how long the border stays in the found state after
// the last live target sighting, so a momentarily dropped frame does not
// flicker the feedback.
const DefaultFoundHold = 300 * time.Millisecond

// BorderState is the scanner's user-facing feedback state.
type BorderState int

const (
	// BorderIdle means no targets are defined or scanning is stopped.
	BorderIdle BorderState = iota
	// BorderSearching means the scanner is looking and no target is in view.
	BorderSearching
	// BorderFound means a target is in view, or was within the hold window.
	BorderFound
)

// String returns the lowercase state name.
func (s BorderState) String() string {
	switch s {
	case BorderIdle:
		return "idle"
	case BorderSearching:
		return "searching"
	case BorderFound:
		return "found"
	default:
		return "unknown"
	}
}

// nextBorderState computes the border state from the machine's inputs.
// Idle takes precedence over everything else; after the last sighting of
// a live target the found state holds for the debounce window.
func nextBorderState(hasTargets, active, targetVisible bool, lastFound time.Time, hold time.Duration, now time.Time) BorderState {
	if !hasTargets || !active {
		return BorderIdle
	}

	if targetVisible {
		return BorderFound
	}

	if !lastFound.IsZero() && now.Sub(lastFound) < hold {
		return BorderFound
	}

	return BorderSearching
}
