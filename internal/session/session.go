// Package session defines the session/event data model and the pure
// reducer that folds an event log into a derived, renderable state.
package session

import "time"

// Kind is the kind of a timed session.
type Kind string

const (
	Focus Kind = "focus"
	Break Kind = "break"
	// None is the derived kind reported when there is no session at all.
	// It is never persisted.
	None Kind = "none"
)

// EventKind is the kind of a single transition in a session's life.
type EventKind string

const (
	Started   EventKind = "started"
	Paused    EventKind = "paused"
	Resumed   EventKind = "resumed"
	Aborted   EventKind = "aborted"
	Completed EventKind = "completed"
)

// Session is one timed interval.
type Session struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	PlannedSecs int       `json:"planned_secs"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event is one durable transition in a session's lifecycle.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// State is the non-persisted, renderable projection of a session and
// its events at a given instant.
type State string

const (
	Running        State = "running"
	PausedState    State = "paused"
	CompletedState State = "completed"
	AbortedState   State = "aborted"
	NoneState      State = "none"
)

// IsTerminal reports whether s admits no further events.
func (s State) IsTerminal() bool {
	return s == CompletedState || s == AbortedState
}

// DerivedState is the reducer's output: the view spec.md's renderer
// projects to text, JSON, or a user template.
type DerivedState struct {
	Kind          Kind  `json:"kind"`
	State         State `json:"state"`
	PlannedSecs   int   `json:"planned_secs"`
	ElapsedSecs   int   `json:"elapsed_secs"`
	RemainingSecs int   `json:"remaining_secs"`
}

// zeroState is the DerivedState reported when there is no session.
var zeroState = DerivedState{
	Kind:          None,
	State:         NoneState,
	PlannedSecs:   0,
	ElapsedSecs:   0,
	RemainingSecs: 0,
}

// Reduce folds events (ascending by id, i.e. causal order) belonging to
// sess into a DerivedState as of now. It never fails: every well-formed
// input produces a well-formed output.
//
// If sess is nil, Reduce reports the zero (none) state regardless of
// events or now.
func Reduce(sess *Session, events []Event, now time.Time) DerivedState {
	if sess == nil {
		return zeroState
	}

	var (
		elapsed  time.Duration
		runStart time.Time
		running  bool
		terminal State
	)

	for _, ev := range events {
		switch ev.Kind {
		case Started, Resumed:
			runStart = ev.CreatedAt
			running = true
		case Paused:
			if running {
				elapsed += ev.CreatedAt.Sub(runStart)
			}

			running = false
		case Aborted:
			if running {
				elapsed += ev.CreatedAt.Sub(runStart)
			}

			running = false
			terminal = AbortedState
		case Completed:
			if running {
				elapsed += ev.CreatedAt.Sub(runStart)
			}

			running = false
			terminal = CompletedState
		}
	}

	elapsedSecs := int(elapsed.Seconds())

	if terminal != "" {
		d := DerivedState{
			Kind:        sess.Kind,
			State:       terminal,
			PlannedSecs: sess.PlannedSecs,
			ElapsedSecs: elapsedSecs,
		}

		// Only completed sessions clamp elapsed to planned: a completed
		// session's elapsed is bounded by construction (the auto-complete
		// stamp never runs past planned_secs). An aborted session may
		// have run past planned_secs before being reset, and reports its
		// true elapsed.
		if terminal == CompletedState {
			return clamp(d)
		}

		return finalize(d)
	}

	if running {
		provisional := elapsedSecs + int(now.Sub(runStart).Seconds())
		if provisional >= sess.PlannedSecs {
			provisional = sess.PlannedSecs
		}

		return clamp(DerivedState{
			Kind:        sess.Kind,
			State:       Running,
			PlannedSecs: sess.PlannedSecs,
			ElapsedSecs: provisional,
		})
	}

	return clamp(DerivedState{
		Kind:        sess.Kind,
		State:       PausedState,
		PlannedSecs: sess.PlannedSecs,
		ElapsedSecs: elapsedSecs,
	})
}

// IsExpired reports whether a running state has consumed its full
// planned duration and is due for auto-completion.
func IsExpired(d DerivedState) bool {
	return d.State == Running && d.ElapsedSecs >= d.PlannedSecs
}

// clamp upper-bounds elapsed at planned before finalizing.
func clamp(d DerivedState) DerivedState {
	if d.ElapsedSecs > d.PlannedSecs {
		d.ElapsedSecs = d.PlannedSecs
	}

	return finalize(d)
}

// finalize floors elapsed at zero and derives remaining, without
// upper-bounding elapsed against planned.
func finalize(d DerivedState) DerivedState {
	if d.ElapsedSecs < 0 {
		d.ElapsedSecs = 0
	}

	d.RemainingSecs = d.PlannedSecs - d.ElapsedSecs
	if d.RemainingSecs < 0 {
		d.RemainingSecs = 0
	}

	return d
}
