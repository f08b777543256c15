// Package timerapp implements the session service: the state machine
// on top of the event store, clock, identifier generator, and hook
// dispatcher.
package timerapp

import (
	"context"
	"time"

	"github.com/ayoisaiah/pomodoro/internal/apperr"
	"github.com/ayoisaiah/pomodoro/internal/clockutil"
	"github.com/ayoisaiah/pomodoro/internal/hook"
	"github.com/ayoisaiah/pomodoro/internal/idgen"
	"github.com/ayoisaiah/pomodoro/internal/session"
	"github.com/ayoisaiah/pomodoro/internal/store"
)

// Durations holds the default planned length for each session kind.
type Durations struct {
	Focus time.Duration
	Break time.Duration
}

// Service is the state machine described in spec.md §4.E, implemented
// on top of a Store, Clock, id Generator, and Hook dispatcher.
type Service struct {
	Store     store.Store
	Clock     clockutil.Clock
	IDs       idgen.Generator
	Hooks     *hook.Dispatcher
	Durations Durations
}

// Outcome distinguishes a service call that applied a transition (and
// therefore fired a hook) from one that was a no-op.
type Outcome struct {
	Applied bool
	Message string
	State   session.DerivedState
}

// StartParams are the arguments to Start.
type StartParams struct {
	// Kind defaults to session.Focus when empty.
	Kind session.Kind
	// Duration defaults to the configured duration for Kind when zero.
	Duration time.Duration
}

// StopParams are the arguments to Stop.
type StopParams struct {
	Reset bool
}

func (s *Service) defaultDuration(kind session.Kind) time.Duration {
	if kind == session.Break {
		return s.Durations.Break
	}

	return s.Durations.Focus
}

// latest returns st's latest session together with its derived state as
// of now. If there is no session, both the session pointer and the
// state's kind are the zero/none values.
func latest(ctx context.Context, st store.Store, now time.Time) (*session.Session, session.DerivedState, error) {
	sess, err := st.LatestSession(ctx)
	if err != nil {
		return nil, session.DerivedState{}, apperr.Wrap(apperr.Store, err, "timerapp: load latest session")
	}

	if sess == nil {
		return nil, session.Reduce(nil, nil, now), nil
	}

	events, err := st.EventsAscending(ctx, sess.ID)
	if err != nil {
		return nil, session.DerivedState{}, apperr.Wrap(apperr.Store, err, "timerapp: load session events")
	}

	return sess, session.Reduce(sess, events, now), nil
}

// pendingHook carries the session/event pair a transition wants to
// dispatch a hook for once its transaction has committed.
type pendingHook struct {
	sess session.Session
	ev   session.Event
	fire bool
}

// Start implements spec.md §4.E's start table. The read of the latest
// session, the decision it implies, and the resulting append all run
// inside one store transaction (store.Store.WithTx), so a second,
// concurrent start cannot observe the same pre-transition state and
// also apply.
func (s *Service) Start(ctx context.Context, params StartParams) (Outcome, error) {
	kind := params.Kind
	if kind == "" {
		kind = session.Focus
	}

	duration := params.Duration
	if duration <= 0 {
		duration = s.defaultDuration(kind)
	}

	now := s.Clock.Now()

	var (
		outcome Outcome
		hooked  pendingHook
	)

	err := s.Store.WithTx(ctx, func(tx store.Store) error {
		latestSess, derived, err := latest(ctx, tx, now)
		if err != nil {
			return err
		}

		switch derived.State {
		case session.NoneState, session.CompletedState, session.AbortedState:
			newSess, ev, derivedAfter, err := startNewSession(ctx, tx, s.IDs, kind, duration, now)
			if err != nil {
				return err
			}

			outcome = Outcome{Applied: true, Message: "started", State: derivedAfter}
			hooked = pendingHook{sess: newSess, ev: ev, fire: true}

			return nil

		case session.PausedState:
			if latestSess.Kind != kind {
				return apperr.New(
					apperr.StateConflict,
					"cannot resume %s; a %s session is paused", kind, latestSess.Kind,
				)
			}

			ev, derivedAfter, err := appendTransition(ctx, tx, s.IDs, *latestSess, session.Resumed, now)
			if err != nil {
				return err
			}

			outcome = Outcome{Applied: true, Message: "resumed", State: derivedAfter}
			hooked = pendingHook{sess: *latestSess, ev: ev, fire: true}

			return nil

		case session.Running:
			if latestSess.Kind != kind {
				return apperr.New(
					apperr.StateConflict,
					"cannot start %s; a %s session is already in progress", kind, latestSess.Kind,
				)
			}

			outcome = Outcome{Applied: false, Message: "already running", State: derived}

			return nil

		default:
			return apperr.New(apperr.Store, "timerapp: unreachable derived state %q", derived.State)
		}
	})
	if err != nil {
		return Outcome{}, err
	}

	if hooked.fire {
		s.dispatch(ctx, hooked.sess, hooked.ev)
	}

	return outcome, nil
}

func startNewSession(
	ctx context.Context,
	tx store.Store,
	ids idgen.Generator,
	kind session.Kind,
	duration time.Duration,
	now time.Time,
) (session.Session, session.Event, session.DerivedState, error) {
	sessID, err := ids.New()
	if err != nil {
		return session.Session{}, session.Event{}, session.DerivedState{},
			apperr.Wrap(apperr.Store, err, "timerapp: generate session id")
	}

	evID, err := ids.New()
	if err != nil {
		return session.Session{}, session.Event{}, session.DerivedState{},
			apperr.Wrap(apperr.Store, err, "timerapp: generate event id")
	}

	newSess := session.Session{
		ID:          sessID,
		Kind:        kind,
		PlannedSecs: int(duration.Seconds()),
		CreatedAt:   now,
	}

	ev := session.Event{
		ID:        evID,
		Kind:      session.Started,
		SessionID: sessID,
		CreatedAt: now,
	}

	if err := tx.InsertSessionWithEvent(ctx, newSess, ev); err != nil {
		return session.Session{}, session.Event{}, session.DerivedState{}, err
	}

	derived := session.Reduce(&newSess, []session.Event{ev}, now)

	return newSess, ev, derived, nil
}

// Stop implements spec.md §4.E's stop table, under the same
// single-transaction read-decide-append discipline as Start.
func (s *Service) Stop(ctx context.Context, params StopParams) (Outcome, error) {
	now := s.Clock.Now()

	var (
		outcome Outcome
		hooked  pendingHook
	)

	err := s.Store.WithTx(ctx, func(tx store.Store) error {
		latestSess, derived, err := latest(ctx, tx, now)
		if err != nil {
			return err
		}

		switch derived.State {
		case session.NoneState, session.CompletedState, session.AbortedState:
			outcome = Outcome{Applied: false, Message: "no active session", State: derived}
			return nil

		case session.Running:
			kind := session.Paused
			message := "paused"

			if params.Reset {
				kind = session.Aborted
				message = "aborted"
			}

			ev, derivedAfter, err := appendTransition(ctx, tx, s.IDs, *latestSess, kind, now)
			if err != nil {
				return err
			}

			outcome = Outcome{Applied: true, Message: message, State: derivedAfter}
			hooked = pendingHook{sess: *latestSess, ev: ev, fire: true}

			return nil

		case session.PausedState:
			if !params.Reset {
				outcome = Outcome{Applied: false, Message: "already paused", State: derived}
				return nil
			}

			ev, derivedAfter, err := appendTransition(ctx, tx, s.IDs, *latestSess, session.Aborted, now)
			if err != nil {
				return err
			}

			outcome = Outcome{Applied: true, Message: "aborted", State: derivedAfter}
			hooked = pendingHook{sess: *latestSess, ev: ev, fire: true}

			return nil

		default:
			return apperr.New(apperr.Store, "timerapp: unreachable derived state %q", derived.State)
		}
	})
	if err != nil {
		return Outcome{}, err
	}

	if hooked.fire {
		s.dispatch(ctx, hooked.sess, hooked.ev)
	}

	return outcome, nil
}

func appendTransition(
	ctx context.Context,
	tx store.Store,
	ids idgen.Generator,
	sess session.Session,
	kind session.EventKind,
	now time.Time,
) (session.Event, session.DerivedState, error) {
	evID, err := ids.New()
	if err != nil {
		return session.Event{}, session.DerivedState{}, apperr.Wrap(apperr.Store, err, "timerapp: generate event id")
	}

	ev := session.Event{ID: evID, Kind: kind, SessionID: sess.ID, CreatedAt: now}

	if err := tx.InsertEvent(ctx, ev); err != nil {
		return session.Event{}, session.DerivedState{}, err
	}

	events, err := tx.EventsAscending(ctx, sess.ID)
	if err != nil {
		return session.Event{}, session.DerivedState{}, apperr.Wrap(apperr.Store, err, "timerapp: reload events after append")
	}

	derived := session.Reduce(&sess, events, now)

	return ev, derived, nil
}

// StatusWithAutoComplete computes the derived state of the latest
// session and, if it reports a running-but-expired session, appends the
// completed event first. The completed event is timestamped at
// session.CreatedAt + planned_secs, not at "now", so its recorded time
// is independent of when the user happens to run status (spec.md §9
// Open Question). This write is idempotent: a session already terminal
// never re-enters this branch.
//
// If the session was paused at any point, created_at + planned_secs comes
// before the instant at which it actually ran for planned_secs. The
// reducer measures the final run from the last started/resumed event to
// that stamp, so the completed state reports less than planned_secs
// elapsed; when the stamp falls before the last resume, that run counts
// as negative and elapsed is floored at zero.
func (s *Service) StatusWithAutoComplete(ctx context.Context) (session.DerivedState, error) {
	now := s.Clock.Now()

	var (
		result session.DerivedState
		hooked pendingHook
	)

	err := s.Store.WithTx(ctx, func(tx store.Store) error {
		latestSess, derived, err := latest(ctx, tx, now)
		if err != nil {
			return err
		}

		if latestSess == nil || !session.IsExpired(derived) {
			result = derived
			return nil
		}

		evID, err := s.IDs.New()
		if err != nil {
			return apperr.Wrap(apperr.Store, err, "timerapp: generate event id")
		}

		completedAt := latestSess.CreatedAt.Add(time.Duration(latestSess.PlannedSecs) * time.Second)

		ev := session.Event{ID: evID, Kind: session.Completed, SessionID: latestSess.ID, CreatedAt: completedAt}

		if err := tx.InsertEvent(ctx, ev); err != nil {
			return err
		}

		events, err := tx.EventsAscending(ctx, latestSess.ID)
		if err != nil {
			return apperr.Wrap(apperr.Store, err, "timerapp: reload events after auto-complete")
		}

		result = session.Reduce(latestSess, events, now)
		hooked = pendingHook{sess: *latestSess, ev: ev, fire: true}

		return nil
	})
	if err != nil {
		return session.DerivedState{}, err
	}

	if hooked.fire {
		s.dispatch(ctx, hooked.sess, hooked.ev)
	}

	return result, nil
}

func (s *Service) dispatch(ctx context.Context, sess session.Session, ev session.Event) {
	if s.Hooks == nil {
		return
	}

	s.Hooks.Dispatch(ctx, sess, ev)
}

// ParseDuration parses a human-time string per spec.md §4.B/§6 (e.g.
// "25m", "1h30m") into a positive duration.
func ParseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, apperr.Wrap(apperr.Parse, err, "timerapp: invalid duration %q", s)
	}

	if d <= 0 {
		return 0, apperr.New(apperr.Parse, "timerapp: duration %q must be positive", s)
	}

	return d, nil
}

// ParseKind parses a kind string ("focus" or "break").
func ParseKind(s string) (session.Kind, error) {
	switch session.Kind(s) {
	case session.Focus, session.Break:
		return session.Kind(s), nil
	case "":
		return session.Focus, nil
	default:
		return "", apperr.New(apperr.Parse, "timerapp: invalid mode %q, want focus or break", s)
	}
}
