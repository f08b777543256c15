// Package store persists sessions and session events and queries them
// back in defined order.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ayoisaiah/pomodoro/internal/apperr"
	"github.com/ayoisaiah/pomodoro/internal/session"
)

// schema is the canonical DDL. It matches the wire format spec verbatim,
// including the foreign key with cascading delete; foreign key
// enforcement itself is turned on per-connection via a PRAGMA, since
// SQLite disables it by default.
const schema = `
CREATE TABLE IF NOT EXISTS session (
  session_id   TEXT PRIMARY KEY,
  session_kind TEXT NOT NULL,
  planned_secs INTEGER NOT NULL CHECK (planned_secs > 0),
  created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_event (
  session_event_id   TEXT PRIMARY KEY,
  session_event_kind TEXT NOT NULL,
  session_id         TEXT NOT NULL REFERENCES session(session_id) ON DELETE CASCADE,
  created_at         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS session_event_session_id_idx ON session_event(session_id);
`

// ErrNotFound is returned by GetSession when no session exists.
var ErrNotFound = errors.New("store: not found")

// Store persists sessions and events, and queries them in defined
// order. "Latest" is the row with the largest id.
type Store interface {
	InsertSessionWithEvent(ctx context.Context, sess session.Session, firstEvent session.Event) error
	InsertEvent(ctx context.Context, ev session.Event) error
	GetSession(ctx context.Context, id string) (*session.Session, error)
	ListSessions(ctx context.Context, limit, offset int) ([]session.Session, error)
	ListEvents(ctx context.Context, sessionID string, limit, offset int) ([]session.Event, error)
	LatestSession(ctx context.Context) (*session.Session, error)
	EventsAscending(ctx context.Context, sessionID string) ([]session.Event, error)
	// WithTx runs fn against a Store bound to a single transaction: every
	// call fn makes through the Store it is handed reads and writes the
	// same in-flight transaction, so a read-decide-append sequence (load
	// the latest session, decide the next event, append it) is atomic
	// against a second, concurrent invocation racing on the same row.
	// fn's error rolls the transaction back; a nil return commits it.
	WithTx(ctx context.Context, fn func(Store) error) error
	Close() error
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting every read
// and write method below run unmodified whether SQLStore is bound to the
// database's autocommit handle or to an explicit transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore is a Store backed by a pure-Go SQLite driver.
type SQLStore struct {
	db *sql.DB
	q  querier
}

// Open opens (creating if necessary) the database file at path and
// ensures the schema exists. path may be ":memory:" for an ephemeral,
// process-local database.
func Open(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	// The PRAGMAs below are per-connection settings (and a ":memory:"
	// database is per-connection too), so the pool is held to the one
	// connection they are applied to.
	db.SetMaxOpenConns(1)

	// A single writer at a time; a second concurrent invocation blocks
	// briefly on this busy timeout rather than failing immediately,
	// mirroring the bolt.Options{Timeout: 1 * time.Second} pattern.
	if _, err := db.Exec("PRAGMA busy_timeout = 1000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable foreign_keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &SQLStore{db: db, q: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// WithTx begins a transaction on the underlying database and runs fn
// against a Store bound to it, committing on a nil return and rolling
// back otherwise.
func (s *SQLStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Store, err, "store: begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&SQLStore{db: s.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Store, err, "store: commit transaction")
	}

	return nil
}

// InsertSessionWithEvent inserts a new session row and its first event.
// If s is not already bound to a transaction (i.e. it is a standalone
// call rather than one made from inside WithTx), the two inserts are
// wrapped in their own transaction so either both land or neither does.
func (s *SQLStore) InsertSessionWithEvent(
	ctx context.Context,
	sess session.Session,
	firstEvent session.Event,
) error {
	if db, ok := s.q.(*sql.DB); ok {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return apperr.Wrap(apperr.Store, err, "store: begin transaction")
		}
		defer tx.Rollback() //nolint:errcheck

		if err := (&SQLStore{db: s.db, q: tx}).insertSessionWithEvent(ctx, sess, firstEvent); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return apperr.Wrap(apperr.Store, err, "store: commit transaction")
		}

		return nil
	}

	return s.insertSessionWithEvent(ctx, sess, firstEvent)
}

func (s *SQLStore) insertSessionWithEvent(
	ctx context.Context,
	sess session.Session,
	firstEvent session.Event,
) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO session (session_id, session_kind, planned_secs, created_at) VALUES (?, ?, ?, ?)`,
		sess.ID, string(sess.Kind), sess.PlannedSecs, sess.CreatedAt.Unix(),
	)
	if err != nil {
		return apperr.Wrap(apperr.Store, err, "store: insert session")
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO session_event (session_event_id, session_event_kind, session_id, created_at) VALUES (?, ?, ?, ?)`,
		firstEvent.ID, string(firstEvent.Kind), firstEvent.SessionID, firstEvent.CreatedAt.Unix(),
	)
	if err != nil {
		return apperr.Wrap(apperr.Store, err, "store: insert first event")
	}

	return nil
}

// InsertEvent appends a single event. A foreign-key failure (unknown
// session id) surfaces as a Store error.
func (s *SQLStore) InsertEvent(ctx context.Context, ev session.Event) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO session_event (session_event_id, session_event_kind, session_id, created_at) VALUES (?, ?, ?, ?)`,
		ev.ID, string(ev.Kind), ev.SessionID, ev.CreatedAt.Unix(),
	)
	if err != nil {
		return apperr.Wrap(apperr.Store, err, "store: insert event")
	}

	return nil
}

// GetSession returns the session with the given id, or ErrNotFound.
func (s *SQLStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT session_id, session_kind, planned_secs, created_at FROM session WHERE session_id = ?`,
		id,
	)

	return scanSession(row)
}

// ListSessions returns sessions in descending id order, i.e. newest
// first, honoring limit and offset.
func (s *SQLStore) ListSessions(ctx context.Context, limit, offset int) ([]session.Session, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT session_id, session_kind, planned_secs, created_at
		 FROM session ORDER BY session_id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, err, "store: list sessions")
	}
	defer rows.Close()

	var out []session.Session

	for rows.Next() {
		sess, err := scanSessionRows(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Store, err, "store: scan session")
		}

		out = append(out, *sess)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Store, err, "store: list sessions")
	}

	return out, nil
}

// LatestSession returns the session with the largest id, or nil if the
// store is empty.
func (s *SQLStore) LatestSession(ctx context.Context) (*session.Session, error) {
	sessions, err := s.ListSessions(ctx, 1, 0)
	if err != nil {
		return nil, err
	}

	if len(sessions) == 0 {
		return nil, nil
	}

	return &sessions[0], nil
}

// ListEvents returns events in descending id order. When sessionID is
// empty, it returns events across all sessions.
func (s *SQLStore) ListEvents(
	ctx context.Context,
	sessionID string,
	limit, offset int,
) ([]session.Event, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if sessionID == "" {
		rows, err = s.q.QueryContext(ctx,
			`SELECT session_event_id, session_event_kind, session_id, created_at
			 FROM session_event ORDER BY session_event_id DESC LIMIT ? OFFSET ?`,
			limit, offset,
		)
	} else {
		rows, err = s.q.QueryContext(ctx,
			`SELECT session_event_id, session_event_kind, session_id, created_at
			 FROM session_event WHERE session_id = ? ORDER BY session_event_id DESC LIMIT ? OFFSET ?`,
			sessionID, limit, offset,
		)
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.Store, err, "store: list events")
	}
	defer rows.Close()

	var out []session.Event

	for rows.Next() {
		var (
			ev   session.Event
			kind string
			ts   int64
		)

		if err := rows.Scan(&ev.ID, &kind, &ev.SessionID, &ts); err != nil {
			return nil, apperr.Wrap(apperr.Store, err, "store: scan event")
		}

		ev.Kind = session.EventKind(kind)
		ev.CreatedAt = time.Unix(ts, 0).UTC()

		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Store, err, "store: list events")
	}

	return out, nil
}

// EventsAscending returns every event for sessionID in causal
// (ascending id) order, the shape the reducer requires.
func (s *SQLStore) EventsAscending(ctx context.Context, sessionID string) ([]session.Event, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT session_event_id, session_event_kind, session_id, created_at
		 FROM session_event WHERE session_id = ? ORDER BY session_event_id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, err, "store: list events ascending")
	}
	defer rows.Close()

	var out []session.Event

	for rows.Next() {
		var (
			ev   session.Event
			kind string
			ts   int64
		)

		if err := rows.Scan(&ev.ID, &kind, &ev.SessionID, &ts); err != nil {
			return nil, apperr.Wrap(apperr.Store, err, "store: scan event")
		}

		ev.Kind = session.EventKind(kind)
		ev.CreatedAt = time.Unix(ts, 0).UTC()

		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Store, err, "store: list events ascending")
	}

	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*session.Session, error) {
	var (
		sess session.Session
		kind string
		ts   int64
	)

	err := row.Scan(&sess.ID, &kind, &sess.PlannedSecs, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.Store, err, "store: scan session")
	}

	sess.Kind = session.Kind(kind)
	sess.CreatedAt = time.Unix(ts, 0).UTC()

	return &sess, nil
}

func scanSessionRows(rows *sql.Rows) (*session.Session, error) {
	return scanSession(rows)
}
