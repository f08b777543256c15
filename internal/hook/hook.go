// Package hook dispatches user-provided executables on session state
// transitions.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/pomodoro/internal/session"
)

// Trigger names the two hook files a transition may invoke.
type Trigger string

const (
	// Start fires for "started" and "resumed" events.
	Start Trigger = "start"
	// Stop fires for "paused", "aborted", and "completed" events.
	Stop Trigger = "stop"
)

// TriggerFor maps an event kind to the hook file it invokes.
func TriggerFor(kind session.EventKind) Trigger {
	switch kind {
	case session.Started, session.Resumed:
		return Start
	default:
		return Stop
	}
}

// payload is the JSON document written to the hook's standard input.
type payload struct {
	Session      payloadSession `json:"session"`
	SessionEvent payloadEvent   `json:"session_event"`
}

type payloadSession struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	PlannedSecs int    `json:"planned_secs"`
	CreatedAt   string `json:"created_at"`
}

type payloadEvent struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
}

// Dispatcher resolves and invokes hook files under a configured
// directory.
type Dispatcher struct {
	// Dir is the directory containing "start" and "stop" hook files,
	// typically {config_dir}/hooks.
	Dir string
	// Disabled skips dispatch entirely, honoring --no-hooks.
	Disabled bool
}

// NewDispatcher returns a Dispatcher rooted at hooksDir.
func NewDispatcher(hooksDir string) *Dispatcher {
	return &Dispatcher{Dir: hooksDir}
}

// Dispatch resolves the hook file for sess/ev, and if it exists and is
// executable, spawns it, writes the JSON payload to its stdin, closes
// stdin, and waits for it to exit. Spawn and wait failures are logged
// at debug level and never returned: a hook failure must not surface to
// the user or leave the store in an inconsistent state, since the event
// is already persisted by the time dispatch runs.
func (d *Dispatcher) Dispatch(ctx context.Context, sess session.Session, ev session.Event) {
	if d == nil || d.Disabled || d.Dir == "" {
		return
	}

	trigger := TriggerFor(ev.Kind)
	path := filepath.Join(d.Dir, string(trigger))

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if info.Mode()&0o111 == 0 {
		return
	}

	body, err := json.Marshal(payload{
		Session: payloadSession{
			ID:          sess.ID,
			Kind:        string(sess.Kind),
			PlannedSecs: sess.PlannedSecs,
			CreatedAt:   sess.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
		SessionEvent: payloadEvent{
			ID:        ev.ID,
			Kind:      string(ev.Kind),
			SessionID: ev.SessionID,
			CreatedAt: ev.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
	})
	if err != nil {
		slog.Debug("hook: marshal payload failed", "path", path, "error", err)
		return
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Stdin = bytes.NewReader(body)

	// The parent waits for the child so that ordering (transition, then
	// hook) is observable; exit status and output are ignored per
	// contract.
	if err := cmd.Run(); err != nil {
		slog.Debug("hook: run failed", "path", shellquote.Join(path), "error", err)
	}
}
