package render_test

import (
	"encoding/json"
	"testing"

	"github.com/ayoisaiah/pomodoro/internal/apperr"
	"github.com/ayoisaiah/pomodoro/internal/render"
	"github.com/ayoisaiah/pomodoro/internal/session"
)

func TestRenderTextDefault(t *testing.T) {
	d := session.DerivedState{
		Kind: session.Focus, State: session.Running,
		PlannedSecs: 1500, ElapsedSecs: 300, RemainingSecs: 1200,
	}

	got, err := render.Render(d, render.Text, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "focus | running | elapsed 05:00 | remaining 20:00"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderTextNoneState(t *testing.T) {
	d := session.DerivedState{Kind: session.None, State: session.NoneState}

	got, err := render.Render(d, render.Text, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "none | none | elapsed 00:00 | remaining 00:00"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	d := session.DerivedState{
		Kind: session.Focus, State: session.CompletedState,
		PlannedSecs: 1500, ElapsedSecs: 1500, RemainingSecs: 0,
	}

	got, err := render.Render(d, render.JSON, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var parsed session.DerivedState
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if parsed != d {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, d)
	}
}

func TestRenderJSONNoneState(t *testing.T) {
	d := session.DerivedState{Kind: session.None, State: session.NoneState}

	got, err := render.Render(d, render.JSON, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := `{"kind":"none","state":"none","planned_secs":0,"elapsed_secs":0,"remaining_secs":0}`
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderTemplateCustom(t *testing.T) {
	d := session.DerivedState{
		Kind: session.Break, State: session.PausedState,
		PlannedSecs: 300, ElapsedSecs: 60, RemainingSecs: 240,
	}

	got, err := render.Render(d, render.Template, `state + " (" + string(remaining_secs) + "s left)"`)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "paused (240s left)"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderTemplateUnknownVariableIsParseError(t *testing.T) {
	d := session.DerivedState{Kind: session.Focus, State: session.Running}

	_, err := render.Render(d, render.Template, "not_a_real_field")

	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T (%v)", err, err)
	}

	if appErr.Kind != apperr.Parse {
		t.Fatalf("Kind = %v, want Parse", appErr.Kind)
	}
}

func TestRenderTemplateEmptyFormatIsParseError(t *testing.T) {
	d := session.DerivedState{Kind: session.Focus, State: session.Running}

	_, err := render.Render(d, render.Template, "")

	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.Parse {
		t.Fatalf("expected Parse error, got %v", err)
	}
}
