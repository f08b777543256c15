// Package render projects a derived session state into text, JSON, or
// a user-supplied template.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ayoisaiah/pomodoro/internal/apperr"
	"github.com/ayoisaiah/pomodoro/internal/session"
)

// Mode selects the output format.
type Mode string

const (
	Text     Mode = "text"
	JSON     Mode = "json"
	Template Mode = "template"
)

// defaultTemplate is the fixed text-mode template, spelled as an
// expr-lang expression over the same five status variables a user
// template sees: string concatenation plus the mmss() helper.
const defaultTemplate = `kind + " | " + state + " | elapsed " + mmss(elapsed_secs) + " | remaining " + mmss(remaining_secs)`

// env is the expression environment exposed to both the default text
// template and user-supplied ones: the five status fields (named the
// way spec.md names them, via expr struct tags) plus the mm:ss
// formatting helper.
type env struct {
	Kind          string        `expr:"kind"`
	State         string        `expr:"state"`
	PlannedSecs   int           `expr:"planned_secs"`
	ElapsedSecs   int           `expr:"elapsed_secs"`
	RemainingSecs int           `expr:"remaining_secs"`
	Mmss          func(int) any `expr:"mmss"`
}

func newEnv(d session.DerivedState) env {
	return env{
		Kind:          string(d.Kind),
		State:         string(d.State),
		PlannedSecs:   d.PlannedSecs,
		ElapsedSecs:   d.ElapsedSecs,
		RemainingSecs: d.RemainingSecs,
		Mmss:          func(secs int) any { return formatMMSS(secs) },
	}
}

func formatMMSS(secs int) string {
	if secs < 0 {
		secs = 0
	}

	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Render projects d according to mode. tmpl is only consulted in
// Template mode.
func Render(d session.DerivedState, mode Mode, tmpl string) (string, error) {
	switch mode {
	case Text:
		return renderTemplate(d, defaultTemplate)
	case JSON:
		return renderJSON(d)
	case Template:
		if tmpl == "" {
			return "", apperr.New(apperr.Parse, "render: --format requires a template string")
		}

		return renderTemplate(d, tmpl)
	default:
		return "", apperr.New(apperr.Parse, "render: unknown output mode %q", mode)
	}
}

func renderJSON(d session.DerivedState) (string, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return "", apperr.Wrap(apperr.Store, err, "render: marshal derived state")
	}

	return string(body), nil
}

// compileProgram compiles raw against the status env, rejecting unknown
// identifiers as a Parse error at compile time.
func compileProgram(raw string) (*vm.Program, error) {
	program, err := expr.Compile(raw, expr.Env(env{}))
	if err != nil {
		return nil, apperr.Wrap(apperr.Parse, err, "render: invalid template %q", raw)
	}

	return program, nil
}

func renderTemplate(d session.DerivedState, raw string) (string, error) {
	program, err := compileProgram(raw)
	if err != nil {
		return "", err
	}

	out, err := expr.Run(program, newEnv(d))
	if err != nil {
		return "", apperr.Wrap(apperr.Parse, err, "render: evaluating template %q", raw)
	}

	s, ok := out.(string)
	if !ok {
		return "", apperr.New(apperr.Parse, "render: template %q did not produce a string", raw)
	}

	return s, nil
}
