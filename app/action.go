package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/pomodoro/internal/apperr"
	"github.com/ayoisaiah/pomodoro/internal/clockutil"
	"github.com/ayoisaiah/pomodoro/internal/config"
	"github.com/ayoisaiah/pomodoro/internal/hook"
	"github.com/ayoisaiah/pomodoro/internal/idgen"
	"github.com/ayoisaiah/pomodoro/internal/render"
	"github.com/ayoisaiah/pomodoro/internal/store"
	"github.com/ayoisaiah/pomodoro/internal/timerapp"
)

const (
	envNoColor         = "NO_COLOR"
	envPomodoroNoColor = "POMODORO_NO_COLOR"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// withResolvedViperConfig returns an Option that applies WithXDGPaths and
// then hands the config path it resolved to WithViperConfig, so both run
// in the same New() call.
func withResolvedViperConfig() config.Option {
	return func(c *config.Config) error {
		if err := (config.WithXDGPaths())(c); err != nil {
			return err
		}

		return (config.WithViperConfig(c.ConfigPath))(c)
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.New(withResolvedViperConfig())
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, err, "loading config")
	}

	if ctx.Bool("in-memory") {
		cfg.DBPath = ":memory:"
	}

	return cfg, nil
}

func newService(ctx *cli.Context) (*timerapp.Service, *store.SQLStore, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Store, err, "opening database at %s", cfg.DBPath)
	}

	dispatcher := hook.NewDispatcher(cfg.HooksDir)
	dispatcher.Disabled = ctx.Bool("no-hooks")

	svc := &timerapp.Service{
		Store: st,
		Clock: clockutil.SystemClock{},
		IDs:   idgen.UUIDv7Generator{},
		Hooks: dispatcher,
		Durations: timerapp.Durations{
			Focus: cfg.FocusDuration,
			Break: cfg.BreakDuration,
		},
	}

	return svc, st, nil
}

// startAction handles the start command.
func startAction(ctx *cli.Context) error {
	svc, st, err := newService(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	kind, err := timerapp.ParseKind(ctx.String("mode"))
	if err != nil {
		return err
	}

	var duration time.Duration

	if raw := ctx.String("duration"); raw != "" {
		duration, err = timerapp.ParseDuration(raw)
		if err != nil {
			return err
		}
	}

	outcome, err := svc.Start(ctx.Context, timerapp.StartParams{Kind: kind, Duration: duration})
	if err != nil {
		return err
	}

	if !outcome.Applied {
		pterm.Info.Println(outcome.Message)
	}

	return nil
}

// stopAction handles the stop command.
func stopAction(ctx *cli.Context) error {
	svc, st, err := newService(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	outcome, err := svc.Stop(ctx.Context, timerapp.StopParams{Reset: ctx.Bool("reset")})
	if err != nil {
		return err
	}

	if !outcome.Applied {
		pterm.Info.Println(outcome.Message)
	}

	return nil
}

// statusAction handles the status command.
func statusAction(ctx *cli.Context) error {
	mode := render.Mode(ctx.String("output"))
	tmpl := ctx.String("format")

	if tmpl != "" && mode != render.Text {
		return apperr.New(apperr.Parse, "--format is only valid with --output text")
	}

	if tmpl != "" {
		mode = render.Template
	}

	svc, st, err := newService(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	derived, err := svc.StatusWithAutoComplete(ctx.Context)
	if err != nil {
		return err
	}

	out, err := render.Render(derived, mode, tmpl)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, out)

	return nil
}

// onUsageError maps a flag-parsing failure raised by cli itself (unknown
// flag, malformed value, ...) to a Parse error, so it exits 2 like every
// other malformed-argument case instead of falling through to 1.
func onUsageError(ctx *cli.Context, err error, isSubcommand bool) error {
	return apperr.Wrap(apperr.Parse, err, "invalid arguments")
}

func beforeAction(ctx *cli.Context) error {
	cli.AppHelpTemplate = helpText()

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	if _, exists := os.LookupEnv(envPomodoroNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return nil
}

func afterAction(ctx *cli.Context) error {
	slog.InfoContext(ctx.Context, "command finished", "command", ctx.Command.Name)

	return nil
}

// ExitCode prints the appropriate diagnostic for err and returns the
// process exit code spec.md §6/§7 assign it. A nil err always exits 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	appErr, ok := apperr.As(err)
	if !ok {
		pterm.Error.Println(err)
		return 1
	}

	switch appErr.Kind {
	case apperr.NotFound:
		pterm.Info.Println(appErr.Message)
		return 0
	default:
		pterm.Error.Println(appErr)
		return appErr.Kind.ExitCode()
	}
}
