package app

import (
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/pomodoro/internal/config"
)

// Get retrieves the pomodoro app instance.
func Get() *cli.App {
	pomodoroApp := &cli.App{
		Name: "pomodoro",
		Usage: `
		pomodoro is a local, single-user Pomodoro timer for the command-line.
		It tracks one session at a time in an append-only event log, so its
		state survives process restarts and terminal-multiplexer integrations
		can poll it cheaply.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			noColorFlag,
			inMemoryFlag,
			noHooksFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a new session, or resume a paused one",
				Flags: []cli.Flag{
					modeFlag,
					durationFlag,
				},
				Action:       startAction,
				OnUsageError: onUsageError,
			},
			{
				Name:  "stop",
				Usage: "Pause the active session, or abort it with --reset",
				Flags: []cli.Flag{
					resetFlag,
				},
				Action:       stopAction,
				OnUsageError: onUsageError,
			},
			{
				Name:  "status",
				Usage: "Print the status of the current session",
				Flags: []cli.Flag{
					outputFlag,
					formatFlag,
				},
				Action:       statusAction,
				OnUsageError: onUsageError,
			},
		},
		Before:       beforeAction,
		After:        afterAction,
		OnUsageError: onUsageError,
	}

	return pomodoroApp
}
