package app

import "github.com/urfave/cli/v2"

var (
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured diagnostic output",
	}

	inMemoryFlag = &cli.BoolFlag{
		Name:   "in-memory",
		Usage:  "Use an ephemeral in-memory database instead of the on-disk one",
		Hidden: true,
	}

	noHooksFlag = &cli.BoolFlag{
		Name:   "no-hooks",
		Usage:  "Skip hook dispatch for this invocation",
		Hidden: true,
	}

	modeFlag = &cli.StringFlag{
		Name:  "mode",
		Usage: "Session kind to start: focus or break",
		Value: "focus",
	}

	durationFlag = &cli.StringFlag{
		Name:  "duration",
		Usage: "Planned session length as a human-time string (e.g. 25m, 1h30m)",
	}

	resetFlag = &cli.BoolFlag{
		Name:  "reset",
		Usage: "Abort the active or paused session instead of pausing it",
	}

	outputFlag = &cli.StringFlag{
		Name:  "output",
		Usage: "Status output mode: text or json",
		Value: "text",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Custom status template in a sandboxed expression language; only valid with --output text",
	}
)
