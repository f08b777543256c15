// Command pomodoro is a local, single-user Pomodoro timer.
package main

import (
	"os"

	"github.com/ayoisaiah/pomodoro/app"
)

func run(args []string) error {
	return app.Get().Run(args)
}

func main() {
	os.Exit(app.ExitCode(run(os.Args)))
}
