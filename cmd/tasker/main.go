// Command tasker serves the task API.
package main

import (
	"log/slog"
	"os"

	"tasker/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		slog.Error("tasker.exit", "err", err)
		os.Exit(1)
	}
}
