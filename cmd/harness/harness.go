package main

import (
	"log/slog"
	"os"

	"github.com/cruciblehq/harness/internal/cli"
)

// The entry point for the harness CLI.
//
// Installs the logger and runs the selected command. Any error is logged and
// turned into exit status 1.
func main() {
	slog.SetDefault(cli.NewLogger(os.Stderr))

	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
