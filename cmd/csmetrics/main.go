package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/naeemkhedarun/csmetrics/internal/cli"
	"github.com/naeemkhedarun/csmetrics/internal/util"
)

func main() {
	// The logger is resolved per signal; the root command installs the configured one later
	ctx := util.SetupSignalHandler(slog.Default)

	// Execute the CLI
	if err := cli.Execute(ctx); err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", util.FriendlyError(err))
		os.Exit(1)
	}
}
