package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context cancelled on the first SIGINT or SIGTERM.
// The in-flight export then drains and flushes what it has harvested.
// A second signal exits immediately with status 130.
// logger is looked up when a signal arrives, so a handler configured after
// setup (by --verbose or --no-color) is the one that logs it; nil means slog.Default.
func SetupSignalHandler(logger func() *slog.Logger) context.Context {
	if logger == nil {
		logger = slog.Default
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger().Info("received shutdown signal, stopping collection", "signal", sig.String())
		cancel()

		sig = <-sigCh
		logger().Warn("received second shutdown signal, forcing exit", "signal", sig.String())
		os.Exit(130)
	}()

	return ctx
}
