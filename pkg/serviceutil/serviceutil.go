// Package serviceutil holds process level helpers shared by the commands.
package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext is cancelled on the first SIGINT or SIGTERM, stop releases
// the signal handler.
func SignalContext() (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Fatal logs `err` and exits with status 1, deferred calls do not run.
func Fatal(message string, err error) {
	slog.Error(message, "err", err)
	os.Exit(1)
}
