// Package internal holds helpers shared by tests across packages.
package internal

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// TestLogger returns the logger installed into test contexts. Records are
// dropped unless MINDGAMES_TEST_LOG=1, which prints debug-level JSON to
// stdout.
var TestLogger = sync.OnceValue(func() *slog.Logger {
	if os.Getenv("MINDGAMES_TEST_LOG") != "1" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
})
