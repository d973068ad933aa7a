// Package logging configures the process-wide structured logger. All
// binaries emit JSON to stdout tagged with the emitting service.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a config-supplied level name to a slog level. Unknown
// names are an error so a typo in LOG_LEVEL fails configuration instead
// of silently logging at info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

// NewJSONLogger builds the stdout logger for a service binary. The level
// was already validated at config load; an unknown value here still
// degrades to info rather than crashing the process.
func NewJSONLogger(service, level string) *slog.Logger {
	return New(os.Stdout, service, level)
}

// New is NewJSONLogger with an explicit sink, for capturing output in
// tests.
func New(w io.Writer, service, level string) *slog.Logger {
	parsed, err := ParseLevel(level)
	if err != nil {
		parsed = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parsed})
	return slog.New(handler).With("service", service)
}
