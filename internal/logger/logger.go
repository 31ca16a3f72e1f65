// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Sends logs to stderr for commands and to a debug file while the TUI owns the screen.

package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DebugLogName is the file written under the config directory in TUI mode
const DebugLogName = "debug.log"

// Init configures the default slog logger writing to w.
// level: debug, info, warn, error (default: info)
// format: text, json (default: text)
func Init(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// OpenFile opens (creating if needed) a log file for appending.
// An empty path resolves to debug.log inside configDir.
func OpenFile(path, configDir string) (*os.File, error) {
	if path == "" {
		if configDir == "" {
			return nil, fmt.Errorf("no config directory for %s", DebugLogName)
		}
		if err := os.MkdirAll(configDir, 0700); err != nil {
			return nil, err
		}
		path = filepath.Join(configDir, DebugLogName)
	}

	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
