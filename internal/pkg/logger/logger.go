package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ParseLevel maps a configured level name to slog.Level.
// Unknown and empty names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds the application logger writing text records to out. When logDir
// is set, records are also appended to a timestamped file inside it; the
// returned cleanup function closes that file.
func New(out io.Writer, level, logDir string) (*slog.Logger, func() error, error) {
	cleanup := func() error { return nil }

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, cleanup, fmt.Errorf("create log directory: %w", err)
		}

		logFilePath := filepath.Join(logDir, fmt.Sprintf("mailcore-%s.log", time.Now().Format("20060102T150405")))
		//nolint:gosec
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open log file: %w", err)
		}

		out = io.MultiWriter(out, file)
		cleanup = file.Close
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: ReplaceAttr,
	})

	return slog.New(NewContextHandler(handler)), cleanup, nil
}
