// ABOUTME: Logger construction shared by the yopuedo binaries
// ABOUTME: Chooses JSON, plain text or colorized text output from the logging config

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yopuedo360/yopuedo-chat/internal/config"
)

// Setup builds a logger writing to w. JSON output is used when the format is
// "json"; otherwise text, colorized when colorize is set.
func Setup(cfg config.LoggingConfig, w io.Writer, colorize bool) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch {
	case cfg.Format == "json":
		handler = slog.NewJSONHandler(w, opts)
	case colorize:
		handler = NewColorHandler(w, level)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

// OpenFile opens path for appending, creating its directory if needed.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
