// Package output provides the process-wide log sink and the console status
// display.
package output

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFilePath returns the path of the rotating log file. REPOTRACK_LOG_FILE
// takes precedence, then the explicit configured path, then
// ~/.repotrack/logs/repotrack.log.
func LogFilePath(configured string) string {
	if customPath := os.Getenv("REPOTRACK_LOG_FILE"); customPath != "" {
		return customPath
	}
	if configured != "" {
		return configured
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "repotrack.log"
	}
	return filepath.Join(homeDir, ".repotrack", "logs", "repotrack.log")
}

// newLumberjackLogger creates the rotating file writer, with rotation knobs
// overridable from the environment.
func newLumberjackLogger(logFilePath string) *lumberjack.Logger {
	config := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
		Compress:   false,
	}

	if maxSizeStr := os.Getenv("REPOTRACK_LOG_MAX_SIZE"); maxSizeStr != "" {
		if maxSize, err := strconv.Atoi(maxSizeStr); err == nil && maxSize > 0 {
			config.MaxSize = maxSize
		}
	}
	if maxBackupsStr := os.Getenv("REPOTRACK_LOG_MAX_BACKUPS"); maxBackupsStr != "" {
		if maxBackups, err := strconv.Atoi(maxBackupsStr); err == nil && maxBackups >= 0 {
			config.MaxBackups = maxBackups
		}
	}
	if maxAgeStr := os.Getenv("REPOTRACK_LOG_MAX_AGE"); maxAgeStr != "" {
		if maxAge, err := strconv.Atoi(maxAgeStr); err == nil && maxAge > 0 {
			config.MaxAge = maxAge
		}
	}

	return config
}

// multiHandler fans out log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

// NewLogger creates the process logger: structured text lines to the
// rotating log file, warnings and errors also to stderr. Debug records are
// only emitted when the DEBUG environment variable is set.
func NewLogger(logFilePath string) (*slog.Logger, error) {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, err
	}

	fileHandler := slog.NewTextHandler(newLumberjackLogger(logFilePath), &slog.HandlerOptions{
		Level: level,
	})
	consoleHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})

	return slog.New(&multiHandler{handlers: []slog.Handler{fileHandler, consoleHandler}}), nil
}
