package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	output        io.Closer
)

// Init builds the process-wide logger. The TUI owns stdout, so output goes
// to a file unless cfg.File is "stderr" or "discard".
func Init(cfg Config) error {
	w, closer, err := openOutput(cfg.File)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	mu.Lock()
	defer mu.Unlock()
	if output != nil {
		output.Close()
	}
	output = closer
	defaultLogger = slog.New(h.WithAttrs([]slog.Attr{
		slog.String("service", "duetrack"),
	}))
	slog.SetDefault(defaultLogger)
	return nil
}

// Close flushes and releases the log file opened by Init.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if output == nil {
		return nil
	}
	err := output.Close()
	output = nil
	return err
}

// GetLogger returns the default logger, falling back to a discarding logger
// when Init has not been called (tests).
func GetLogger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return defaultLogger
}

// NewModuleLogger tags a logger with the module and component it serves.
func NewModuleLogger(module, component string) *slog.Logger {
	return GetLogger().With(
		slog.String("module", module),
		slog.String("component", component),
	)
}

// ParseLevel maps a config string to a slog level; unknown values are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func openOutput(file string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(file)) {
	case "stderr":
		return os.Stderr, nil, nil
	case "", "discard":
		return io.Discard, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}
