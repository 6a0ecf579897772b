// Package logging provides centralized logging configuration for kyr.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *slog.Logger
	globalMu     sync.RWMutex

	// logWriter is the rotating file writer, kept for Close.
	logWriter   io.WriteCloser
	logWriterMu sync.Mutex

	// allowedComponents is the set of components to log (nil means all)
	allowedComponents map[string]bool
	componentsMu      sync.RWMutex
)

// Component names used across kyr.
const (
	ComponentChat   = "chat"
	ComponentClient = "client"
	ComponentNav    = "nav"
	ComponentCLI    = "cli"
)

// FileLogConfig holds configuration for file-based logging with rotation.
type FileLogConfig struct {
	// Path is the file path for the log file.
	// Empty string disables file logging.
	Path string

	// MaxSizeMB is the maximum size of the log file in megabytes before rotation.
	// Default: 5MB
	MaxSizeMB int

	// MaxBackups is the maximum number of old log files to retain.
	// Default: 3
	MaxBackups int
}

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level for console output (debug, info, warn, error).
	Level string
	// FileLevel is the minimum level for file output. If empty, defaults to Level.
	FileLevel string
	// FileLog enables file logging with rotation when non-nil and Path is set.
	FileLog *FileLogConfig
	// JSON enables JSON output format.
	JSON bool
	// Components restricts logging to the named components (empty means all).
	Components []string
	// Console overrides the console writer. Defaults to os.Stderr.
	Console io.Writer
}

// Initialize sets up the global logger with the given configuration.
// Logs go to the console and, when FileLog is set, to a rotating file.
// When the two levels differ a fan-out handler is used.
func Initialize(cfg Config) error {
	consoleLevel, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	fileLevel := consoleLevel
	if cfg.FileLevel != "" {
		if fileLevel, err = ParseLevel(cfg.FileLevel); err != nil {
			return err
		}
	}

	componentsMu.Lock()
	if len(cfg.Components) > 0 {
		allowedComponents = make(map[string]bool)
		for _, c := range cfg.Components {
			allowedComponents[strings.TrimSpace(c)] = true
		}
	} else {
		allowedComponents = nil
	}
	componentsMu.Unlock()

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	logWriterMu.Lock()
	defer logWriterMu.Unlock()

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}

	var fileWriter io.Writer
	if cfg.FileLog != nil && cfg.FileLog.Path != "" {
		maxSize := cfg.FileLog.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 5
		}
		maxBackups := cfg.FileLog.MaxBackups
		if maxBackups < 0 {
			maxBackups = 3
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.FileLog.Path,
			MaxSize:    maxSize, // megabytes
			MaxBackups: maxBackups,
		}
		logWriter = lj
		fileWriter = lj
	}

	createHandler := func(w io.Writer, level slog.Level) slog.Handler {
		opts := &slog.HandlerOptions{Level: level}
		if cfg.JSON {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}

	var handler slog.Handler
	switch {
	case fileWriter != nil && fileLevel != consoleLevel:
		handler = &multiHandler{handlers: []slog.Handler{
			createHandler(console, consoleLevel),
			createHandler(fileWriter, fileLevel),
		}}
	case fileWriter != nil:
		handler = createHandler(io.MultiWriter(console, fileWriter), consoleLevel)
	default:
		handler = createHandler(console, consoleLevel)
	}

	logger := slog.New(handler)

	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()

	slog.SetDefault(logger)
	return nil
}

// multiHandler fans out log records to handlers with different levels.
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

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// Get returns the global logger, or slog.Default() before Initialize.
func Get() *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// Close closes the log file, if any.
func Close() error {
	logWriterMu.Lock()
	defer logWriterMu.Unlock()

	if logWriter != nil {
		err := logWriter.Close()
		logWriter = nil
		return err
	}
	return nil
}

// ParseLevel converts a level name to slog.Level. The empty string means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func isComponentAllowed(component string) bool {
	componentsMu.RLock()
	defer componentsMu.RUnlock()

	if allowedComponents == nil {
		return true
	}
	return allowedComponents[component]
}

// componentFilterHandler drops records from components that are not allowed.
type componentFilterHandler struct {
	inner     slog.Handler
	component string
}

func (h *componentFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if !isComponentAllowed(h.component) {
		return false
	}
	return h.inner.Enabled(ctx, level)
}

func (h *componentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	if !isComponentAllowed(h.component) {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *componentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &componentFilterHandler{inner: h.inner.WithAttrs(attrs), component: h.component}
}

func (h *componentFilterHandler) WithGroup(name string) slog.Handler {
	return &componentFilterHandler{inner: h.inner.WithGroup(name), component: h.component}
}

// WithComponent returns a logger tagged with a component attribute.
// If component filtering excludes it, the logger discards everything.
func WithComponent(component string) *slog.Logger {
	base := Get()
	return slog.New(&componentFilterHandler{
		inner:     base.Handler().WithAttrs([]slog.Attr{slog.String("component", component)}),
		component: component,
	})
}

// Chat returns a logger for the conversation controller.
func Chat() *slog.Logger { return WithComponent(ComponentChat) }

// Client returns a logger for the REST client.
func Client() *slog.Logger { return WithComponent(ComponentClient) }

// Nav returns a logger for navigation and location sync.
func Nav() *slog.Logger { return WithComponent(ComponentNav) }

// CLI returns a logger for command handling.
func CLI() *slog.Logger { return WithComponent(ComponentCLI) }

// WithSession returns a child logger that includes session_id.
func WithSession(base *slog.Logger, sessionID string) *slog.Logger {
	if base == nil {
		return nil
	}
	return base.With("session_id", sessionID)
}

// WithCall returns a child logger for one orchestrated request.
func WithCall(base *slog.Logger, op, sessionID string) *slog.Logger {
	if base == nil {
		return nil
	}
	return base.With("op", op, "session_id", sessionID)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
