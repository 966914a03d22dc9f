package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal logging interface used across agentrouter.
// Arguments after msg are slog style key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// StructuredLogger wraps slog.Logger adding a component name, sticky
// attributes and domain helpers. With* methods return modified copies.
type StructuredLogger struct {
	logger    *slog.Logger
	component string
	attrs     []slog.Attr
}

// LoggerConfig configures construction of a StructuredLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration on stderr.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr}
}

// NewLogger builds a StructuredLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *StructuredLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &StructuredLogger{logger: slog.New(handler), component: cfg.Component}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog exposes the underlying *slog.Logger.
func (l *StructuredLogger) Slog() *slog.Logger { return l.logger }

// WithComponent returns a copy tagged with the logical component (registry, dispatch, server, ...).
func (l *StructuredLogger) WithComponent(c string) *StructuredLogger {
	nl := *l
	nl.component = c
	nl.attrs = append([]slog.Attr(nil), l.attrs...)
	return &nl
}

// WithContext returns a copy that attaches key/value to every entry.
func (l *StructuredLogger) WithContext(key string, value any) *StructuredLogger {
	nl := *l
	nl.attrs = append(append([]slog.Attr(nil), l.attrs...), slog.Any(key, value))
	return &nl
}

func (l *StructuredLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	if l.component != "" {
		r.AddAttrs(slog.String("component", l.component))
	}
	r.AddAttrs(l.attrs...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

// Debug logs at debug level.
func (l *StructuredLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs at info level.
func (l *StructuredLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *StructuredLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs at error level.
func (l *StructuredLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// LogDispatch records the outcome of one routed message.
func (l *StructuredLogger) LogDispatch(sessionID, toID, destination string, dur time.Duration, err error) {
	args := []any{"session_id", sessionID, "to_id", toID, "destination", destination, "duration", dur}
	if err != nil {
		l.Error("dispatch.failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("dispatch.completed", args...)
}

// LogToolCall records execution details for a tool invocation.
func (l *StructuredLogger) LogToolCall(tool string, dur time.Duration, err error) {
	args := []any{"tool_name", tool, "duration", dur, "success", err == nil}
	if err != nil {
		l.Error("tool.call.failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("tool.call.completed", args...)
}

// LogLLMCall records model call latency, token usage and success.
func (l *StructuredLogger) LogLLMCall(model string, tokens int, dur time.Duration, err error) {
	args := []any{"model", model, "token_count", tokens, "duration", dur, "success", err == nil}
	if err != nil {
		l.Error("llm.call.failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("llm.call.completed", args...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// DomainLogger is implemented by loggers with dedicated domain helpers.
type DomainLogger interface {
	LogDispatch(sessionID, toID, destination string, dur time.Duration, err error)
	LogToolCall(tool string, dur time.Duration, err error)
	LogLLMCall(model string, tokens int, dur time.Duration, err error)
}

var _ DomainLogger = (*StructuredLogger)(nil)

// Dispatch logs a dispatch outcome through l, using its domain helper when available.
func Dispatch(l Logger, sessionID, toID, destination string, dur time.Duration, err error) {
	if dl, ok := l.(DomainLogger); ok {
		dl.LogDispatch(sessionID, toID, destination, dur, err)
		return
	}
	args := []any{"session_id", sessionID, "to_id", toID, "destination", destination, "duration", dur}
	if err != nil {
		OrNoOp(l).Error("dispatch.failed", append(args, "error", err.Error())...)
		return
	}
	OrNoOp(l).Info("dispatch.completed", args...)
}

// ToolCall logs a tool invocation through l, using its domain helper when available.
func ToolCall(l Logger, tool string, dur time.Duration, err error) {
	if dl, ok := l.(DomainLogger); ok {
		dl.LogToolCall(tool, dur, err)
		return
	}
	if err != nil {
		OrNoOp(l).Error("tool.call.failed", "tool_name", tool, "duration", dur, "error", err.Error())
		return
	}
	OrNoOp(l).Info("tool.call.completed", "tool_name", tool, "duration", dur)
}

// LLMCall logs a model call through l, using its domain helper when available.
func LLMCall(l Logger, model string, tokens int, dur time.Duration, err error) {
	if dl, ok := l.(DomainLogger); ok {
		dl.LogLLMCall(model, tokens, dur, err)
		return
	}
	if err != nil {
		OrNoOp(l).Error("llm.call.failed", "model", model, "duration", dur, "error", err.Error())
		return
	}
	OrNoOp(l).Info("llm.call.completed", "model", model, "token_count", tokens, "duration", dur)
}
