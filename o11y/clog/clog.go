// Package clog provides context-aware logging: a Logger carries a trace
// ID, span ID and arbitrary labels attached to a context.Context, so a
// long call chain (lex a file, expand its macros, walk its includes) logs
// with consistent structured fields without threading them through every
// function signature.
package clog

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

type contextKeyType int

var contextKey contextKeyType

var baseLogger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.RFC3339,
})

// New creates a Logger with no trace context.
func New(ctx context.Context) *Logger {
	return &Logger{backend: baseLogger}
}

// NewContext attaches logger to ctx.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// NewSpan attaches a new Logger carrying trace, spanID and labels to ctx,
// inheriting the verbosity level of whatever Logger (if any) was already
// attached.
func NewSpan(ctx context.Context, trace, spanID string, labels map[string]string) context.Context {
	logger, _ := ctx.Value(contextKey).(*Logger)
	return NewContext(ctx, logger.Span(trace, spanID, labels))
}

// FromContext returns the Logger attached to ctx, or a fresh one with no
// trace context if none was attached.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey).(*Logger)
	if !ok || logger == nil {
		return New(ctx)
	}
	return logger
}

// Logger logs with a fixed trace/spanID/labels context.
type Logger struct {
	backend *log.Logger
	trace   string
	spanID  string
	labels  map[string]string
}

// Span returns a child Logger scoped to a trace and span.
func (l *Logger) Span(trace, spanID string, labels map[string]string) *Logger {
	backend := baseLogger
	if l != nil && l.backend != nil {
		backend = l.backend
	}
	fields := []interface{}{}
	if trace != "" {
		fields = append(fields, "trace", trace)
	}
	if spanID != "" {
		fields = append(fields, "span", spanID)
	}
	for k, v := range labels {
		fields = append(fields, k, v)
	}
	child := backend
	if len(fields) > 0 {
		child = backend.With(fields...)
	}
	return &Logger{backend: child, trace: trace, spanID: spanID, labels: labels}
}

func (l *Logger) logger() *log.Logger {
	if l == nil || l.backend == nil {
		return baseLogger
	}
	return l.backend
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.logger().Infof(format, args...) }

// Infof logs at info level using the Logger attached to ctx.
func Infof(ctx context.Context, format string, args ...interface{}) { FromContext(ctx).Infof(format, args...) }

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...interface{}) { l.logger().Warnf(format, args...) }

// Warningf logs at warn level using the Logger attached to ctx.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Warningf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.logger().Errorf(format, args...) }

// Errorf logs at error level using the Logger attached to ctx.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Errorf(format, args...)
}

// Fatalf logs at fatal level and exits the process.
func (l *Logger) Fatalf(format string, args ...interface{}) { l.logger().Fatalf(format, args...) }

// Fatalf logs at fatal level using the Logger attached to ctx, and exits.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Fatalf(format, args...)
}

// V reports whether verbose logging at level should be emitted.
func (l *Logger) V(level int) bool {
	return int(l.logger().GetLevel()) <= -level
}

// SetVerbosity sets the base logger's level from a glog-style -v=N value:
// higher N means more detail, mapped onto charmbracelet/log's Debug level
// space.
func SetVerbosity(n int) {
	if n <= 0 {
		baseLogger.SetLevel(log.InfoLevel)
		return
	}
	baseLogger.SetLevel(log.Level(-n))
}

// Close flushes any buffered log output. charmbracelet/log writes
// synchronously, so this is a no-op kept for symmetry with callers that
// defer it unconditionally.
func (l *Logger) Close() {}
