// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// CycleKey is the context key for the revenue cycle number
	CycleKey contextKey = "cycle"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger writing to w. Tests use it to capture or
// silence output.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter("test", io.Discard)
}

// WithContext returns a logger with context values extracted.
// Supports request_id and cycle from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if cycle, ok := ctx.Value(CycleKey).(uint64); ok && cycle > 0 {
		newLogger = newLogger.WithCycle(cycle)
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithCycle returns a logger tagged with a cycle number
func (l *Logger) WithCycle(cycle uint64) *Logger {
	return &Logger{
		Logger: l.With(slog.Uint64("cycle", cycle)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// CycleSealed logs the outcome of a completed revenue cycle
func (l *Logger) CycleSealed(cycle uint64, trigger string, leads, deals int, revenue int64, duration time.Duration, stageErrors int) {
	attrs := []any{
		slog.Uint64("cycle", cycle),
		slog.String("trigger", trigger),
		slog.Int("leads", leads),
		slog.Int("deals", deals),
		slog.Int64("revenue", revenue),
		slog.Int64("duration_ms", duration.Milliseconds()),
	}
	if stageErrors > 0 {
		l.Warn("cycle_sealed", append(attrs, slog.Int("stage_errors", stageErrors))...)
		return
	}
	l.Info("cycle_sealed", attrs...)
}

// CycleSkipped logs a trigger that was dropped because a cycle was running
// or the engine was stopped
func (l *Logger) CycleSkipped(trigger, reason string) {
	l.Info("cycle_skipped",
		slog.String("trigger", trigger),
		slog.String("reason", reason),
	)
}

// ChannelFailure logs a failed outreach attempt
func (l *Logger) ChannelFailure(channel, leadID, outcome string, err error) {
	attrs := []any{
		slog.String("channel", channel),
		slog.String("lead_id", leadID),
		slog.String("outcome", outcome),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.Debug("channel_failure", attrs...)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
