// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RunIDKey is the context key for a pipeline run identifier.
	RunIDKey contextKey = "run_id"
	// MessageIDKey is the context key for the inbound message identifier.
	MessageIDKey contextKey = "message_id"
	// OrgIDKey is the context key for the organization identifier.
	OrgIDKey contextKey = "org_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with run/message/org identifiers extracted.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	result := l

	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		result = result.WithRunID(runID)
	}

	if messageID, ok := ctx.Value(MessageIDKey).(string); ok && messageID != "" {
		result = &Logger{Logger: result.With(slog.String("message_id", messageID))}
	}

	if orgID, ok := ctx.Value(OrgIDKey).(string); ok && orgID != "" {
		result = &Logger{Logger: result.With(slog.String("org_id", orgID))}
	}

	return result
}

// WithRunID returns a logger tagged with a pipeline run identifier.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("run_id", runID)),
	}
}

// NodeTransition logs a graph node completing and the status it left the
// run in.
func (l *Logger) NodeTransition(pipeline, node, status string) {
	l.Info("node_transition",
		slog.String("pipeline", pipeline),
		slog.String("node", node),
		slog.String("status", status),
	)
}

// CollaboratorCall logs a call to an external collaborator (STT, chat-completion,
// messenger, data-store, catalog, ticketer) and its outcome.
func (l *Logger) CollaboratorCall(collaborator, op string, latencyMs float64, err error) {
	if err != nil {
		l.Warn("collaborator_call",
			slog.String("collaborator", collaborator),
			slog.String("op", op),
			slog.Float64("latency_ms", latencyMs),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Debug("collaborator_call",
		slog.String("collaborator", collaborator),
		slog.String("op", op),
		slog.Float64("latency_ms", latencyMs),
	)
}

// CompensationAttempt logs one best-effort action taken inside the handle_failure
// compensating node. Compensation actions are swallowed on error, but the
// attempt and its outcome are still observable here.
func (l *Logger) CompensationAttempt(action string, err error) {
	if err != nil {
		l.Warn("compensation_attempt",
			slog.String("action", action),
			slog.Bool("ok", false),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Info("compensation_attempt",
		slog.String("action", action),
		slog.Bool("ok", true),
	)
}

// HTTPRequest logs one completed HTTP request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}
