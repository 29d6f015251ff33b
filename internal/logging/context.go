package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	projectIDKey ctxKey = iota
	commandKey
	clientIDKey
)

// WithProjectID returns a context with the project ID set.
func WithProjectID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, projectIDKey, id)
}

// WithCommand returns a context with the command name set.
func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandKey, name)
}

// WithClientID returns a context with the calling client ID set.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ProjectID extracts the project ID from the context, or "" if absent.
func ProjectID(ctx context.Context) string {
	v, _ := ctx.Value(projectIDKey).(string)
	return v
}

// Command extracts the command name from the context, or "" if absent.
func Command(ctx context.Context) string {
	v, _ := ctx.Value(commandKey).(string)
	return v
}

// ClientID extracts the client ID from the context, or "" if absent.
func ClientID(ctx context.Context) string {
	v, _ := ctx.Value(clientIDKey).(string)
	return v
}

// WithIDs sets all three correlation values on the context at once.
func WithIDs(ctx context.Context, projectID, command, clientID string) context.Context {
	ctx = WithProjectID(ctx, projectID)
	ctx = WithCommand(ctx, command)
	ctx = WithClientID(ctx, clientID)
	return ctx
}

// LogWith returns a logger enriched with correlation values from the
// context. Only non-empty values are added as attributes.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if pID := ProjectID(ctx); pID != "" {
		logger = logger.With(slog.String("project_id", pID))
	}
	if cmd := Command(ctx); cmd != "" {
		logger = logger.With(slog.String("command", cmd))
	}
	if cID := ClientID(ctx); cID != "" {
		logger = logger.With(slog.String("client_id", cID))
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation values from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and the values appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := ProjectID(ctx); v != "" {
		r.AddAttrs(slog.String("project_id", v))
	}
	if v := Command(ctx); v != "" {
		r.AddAttrs(slog.String("command", v))
	}
	if v := ClientID(ctx); v != "" {
		r.AddAttrs(slog.String("client_id", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
